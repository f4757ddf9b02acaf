package prompts

// ============================================================================
// Caption Generation Prompts
// ============================================================================

// CaptionSystemPrompt defines the role and output contract for caption
// generation. The model must return exactly three captions covering the fixed
// tone set, JSON only.
const CaptionSystemPrompt = `You are a meme caption generator. Your ONLY output is valid JSON.
Return exactly 3 short, witty captions for the given topic.
Each caption must be safe-for-work and under 60 characters.
Use these three tones in order: sarcastic, wholesome, dark humor.

Output format:
{
  "captions": [
    {"tone": "sarcastic", "text": "caption here"},
    {"tone": "wholesome", "text": "caption here"},
    {"tone": "dark_humor", "text": "caption here"}
  ]
}

Rules:
- NO explanations or additional text
- NO offensive, hateful, or NSFW content
- Keep each caption punchy and meme-appropriate
- Use classic meme language and structure`

// CaptionUserPrompt is the full-fidelity user message appended to the topic.
const CaptionUserPrompt = `Generate 3 meme captions (max 60 chars each) with the required tones. Be witty but family-friendly.

Return ONLY valid JSON, nothing else.

Topic: `

// CaptionRetryPrompt is the simplified single-message variant used for the one
// automatic retry after a structurally invalid response.
const CaptionRetryPrompt = `Create 3 short meme captions about: %q

Return ONLY this JSON format, nothing else:
{
  "captions": [
    {"tone": "sarcastic", "text": "YOUR SARCASTIC CAPTION HERE"},
    {"tone": "wholesome", "text": "YOUR WHOLESOME CAPTION HERE"},
    {"tone": "dark_humor", "text": "YOUR DARK HUMOR CAPTION HERE"}
  ]
}`

// ============================================================================
// Moderation Prompt
// ============================================================================

// ModerationPrompt asks the model to classify a single text for safety and
// respond with bare JSON. The %q verb receives the text under review.
const ModerationPrompt = `Analyze this text for inappropriate content. Check for: hate speech, harassment, violence, sexual content, self-harm, profanity.

Text: %q

Respond with ONLY valid JSON in this exact format:
{
  "safe": true/false,
  "categories": ["category1", "category2"]
}

If safe, categories should be empty array. If unsafe, list specific categories found.`
