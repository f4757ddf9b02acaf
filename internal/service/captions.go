package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"meme-factory/internal/domain"
	"meme-factory/internal/logger"
	"meme-factory/internal/prompts"
)

// CaptionConfig holds configuration for the caption generation client.
type CaptionConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// CaptionService generates meme captions through an OpenAI-compatible chat
// completions endpoint.
type CaptionService struct {
	client   *resty.Client
	model    string
	endpoint string
}

// NewCaptionService creates a caption generation client.
func NewCaptionService(cfg *CaptionConfig) *CaptionService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &CaptionService{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
	}
}

// OpenAI-compatible chat completion request/response structures.
type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float32      `json:"temperature"`
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type captionPayload struct {
	Captions []domain.Caption `json:"captions"`
}

// GenerateCaptions produces exactly three validated captions for the topic.
// A structurally invalid model response is retried once with a simplified
// prompt before giving up.
func (s *CaptionService) GenerateCaptions(ctx context.Context, topic string) ([]domain.Caption, error) {
	content, err := s.complete(ctx, []llmMessage{
		{Role: "system", Content: prompts.CaptionSystemPrompt},
		{Role: "user", Content: prompts.CaptionUserPrompt + topic},
	})
	if err != nil {
		return nil, err
	}

	captions, parseErr := parseCaptions(content)
	if parseErr == nil {
		return captions, nil
	}

	logger.CtxWarn(ctx, "caption response invalid, retrying with simplified prompt: %v", parseErr)

	content, err = s.complete(ctx, []llmMessage{
		{Role: "user", Content: fmt.Sprintf(prompts.CaptionRetryPrompt, topic)},
	})
	if err != nil {
		return nil, err
	}

	captions, parseErr = parseCaptions(content)
	if parseErr != nil {
		return nil, fmt.Errorf("caption response invalid after retry: %w", parseErr)
	}
	return captions, nil
}

func (s *CaptionService) complete(ctx context.Context, messages []llmMessage) (string, error) {
	req := llmRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0.9,
	}

	var resp llmResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(s.endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call caption API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("caption API returned error: %s", errorMsg)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("caption API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from caption API (status %d)", httpResp.StatusCode())
	}

	return resp.Choices[0].Message.Content, nil
}

// parseCaptions extracts the JSON object from model output and validates it
// into the canonical caption set.
func parseCaptions(content string) ([]domain.Caption, error) {
	jsonStr, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var payload captionPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return ValidateCaptions(payload.Captions)
}

// extractJSON locates the first balanced JSON object in model output, which
// may be wrapped in prose or a markdown code fence.
func extractJSON(content string) (string, error) {
	jsonStart := strings.Index(content, "{")
	if jsonStart == -1 {
		return "", fmt.Errorf("no JSON found in response")
	}

	braceCount := 0
	jsonEnd := -1
findJSON:
	for i := jsonStart; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				jsonEnd = i + 1
				break findJSON
			}
		}
	}

	if jsonEnd == -1 {
		return "", fmt.Errorf("incomplete JSON in response")
	}

	return content[jsonStart:jsonEnd], nil
}

// ValidateCaptions enforces the caption contract: exactly three entries, in
// canonical tone order, each with non-empty text. Overlong text is truncated
// with an ellipsis rather than rejected.
func ValidateCaptions(captions []domain.Caption) ([]domain.Caption, error) {
	if len(captions) != len(domain.ToneOrder) {
		return nil, fmt.Errorf("expected %d captions, got %d", len(domain.ToneOrder), len(captions))
	}

	out := make([]domain.Caption, len(captions))
	for i, c := range captions {
		if c.Tone != domain.ToneOrder[i] {
			return nil, fmt.Errorf("caption %d: expected tone %q, got %q", i, domain.ToneOrder[i], c.Tone)
		}

		text := strings.TrimSpace(c.Text)
		if text == "" {
			return nil, fmt.Errorf("caption %d (%s): empty text", i, c.Tone)
		}

		if runes := []rune(text); len(runes) > domain.MaxCaptionLength {
			text = string(runes[:domain.MaxCaptionLength-3]) + "..."
		}

		out[i] = domain.Caption{Tone: c.Tone, Text: text}
	}

	return out, nil
}
