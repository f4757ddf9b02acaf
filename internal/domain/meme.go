package domain

// Tone classifies the style of a generated caption.
// The set is closed: every successful generation carries exactly one caption
// per tone, in ToneOrder order.
type Tone string

const (
	ToneSarcastic Tone = "sarcastic"
	ToneWholesome Tone = "wholesome"
	ToneDarkHumor Tone = "dark_humor"
)

// ToneOrder is the canonical caption order for a generation result.
var ToneOrder = [3]Tone{ToneSarcastic, ToneWholesome, ToneDarkHumor}

// MaxCaptionLength is the display cap for a single caption. Generator output
// beyond it is truncated with an ellipsis during structural validation.
const MaxCaptionLength = 70

// Caption is one generated caption with its tone. Immutable once validated.
type Caption struct {
	Tone Tone   `json:"tone"`
	Text string `json:"text"`
}

// TextPosition selects where caption text is anchored on the image.
type TextPosition string

const (
	PositionTop    TextPosition = "top"
	PositionBottom TextPosition = "bottom"
)

// Watermark configures the translucent attribution overlay.
type Watermark struct {
	Text    string
	Enabled bool
}

// RenderOptions is the pure configuration value passed into the overlay
// renderer. It carries no state.
type RenderOptions struct {
	Position  TextPosition
	Watermark Watermark
}

// Meme is a rendered image matched back to its caption. Lifetime is a single
// response; nothing is persisted.
type Meme struct {
	ID       string `json:"id"`
	Tone     Tone   `json:"tone"`
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl"`
}

// ModerationVerdict is the outcome of a single moderation check.
type ModerationVerdict struct {
	Flagged    bool     `json:"flagged"`
	Categories []string `json:"categories"`
	Safe       bool     `json:"safe"`
}

// KeywordFallbackCategory marks verdicts produced by the local denylist scan
// rather than the remote moderation model.
const KeywordFallbackCategory = "keyword_filter"
