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

// keywordDenylist is the static fallback scan used when the remote moderation
// call fails. Matching is case-insensitive substring containment.
var keywordDenylist = []string{
	"kill yourself",
	"kys",
	"nazi",
	"terrorist",
	"rape",
	"genocide",
	"school shooting",
	"suicide",
	"heil",
	"lynch",
}

// ModerationClientConfig holds configuration for the safety gate.
type ModerationClientConfig struct {
	Model   string
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Bypass  bool
}

// SafetyGate moderates text through the LLM with a deterministic keyword
// fallback when the remote call fails. It never returns an error: a text is
// either cleared or flagged.
type SafetyGate struct {
	client   *resty.Client
	model    string
	endpoint string
	bypass   bool
}

// NewSafetyGate creates a moderation gate.
func NewSafetyGate(cfg *ModerationClientConfig) *SafetyGate {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &SafetyGate{
		client:   client,
		model:    cfg.Model,
		endpoint: baseURL + "/chat/completions",
		bypass:   cfg.Bypass,
	}
}

type moderationPayload struct {
	Safe       bool     `json:"safe"`
	Categories []string `json:"categories"`
}

// Moderate checks a single text. The remote verdict is authoritative; any
// remote failure falls back to the keyword scan, whose verdicts carry the
// keyword_filter category so callers can tell the two apart.
func (g *SafetyGate) Moderate(ctx context.Context, text string) domain.ModerationVerdict {
	if g.bypass {
		return domain.ModerationVerdict{Safe: true, Categories: []string{}}
	}

	verdict, err := g.moderateRemote(ctx, text)
	if err != nil {
		logger.CtxWarn(ctx, "remote moderation failed, using keyword fallback: %v", err)
		return keywordScan(text)
	}
	return verdict
}

// ModerateAll reports whether every text is safe.
func (g *SafetyGate) ModerateAll(ctx context.Context, texts []string) bool {
	for _, text := range texts {
		if v := g.Moderate(ctx, text); v.Flagged {
			return false
		}
	}
	return true
}

func (g *SafetyGate) moderateRemote(ctx context.Context, text string) (domain.ModerationVerdict, error) {
	req := llmRequest{
		Model: g.model,
		Messages: []llmMessage{
			{Role: "user", Content: fmt.Sprintf(prompts.ModerationPrompt, text)},
		},
		MaxTokens:   150,
		Temperature: 0,
	}

	var resp llmResponse
	httpResp, err := g.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(g.endpoint)

	if err != nil {
		return domain.ModerationVerdict{}, fmt.Errorf("failed to call moderation API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return domain.ModerationVerdict{}, fmt.Errorf("moderation API returned HTTP %d", httpResp.StatusCode())
	}

	if resp.Error != nil {
		return domain.ModerationVerdict{}, fmt.Errorf("moderation API error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return domain.ModerationVerdict{}, fmt.Errorf("no response from moderation API")
	}

	jsonStr, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return domain.ModerationVerdict{}, err
	}

	var payload moderationPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return domain.ModerationVerdict{}, fmt.Errorf("failed to parse moderation JSON: %w", err)
	}

	categories := payload.Categories
	if categories == nil {
		categories = []string{}
	}

	return domain.ModerationVerdict{
		Safe:       payload.Safe,
		Flagged:    !payload.Safe,
		Categories: categories,
	}, nil
}

func keywordScan(text string) domain.ModerationVerdict {
	lowered := strings.ToLower(text)
	for _, word := range keywordDenylist {
		if strings.Contains(lowered, word) {
			return domain.ModerationVerdict{
				Flagged:    true,
				Safe:       false,
				Categories: []string{domain.KeywordFallbackCategory},
			}
		}
	}
	return domain.ModerationVerdict{Safe: true, Categories: []string{}}
}
