package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"meme-factory/internal/domain"
)

type fakeCaptioner struct {
	captions []domain.Caption
	err      error
	calls    int
}

func (f *fakeCaptioner) GenerateCaptions(ctx context.Context, topic string) ([]domain.Caption, error) {
	f.calls++
	return f.captions, f.err
}

type fakeModerator struct {
	flagged map[string]bool
	calls   []string
}

func (f *fakeModerator) Moderate(ctx context.Context, text string) domain.ModerationVerdict {
	f.calls = append(f.calls, text)
	if f.flagged[text] {
		return domain.ModerationVerdict{Flagged: true, Categories: []string{"hate"}}
	}
	return domain.ModerationVerdict{Safe: true, Categories: []string{}}
}

func testImageBase64(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 200, 150))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 90, G: 90, B: 90, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService(captioner *fakeCaptioner, moderator *fakeModerator) *GeneratorService {
	return NewGeneratorService(captioner, moderator, domain.Watermark{Enabled: true, Text: "meme-factory.app"})
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) *domain.Error {
	t.Helper()

	var derr *domain.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *domain.Error, got %v", err)
	}
	if derr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, derr.Code, derr.Message)
	}
	return derr
}

func TestGenerate_MissingInput(t *testing.T) {
	captioner := &fakeCaptioner{}
	moderator := &fakeModerator{}
	svc := newTestService(captioner, moderator)

	tests := []struct {
		name string
		req  *domain.GenerateRequest
	}{
		{"empty topic", &domain.GenerateRequest{Image: testImageBase64(t), Topic: "   "}},
		{"empty image", &domain.GenerateRequest{Topic: "mondays"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			assertCode(t, err, domain.CodeInvalidInput)
		})
	}

	if captioner.calls != 0 || len(moderator.calls) != 0 {
		t.Error("invalid input must not reach moderation or generation")
	}
}

func TestGenerate_TopicTooLong(t *testing.T) {
	moderator := &fakeModerator{}
	svc := newTestService(&fakeCaptioner{}, moderator)

	req := &domain.GenerateRequest{
		Image: testImageBase64(t),
		Topic: strings.Repeat("x", domain.MaxTopicLength+1),
	}
	_, err := svc.Generate(context.Background(), req)
	assertCode(t, err, domain.CodeTopicTooLong)

	if len(moderator.calls) != 0 {
		t.Error("length check must come before moderation")
	}
}

func TestGenerate_InvalidBase64(t *testing.T) {
	svc := newTestService(&fakeCaptioner{}, &fakeModerator{})

	req := &domain.GenerateRequest{Image: "!!!not-base64!!!", Topic: "mondays"}
	_, err := svc.Generate(context.Background(), req)
	assertCode(t, err, domain.CodeInvalidImage)
}

func TestGenerate_ImageTooLarge(t *testing.T) {
	svc := newTestService(&fakeCaptioner{}, &fakeModerator{})

	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, domain.MaxImageBytes+1))
	req := &domain.GenerateRequest{Image: big, Topic: "mondays"}
	_, err := svc.Generate(context.Background(), req)
	assertCode(t, err, domain.CodeImageTooLarge)
}

func TestGenerate_NonImagePayload(t *testing.T) {
	svc := newTestService(
		&fakeCaptioner{captions: validCaptions()},
		&fakeModerator{},
	)

	// Valid base64, but the bytes are not a decodable image.
	req := &domain.GenerateRequest{
		Image: base64.StdEncoding.EncodeToString([]byte("plain text payload")),
		Topic: "mondays",
	}
	_, err := svc.Generate(context.Background(), req)
	assertCode(t, err, domain.CodeInvalidImage)
}

func TestGenerate_TopicFlagged(t *testing.T) {
	captioner := &fakeCaptioner{captions: validCaptions()}
	moderator := &fakeModerator{flagged: map[string]bool{"bad topic": true}}
	svc := newTestService(captioner, moderator)

	req := &domain.GenerateRequest{Image: testImageBase64(t), Topic: "bad topic"}
	_, err := svc.Generate(context.Background(), req)

	derr := assertCode(t, err, domain.CodeContentFlagged)
	if derr.Retryable {
		t.Error("flagged topic should not be retryable")
	}
	if captioner.calls != 0 {
		t.Error("flagged topic must not reach caption generation")
	}
}

func TestGenerate_CaptionGenerationFails(t *testing.T) {
	captioner := &fakeCaptioner{err: fmt.Errorf("upstream exploded")}
	svc := newTestService(captioner, &fakeModerator{})

	req := &domain.GenerateRequest{Image: testImageBase64(t), Topic: "mondays"}
	_, err := svc.Generate(context.Background(), req)

	derr := assertCode(t, err, domain.CodeGenerationFailed)
	if !derr.Retryable {
		t.Error("generation failure should be retryable")
	}
}

func TestGenerate_CaptionFlagged(t *testing.T) {
	caps := validCaptions()
	captioner := &fakeCaptioner{captions: caps}
	moderator := &fakeModerator{flagged: map[string]bool{caps[1].Text: true}}
	svc := newTestService(captioner, moderator)

	req := &domain.GenerateRequest{Image: testImageBase64(t), Topic: "mondays"}
	_, err := svc.Generate(context.Background(), req)

	derr := assertCode(t, err, domain.CodeGeneratedContentFlagged)
	if !derr.Retryable {
		t.Error("flagged generation output should be retryable")
	}
}

func TestGenerate_Success(t *testing.T) {
	caps := validCaptions()
	captioner := &fakeCaptioner{captions: caps}
	moderator := &fakeModerator{}
	svc := newTestService(captioner, moderator)

	req := &domain.GenerateRequest{Image: testImageBase64(t), Topic: "mondays"}
	resp, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Success {
		t.Error("expected success response")
	}
	if len(resp.Memes) != 3 {
		t.Fatalf("expected 3 memes, got %d", len(resp.Memes))
	}

	seen := map[string]bool{}
	for i, m := range resp.Memes {
		if m.Tone != domain.ToneOrder[i] {
			t.Errorf("meme %d: tone %q out of order", i, m.Tone)
		}
		if m.Caption != caps[i].Text {
			t.Errorf("meme %d: caption %q does not match its position", i, m.Caption)
		}
		if !strings.HasPrefix(m.ImageURL, "data:image/png;base64,") {
			t.Errorf("meme %d: unexpected URL prefix", i)
		}
		if m.ID == "" || seen[m.ID] {
			t.Errorf("meme %d: missing or duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
	}

	if !strings.HasPrefix(resp.CollageURL, "data:image/png;base64,") {
		t.Error("collage should be a PNG data URL")
	}
	if resp.GenerationTime < 0 {
		t.Errorf("negative generation time %d", resp.GenerationTime)
	}

	// Topic plus all three captions pass through moderation.
	if len(moderator.calls) != 4 {
		t.Errorf("expected 4 moderation calls, got %d", len(moderator.calls))
	}
}

func TestGenerate_AcceptsDataURLPrefix(t *testing.T) {
	captioner := &fakeCaptioner{captions: validCaptions()}
	svc := newTestService(captioner, &fakeModerator{})

	req := &domain.GenerateRequest{
		Image: "data:image/png;base64," + testImageBase64(t),
		Topic: "mondays",
	}
	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("data URL payload should be accepted: %v", err)
	}
}

func TestGenerate_WatermarkOptOut(t *testing.T) {
	off := false
	svc := newTestService(&fakeCaptioner{captions: validCaptions()}, &fakeModerator{})

	req := &domain.GenerateRequest{
		Image:            testImageBase64(t),
		Topic:            "mondays",
		IncludeWatermark: &off,
	}
	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("opt-out request failed: %v", err)
	}

	opts := svc.renderOptions(req)
	if opts.Watermark.Enabled {
		t.Error("request opt-out should disable the watermark")
	}
}

func TestGenerate_TextPositionTop(t *testing.T) {
	top := domain.PositionTop
	svc := newTestService(&fakeCaptioner{captions: validCaptions()}, &fakeModerator{})

	opts := svc.renderOptions(&domain.GenerateRequest{TextPosition: &top})
	if opts.Position != domain.PositionTop {
		t.Errorf("expected top position, got %q", opts.Position)
	}

	opts = svc.renderOptions(&domain.GenerateRequest{})
	if opts.Position != domain.PositionBottom {
		t.Errorf("default position should be bottom, got %q", opts.Position)
	}
}
