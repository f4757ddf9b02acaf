// Package service contains the LLM clients and the per-request orchestration
// that sequences moderation, caption generation, rendering, and collage
// assembly.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"meme-factory/internal/domain"
	"meme-factory/internal/logger"
	"meme-factory/internal/render"
)

// CaptionGenerator produces three tone-tagged captions for a topic.
type CaptionGenerator interface {
	GenerateCaptions(ctx context.Context, topic string) ([]domain.Caption, error)
}

// Moderator classifies a single text as safe or flagged.
type Moderator interface {
	Moderate(ctx context.Context, text string) domain.ModerationVerdict
}

// GeneratorService is the per-request control flow: validate, moderate topic,
// generate captions, moderate captions, render all three in parallel,
// assemble the collage, respond.
type GeneratorService struct {
	captions  CaptionGenerator
	moderator Moderator
	watermark domain.Watermark
}

// NewGeneratorService wires the orchestrator. watermark is the server-side
// default; requests may opt out but cannot override the text.
func NewGeneratorService(captions CaptionGenerator, moderator Moderator, watermark domain.Watermark) *GeneratorService {
	return &GeneratorService{
		captions:  captions,
		moderator: moderator,
		watermark: watermark,
	}
}

// Generate runs the full pipeline for one request. Every failure returns a
// *domain.Error so the transport layer can map it onto a status code.
func (s *GeneratorService) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResponse, error) {
	start := time.Now()

	imageData, derr := s.validate(req)
	if derr != nil {
		return nil, derr
	}

	topic := strings.TrimSpace(req.Topic)

	if verdict := s.moderator.Moderate(ctx, topic); verdict.Flagged {
		logger.CtxInfo(ctx, "topic flagged by moderation: %v", verdict.Categories)
		return nil, domain.NewError(domain.CodeContentFlagged,
			"topic was flagged by content moderation", false)
	}

	captions, err := s.captions.GenerateCaptions(ctx, topic)
	if err != nil {
		logger.CtxError(ctx, "caption generation failed: %v", err)
		return nil, domain.NewError(domain.CodeGenerationFailed,
			"caption generation failed, please try again", true)
	}

	for _, c := range captions {
		if verdict := s.moderator.Moderate(ctx, c.Text); verdict.Flagged {
			logger.With(logger.Fields{logger.FieldTone: c.Tone}).
				Info(ctx, "generated caption flagged: categories=%v", verdict.Categories)
			return nil, domain.NewError(domain.CodeGeneratedContentFlagged,
				"generated captions were flagged, please try again", true)
		}
	}

	opts := s.renderOptions(req)

	renderStart := time.Now()
	images := make([]image.Image, len(captions))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range captions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := render.RenderMeme(imageData, c.Text, opts)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, render.ErrInvalidImage) {
			return nil, domain.NewError(domain.CodeInvalidImage,
				"uploaded image could not be decoded", false)
		}
		logger.CtxError(ctx, "render failed: %v", err)
		return nil, domain.NewError(domain.CodeGenerationFailed,
			"meme rendering failed, please try again", true)
	}
	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(renderStart).Milliseconds(),
	}).Debug(ctx, "rendered %d memes", len(images))

	collage, err := render.AssembleCollage(images)
	if err != nil {
		logger.CtxError(ctx, "collage assembly failed: %v", err)
		return nil, domain.NewError(domain.CodeGenerationFailed,
			"collage assembly failed, please try again", true)
	}

	memes := make([]domain.Meme, len(captions))
	for i, c := range captions {
		url, err := encodeDataURL(images[i])
		if err != nil {
			return nil, domain.NewError(domain.CodeGenerationFailed,
				"image encoding failed, please try again", true)
		}
		memes[i] = domain.Meme{
			ID:       uuid.NewString(),
			Tone:     c.Tone,
			Caption:  c.Text,
			ImageURL: url,
		}
	}

	collageURL, err := encodeDataURL(collage)
	if err != nil {
		return nil, domain.NewError(domain.CodeGenerationFailed,
			"image encoding failed, please try again", true)
	}

	return &domain.GenerateResponse{
		Success:        true,
		Memes:          memes,
		CollageURL:     collageURL,
		GenerationTime: time.Since(start).Milliseconds(),
	}, nil
}

// validate checks structural input constraints and returns the decoded image
// bytes. Order matters: presence, topic length, base64 shape, byte size.
func (s *GeneratorService) validate(req *domain.GenerateRequest) ([]byte, *domain.Error) {
	if req == nil || req.Image == "" || strings.TrimSpace(req.Topic) == "" {
		return nil, domain.NewError(domain.CodeInvalidInput,
			"image and topic are required", false)
	}

	if len([]rune(strings.TrimSpace(req.Topic))) > domain.MaxTopicLength {
		return nil, domain.NewError(domain.CodeTopicTooLong,
			"topic must be at most 120 characters", false)
	}

	payload := req.Image
	if strings.HasPrefix(payload, "data:") {
		comma := strings.Index(payload, ",")
		if comma == -1 {
			return nil, domain.NewError(domain.CodeInvalidImage,
				"malformed image data URL", false)
		}
		payload = payload[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.NewError(domain.CodeInvalidImage,
			"image must be valid base64", false)
	}

	if len(data) > domain.MaxImageBytes {
		return nil, domain.NewError(domain.CodeImageTooLarge,
			"image exceeds the 5MB limit", false)
	}

	return data, nil
}

func (s *GeneratorService) renderOptions(req *domain.GenerateRequest) domain.RenderOptions {
	position := domain.PositionBottom
	if req.TextPosition != nil && *req.TextPosition == domain.PositionTop {
		position = domain.PositionTop
	}

	watermark := s.watermark
	if req.IncludeWatermark != nil && !*req.IncludeWatermark {
		watermark.Enabled = false
	}

	return domain.RenderOptions{Position: position, Watermark: watermark}
}

func encodeDataURL(img image.Image) (string, error) {
	data, err := render.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
