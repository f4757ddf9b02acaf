// Package render turns source images into captioned memes. Layout is a pure
// fitting step; Overlay and Collage do the pixel work with gg and imaging.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/go-oss/image/imageutil"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	_ "golang.org/x/image/webp"

	"meme-factory/internal/domain"
)

var (
	// ErrInvalidImage means the payload could not be decoded as an image.
	ErrInvalidImage = errors.New("invalid image data")
	// ErrRenderFailed wraps unexpected failures during drawing or encoding.
	ErrRenderFailed = errors.New("render failed")
)

const (
	// maxDimension bounds the longest edge of a rendered meme.
	maxDimension = 1600

	verticalPaddingRatio = 0.05
	outlineWidth         = 4

	watermarkSizeDivisor = 40
	watermarkInsetRatio  = 0.02
	watermarkOpacity     = 0.3
)

var (
	captionFont     *truetype.Font
	captionFontErr  error
	captionFontOnce sync.Once
)

func fontFace(points float64) (font.Face, error) {
	captionFontOnce.Do(func() {
		captionFont, captionFontErr = truetype.Parse(gobold.TTF)
	})
	if captionFontErr != nil {
		return nil, captionFontErr
	}
	return truetype.NewFace(captionFont, &truetype.Options{Size: points}), nil
}

// DecodeImage decodes raw bytes into an image. JPEG payloads have their EXIF
// segment stripped first so orientation or location metadata never reaches
// the output.
func DecodeImage(data []byte) (image.Image, error) {
	var reader = bytes.NewReader(data)

	if isJPEG(data) {
		clean, err := imageutil.RemoveExif(bytes.NewReader(data))
		if err == nil {
			img, _, decErr := image.Decode(clean)
			if decErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidImage, decErr)
			}
			return img, nil
		}
		// Fall back to the raw bytes when the segment scan fails.
		reader = bytes.NewReader(data)
	}

	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func isJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

// RenderMeme decodes the source image, scales it down so neither edge exceeds
// 1600px, and draws the caption in uppercase with a black outline under a
// white fill. Aspect ratio is always preserved; small images are never
// upscaled.
func RenderMeme(data []byte, caption string, opts domain.RenderOptions) (image.Image, error) {
	src, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		src = imaging.Fit(src, maxDimension, maxDimension, imaging.Lanczos)
	}

	dc := gg.NewContextForImage(src)
	width := dc.Width()
	height := dc.Height()

	layout := Layout(caption, width)
	if len(layout.Lines) > 0 {
		face, err := fontFace(float64(layout.FontSize))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		dc.SetFontFace(face)

		drawCaption(dc, layout, opts.Position, width, height)
	}

	if opts.Watermark.Enabled && opts.Watermark.Text != "" {
		if err := drawWatermark(dc, opts.Watermark.Text, width, height); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
	}

	return dc.Image(), nil
}

// drawCaption positions lines by baseline: bottom text puts the last line's
// baseline exactly at the padding boundary, top text hangs the first line
// below it.
func drawCaption(dc *gg.Context, layout TextLayout, position domain.TextPosition, width, height int) {
	padding := float64(height) * verticalPaddingRatio
	lineHeight := layout.LineHeight()
	lineCount := len(layout.Lines)

	centerX := float64(width) / 2
	for i, line := range layout.Lines {
		text := strings.ToUpper(line)
		var baseline float64
		if position == domain.PositionBottom {
			baseline = float64(height) - padding - lineHeight*float64(lineCount-1-i)
		} else {
			baseline = padding + float64(layout.FontSize) + lineHeight*float64(i)
		}
		drawOutlinedLine(dc, text, centerX, baseline)
	}
}

// drawOutlinedLine paints the black outline by stamping the text at every
// offset within outlineWidth, then paints the white fill on top.
func drawOutlinedLine(dc *gg.Context, text string, centerX, baseline float64) {
	w, _ := dc.MeasureString(text)
	x := centerX - w/2

	dc.SetRGB(0, 0, 0)
	for dy := -outlineWidth; dy <= outlineWidth; dy++ {
		for dx := -outlineWidth; dx <= outlineWidth; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawString(text, x+float64(dx), baseline+float64(dy))
		}
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawString(text, x, baseline)
}

// drawWatermark anchors translucent attribution text at the bottom-right
// corner, after the caption so it is never painted over.
func drawWatermark(dc *gg.Context, text string, width, height int) error {
	size := float64(width) / watermarkSizeDivisor
	face, err := fontFace(size)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)

	inset := float64(width) * watermarkInsetRatio
	dc.SetRGBA(1, 1, 1, watermarkOpacity)
	dc.DrawStringAnchored(text, float64(width)-inset, float64(height)-inset, 1, 1)
	return nil
}

// EncodePNG serializes a rendered image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}
