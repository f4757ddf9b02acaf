package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrInvalidCollageInput means the assembler was given a count other than
// three. There is no silent truncation or padding.
var ErrInvalidCollageInput = errors.New("collage requires exactly three images")

const (
	collageCount       = 3
	collageTargetWidth = 600
	collageGap         = 20
)

// AssembleCollage composites exactly three meme images side by side on a
// white canvas. Each input is resized to a common 600px width with its own
// aspect ratio preserved; the canvas height is the tallest resized image and
// shorter images are vertically centered. Placement order matches input
// order, index 0 leftmost.
func AssembleCollage(images []image.Image) (image.Image, error) {
	if len(images) != collageCount {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCollageInput, len(images))
	}

	resized := make([]image.Image, collageCount)
	maxHeight := 0
	for i, img := range images {
		// Width 0 on the height axis keeps the aspect ratio.
		r := imaging.Resize(img, collageTargetWidth, 0, imaging.Lanczos)
		resized[i] = r
		if h := r.Bounds().Dy(); h > maxHeight {
			maxHeight = h
		}
	}

	canvasWidth := collageCount*collageTargetWidth + (collageCount-1)*collageGap
	canvas := imaging.New(canvasWidth, maxHeight, color.White)

	for i, img := range resized {
		x := i * (collageTargetWidth + collageGap)
		y := (maxHeight - img.Bounds().Dy()) / 2
		canvas = imaging.Paste(canvas, img, image.Pt(x, y))
	}

	return canvas, nil
}
