package render

import "strings"

const (
	// maxLines caps caption text at three rendered lines; overflow is dropped.
	maxLines = 3

	// usableWidthRatio is the fraction of the image width text may occupy.
	usableWidthRatio = 0.92

	// glyphWidthRatio approximates the average glyph width of the caption
	// face relative to its point size.
	glyphWidthRatio = 0.6

	// lineHeightRatio spaces lines relative to the font size.
	lineHeightRatio = 1.1

	// fontStepDown is how much the font size shrinks per re-wrap attempt.
	fontStepDown = 2
)

// TextLayout is the ephemeral result of fitting caption text to an image
// width. It is recomputed from scratch for every render call.
type TextLayout struct {
	FontSize    int
	Lines       []string
	TotalHeight float64
}

// LineHeight returns the vertical advance between baselines.
func (t TextLayout) LineHeight() float64 {
	return float64(t.FontSize) * lineHeightRatio
}

// Layout wraps text into at most three lines and picks the largest font size,
// starting at width/12 and backing off to a hard floor of width/20, at which
// the wrapped text fits. A pure function: identical inputs always produce
// identical output.
func Layout(text string, imageWidth int) TextLayout {
	maxWidth := float64(imageWidth) * usableWidthRatio
	fontSize := imageWidth / 12
	minFontSize := imageWidth / 20

	lines := wrapText(text, maxWidth, fontSize)
	for len(lines) > maxLines && fontSize-fontStepDown >= minFontSize {
		fontSize -= fontStepDown
		lines = wrapText(text, maxWidth, fontSize)
	}

	// The floor is hard: if the text still overflows, keep the first three
	// lines and drop the rest.
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}

	return TextLayout{
		FontSize:    fontSize,
		Lines:       lines,
		TotalHeight: float64(len(lines)) * float64(fontSize) * lineHeightRatio,
	}
}

// wrapText greedily packs whitespace-separated words into lines whose
// estimated rendered width stays within maxWidth. Words longer than a full
// line are kept whole on their own line.
func wrapText(text string, maxWidth float64, fontSize int) []string {
	words := strings.Fields(text)

	charWidth := float64(fontSize) * glyphWidthRatio
	maxCharsPerLine := 1
	if charWidth > 0 {
		if n := int(maxWidth / charWidth); n > 1 {
			maxCharsPerLine = n
		}
	}

	var lines []string
	var currentLine string

	for _, word := range words {
		testLine := word
		if currentLine != "" {
			testLine = currentLine + " " + word
		}

		if len([]rune(testLine)) <= maxCharsPerLine {
			currentLine = testLine
			continue
		}
		if currentLine != "" {
			lines = append(lines, currentLine)
		}
		currentLine = word
	}

	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}
