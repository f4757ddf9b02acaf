package domain

// MaxTopicLength is the longest topic accepted by the generate endpoint.
const MaxTopicLength = 120

// MaxImageBytes is the largest decoded upload accepted (5MB).
const MaxImageBytes = 5 * 1024 * 1024

// GenerateRequest is the POST /api/generate body. Image is base64, optionally
// with a data-URL prefix.
type GenerateRequest struct {
	Image            string        `json:"image"`
	Topic            string        `json:"topic"`
	IncludeWatermark *bool         `json:"includeWatermark,omitempty"`
	TextPosition     *TextPosition `json:"textPosition,omitempty"`
}

// GenerateResponse is the success envelope for POST /api/generate.
type GenerateResponse struct {
	Success        bool   `json:"success"`
	Memes          []Meme `json:"memes"`
	CollageURL     string `json:"collageUrl"`
	GenerationTime int64  `json:"generationTime"`
}

// ModerateRequest is the POST /api/moderate body.
type ModerateRequest struct {
	Text string `json:"text"`
}
