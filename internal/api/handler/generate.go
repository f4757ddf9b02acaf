package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meme-factory/internal/domain"
	"meme-factory/internal/service"
)

// GenerateHandler handles meme generation requests
type GenerateHandler struct {
	generator *service.GeneratorService
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator *service.GeneratorService) *GenerateHandler {
	return &GenerateHandler{generator: generator}
}

// Generate handles POST /api/generate
func (h *GenerateHandler) Generate(c *gin.Context) {
	var req domain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		derr := domain.NewError(domain.CodeInvalidInput, "request body must be valid JSON", false)
		c.JSON(http.StatusBadRequest, derr.Envelope())
		return
	}

	resp, err := h.generator.Generate(c.Request.Context(), &req)
	if err != nil {
		derr := domain.AsError(err)
		c.JSON(statusFor(derr.Code), derr.Envelope())
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusFor maps error codes onto HTTP status codes.
func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case domain.CodeGenerationFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
