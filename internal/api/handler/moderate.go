package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meme-factory/internal/domain"
	"meme-factory/internal/service"
)

// ModerateHandler exposes the safety gate as a standalone endpoint so the UI
// can pre-check topics before uploading an image.
type ModerateHandler struct {
	gate *service.SafetyGate
}

// NewModerateHandler creates a new moderate handler
func NewModerateHandler(gate *service.SafetyGate) *ModerateHandler {
	return &ModerateHandler{gate: gate}
}

// Moderate handles POST /api/moderate
func (h *ModerateHandler) Moderate(c *gin.Context) {
	var req domain.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		derr := domain.NewError(domain.CodeInvalidInput, "text is required", false)
		c.JSON(http.StatusBadRequest, derr.Envelope())
		return
	}

	verdict := h.gate.Moderate(c.Request.Context(), req.Text)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"flagged":    verdict.Flagged,
		"safe":       verdict.Safe,
		"categories": verdict.Categories,
	})
}
