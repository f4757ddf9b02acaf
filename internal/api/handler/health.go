package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	llmConfigured bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(llmConfigured bool) *HealthHandler {
	return &HealthHandler{llmConfigured: llmConfigured}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        "meme-factory",
		"llm_configured": h.llmConfigured,
	})
}
