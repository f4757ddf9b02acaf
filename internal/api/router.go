package api

import (
	"github.com/gin-gonic/gin"

	"meme-factory/internal/api/handler"
	"meme-factory/internal/api/middleware"
	"meme-factory/internal/config"
	"meme-factory/internal/ratelimit"
	"meme-factory/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	generator *service.GeneratorService,
	gate *service.SafetyGate,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.LLM.APIKey != "")
	generateHandler := handler.NewGenerateHandler(generator)
	moderateHandler := handler.NewModerateHandler(gate)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API routes
	apiGroup := r.Group("/api")
	{
		// The quota only guards the expensive generation path.
		apiGroup.POST("/generate", middleware.RateLimit(limiter), generateHandler.Generate)
		apiGroup.POST("/moderate", moderateHandler.Moderate)
	}

	return r
}
