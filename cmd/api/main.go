package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meme-factory/internal/api"
	"meme-factory/internal/config"
	"meme-factory/internal/domain"
	"meme-factory/internal/logger"
	"meme-factory/internal/ratelimit"
	"meme-factory/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, caption generation will fail")
	}

	llmTimeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second

	// Initialize services
	captionService := service.NewCaptionService(&service.CaptionConfig{
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: llmTimeout,
	})

	safetyGate := service.NewSafetyGate(&service.ModerationClientConfig{
		Model:   cfg.LLM.Model,
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: llmTimeout,
		Bypass:  cfg.Moderation.Bypass,
	})
	if cfg.Moderation.Bypass {
		logger.Warn("Content moderation is bypassed")
	}

	generatorService := service.NewGeneratorService(captionService, safetyGate, domain.Watermark{
		Enabled: cfg.Watermark.Enabled,
		Text:    cfg.Watermark.Text,
	})

	// Initialize rate limiter with its background sweep
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go limiter.Run(sweepCtx)

	// Setup router
	router := api.SetupRouter(generatorService, safetyGate, limiter, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting API server: port=%d, mode=%s, model=%s",
			cfg.Server.Port, cfg.Server.Mode, cfg.LLM.Model)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
