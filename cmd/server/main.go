package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vegasvip13/gemini-tts-1/internal/config"
	"github.com/vegasvip13/gemini-tts-1/internal/observability"
	"github.com/vegasvip13/gemini-tts-1/internal/pipeline"
	"github.com/vegasvip13/gemini-tts-1/internal/telegram"
	"github.com/vegasvip13/gemini-tts-1/internal/tts"
	"github.com/vegasvip13/gemini-tts-1/internal/webhook"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("model", cfg.GeminiModel).
		Str("voice", cfg.GeminiVoice).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("TTS webhook service starting")

	// Wire the pipeline: synthesis client -> WAV encoder -> delivery client
	synth := tts.NewGeminiClient(cfg)
	messenger := telegram.NewClient(cfg)
	pipe := pipeline.New(synth, messenger, logger)

	// Create HTTP server
	mux := http.NewServeMux()

	// Telegram webhook endpoint
	mux.HandleFunc("/webhook", webhook.Handler(pipe))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint: config-level checks only, no paid API calls
	checks := map[string]observability.HealthCheckFunc{
		"gemini": func(ctx context.Context) (bool, error) {
			if tts.NewGeminiClient(cfg) == nil {
				return false, fmt.Errorf("failed to create Gemini client")
			}
			return true, nil
		},
		"telegram": func(ctx context.Context) (bool, error) {
			if telegram.NewClient(cfg) == nil {
				return false, fmt.Errorf("failed to create Telegram client")
			}
			return true, nil
		},
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Read/write timeouts stay generous: a webhook request blocks until its
	// pipeline run finishes, and synthesis calls can be slow.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPTimeoutSeconds+30) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("http://localhost:%s/webhook", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
