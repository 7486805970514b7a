package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the TTS webhook service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Telegram Bot API configuration
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// Gemini TTS API configuration
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel  string `envconfig:"GEMINI_TTS_MODEL" default:"gemini-2.5-flash-preview-tts"`
	GeminiVoice  string `envconfig:"GEMINI_TTS_VOICE" default:"Kore"` // Prebuilt voice name

	// Audio output configuration. Gemini returns raw 16-bit PCM at a fixed
	// rate for this request shape; these values mirror the provider contract
	// and are not derived from responses.
	AudioSampleRate int `envconfig:"AUDIO_SAMPLE_RATE" default:"24000"` // Hz
	AudioChannels   int `envconfig:"AUDIO_CHANNELS" default:"1"`        // Mono

	// Outbound HTTP configuration. Synthesis calls can be slow, so the
	// client timeout is deliberately generous; there is no internal retry.
	HTTPTimeoutSeconds int `envconfig:"HTTP_TIMEOUT_SECONDS" default:"120"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Validate required fields
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
