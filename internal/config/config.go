// Package config handles platform configuration
package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is built once at startup and read-only afterwards. It is passed by
// pointer into every component that needs it; there is no global lookup.
type Config struct {
	HTTPAddr  string
	StaticDir string

	OpenAIAPIKey string
	RealtimeURL  string
	Model        string
	Voice        string

	SampleRateIn  int // client microphone rate (Hz)
	SampleRateOut int // provider input rate (Hz)
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Debug("no .env file loaded", "error", err)
	}

	return &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8000"),
		StaticDir:     getEnv("STATIC_DIR", "frontend/static"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		RealtimeURL:   getEnv("REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		Model:         getEnv("REALTIME_MODEL", "gpt-4o-realtime-preview-2024-12-17"),
		Voice:         getEnv("REALTIME_VOICE", "alloy"),
		SampleRateIn:  getEnvInt("SAMPLE_RATE_IN", 48000),
		SampleRateOut: getEnvInt("SAMPLE_RATE_OUT", 24000),
	}
}

// HasCredential reports whether a provider credential is configured.
func (c *Config) HasCredential() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
