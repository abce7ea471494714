package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPPort     string
	Env          string
	DatabaseURL  string
	GeminiAPIKey string
	JWTSecret    string
	LogLevel     string
}

// Load reads configuration from environment variables.
// In development, it loads from a .env file if present.
//
// GEMINI_API_KEY is intentionally optional at startup: its absence must show
// up as a model-service failure on the first call, not as a crash.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		Env:          getEnv("ENV", "development"),
		DatabaseURL:  getEnv("DATABASE_URL", "sakura_core.db"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		JWTSecret:    getEnv("JWT_SECRET", "sakura-dev-secret"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Env == "production" && os.Getenv("JWT_SECRET") == "" {
		panic("JWT_SECRET is required in production")
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
