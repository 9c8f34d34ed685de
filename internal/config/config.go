// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultForecastTimeout bounds calls to the external forecast service.
const DefaultForecastTimeout = 30 * time.Second

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL        string
	Port               int
	LogLevel           string
	LogHashSalt        string
	ForecastServiceURL string
	ForecastTimeout    time.Duration
	CORSAllowedOrigins []string

	// Optional Telegram notifications. Both must be set to enable them.
	TelegramBotToken string
	TelegramChatID   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		LogHashSalt:        os.Getenv("LOG_HASH_SALT"),
		ForecastServiceURL: os.Getenv("FORECAST_SERVICE_URL"),
		ForecastTimeout:    DefaultForecastTimeout,
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:     os.Getenv("TELEGRAM_CHAT_ID"),
	}

	cfg.Port = 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p <= 65535 {
			cfg.Port = p
		}
	}

	if secStr := os.Getenv("FORECAST_TIMEOUT_SECONDS"); secStr != "" {
		if s, err := strconv.Atoi(secStr); err == nil && s > 0 {
			cfg.ForecastTimeout = time.Duration(s) * time.Second
		}
	}

	originsStr := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsStr != "" {
		for origin := range strings.SplitSeq(originsStr, ",") {
			origin = strings.TrimSpace(origin)
			if origin == "" {
				continue
			}
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.LogHashSalt == "" {
		errs = append(errs, "LOG_HASH_SALT is required")
	} else if len(c.LogHashSalt) < 32 {
		errs = append(errs, "LOG_HASH_SALT must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
