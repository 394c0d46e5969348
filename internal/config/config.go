package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Storage: the spreadsheet service is the default backend; setting
	// DATABASE_URL switches to Postgres instead.
	SheetsAPIURL   string
	SheetsAPIToken string
	DatabaseURL    string

	TelegramToken         string
	TelegramWebhookURL    string
	TelegramWebhookSecret string

	JWTSecret string

	OTPTTL        time.Duration
	OverdueAfter  time.Duration
	ExpireAfter   time.Duration
	SweepInterval time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnvOrDefault("PORT", "8080"),
		LogLevel:              getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:             getEnvOrDefault("LOG_FORMAT", "text"),
		SheetsAPIURL:          os.Getenv("SHEETS_API_URL"),
		SheetsAPIToken:        os.Getenv("SHEETS_API_TOKEN"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		TelegramWebhookURL:    os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramWebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}
	if cfg.SheetsAPIURL == "" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("either SHEETS_API_URL or DATABASE_URL must be set")
	}

	var err error
	if cfg.OTPTTL, err = getEnvDuration("OTP_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OverdueAfter, err = getEnvDuration("OVERDUE_AFTER", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ExpireAfter, err = getEnvDuration("EXPIRE_AFTER", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses an environment variable as a Go duration. Unset
// means the default; unparsable means a startup error.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
