package config

import (
	"fmt"
	"os"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken    string
	DatabaseURL      string
	LogLevel         string
	Environment      string
	HTTPAddr         string
	AllowedOrigins   []string
	DashboardBaseURL string
	Timezone         string
	CronSpecFinalize string // Monday 00:00, finalize the week that just ended
	CronSpecNotify   string // Monday 06:00, push the finalized schedule
	CronSpecReminder string // Friday 10:00, remind about next week's input
	CredentialsTTL   time.Duration // how long ADMIN_TELEGRAM_ID is cached before it is re-read
	HistoryStartWeek string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	cfg.DashboardBaseURL = os.Getenv("DASHBOARD_BASE_URL")
	cfg.Timezone = getEnv("TIMEZONE", "Asia/Tokyo")

	cfg.CronSpecFinalize = getEnv("CRON_SPEC_FINALIZE", "0 0 * * 1")
	cfg.CronSpecNotify = getEnv("CRON_SPEC_NOTIFY", "0 6 * * 1")
	cfg.CronSpecReminder = getEnv("CRON_SPEC_REMINDER", "0 10 * * 5")

	cfg.CredentialsTTL, err = time.ParseDuration(getEnv("CREDENTIALS_TTL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CREDENTIALS_TTL: %w", err)
	}

	cfg.HistoryStartWeek = os.Getenv("HISTORY_START_WEEK")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping empty items.
func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
