package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultExpiryThreshold = 2 * time.Hour
	DefaultPostponeWindow  = 2 * time.Hour
	DefaultPollInterval    = 15 * time.Minute
)

type Config struct {
	TelegramToken   string
	BitrixWebhook   string
	ManagerChatID   int64
	ExpiryThreshold time.Duration
	PostponeWindow  time.Duration
	PollInterval    time.Duration
	AlertsSQLiteDSN string
	HealthAddr      string
}

// Load reads configuration from the environment. Token, webhook URL and
// manager chat id are required; everything else has defaults. Unparsable
// optional values fall back to their default with a warning on logger.
func Load(logger *slog.Logger) (*Config, error) {
	cfg := &Config{
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		BitrixWebhook:   os.Getenv("BITRIX_WEBHOOK"),
		ExpiryThreshold: durationEnv(logger, "EXPIRY_THRESHOLD", DefaultExpiryThreshold),
		PostponeWindow:  durationEnv(logger, "POSTPONE_WINDOW", DefaultPostponeWindow),
		PollInterval:    durationEnv(logger, "POLL_INTERVAL", DefaultPollInterval),
		AlertsSQLiteDSN: envOr("ALERTS_SQLITE_DSN", "alerts.db"),
		HealthAddr:      envOr("HEALTH_ADDR", ":8080"),
	}
	if cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN is not set")
	}
	if cfg.BitrixWebhook == "" {
		return nil, errors.New("BITRIX_WEBHOOK is not set")
	}
	raw := os.Getenv("MANAGER_CHAT_ID")
	if raw == "" {
		return nil, errors.New("MANAGER_CHAT_ID is not set")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MANAGER_CHAT_ID: %w", err)
	}
	cfg.ManagerChatID = id
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(logger *slog.Logger, key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}
