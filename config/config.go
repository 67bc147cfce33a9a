// Package config loads and validates process configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// Config holds everything the process needs, resolved once at startup.
type Config struct {
	// Telegram
	Token     string // bot token (required)
	ChannelID int64  // optional broadcast channel

	// Source page
	PageURL       string // required
	CheckInterval time.Duration

	// Storage: bucket wins when both are set
	Bucket  string
	DataDir string

	// Optional secondary WhatsApp channel; enabled when both
	// AuthToken and Recipient are present.
	WhatsAppAPIURL    string
	WhatsAppAuthToken string
	WhatsAppRecipient string
}

// Load reads configuration from environment variables. Missing mandatory
// values fail here, before any component starts.
func Load() (*Config, error) {
	cfg := &Config{
		Token:             os.Getenv("TELEGRAM_TOKEN"),
		PageURL:           os.Getenv("PAGE_URL"),
		CheckInterval:     time.Duration(getIntEnv("CHECK_INTERVAL", 10)) * time.Second,
		Bucket:            os.Getenv("STORAGE_BUCKET"),
		DataDir:           getEnv("DATA_DIR", "./data"),
		WhatsAppAPIURL:    os.Getenv("WHATSAPP_API_URL"),
		WhatsAppAuthToken: os.Getenv("WHATSAPP_AUTH_TOKEN"),
		WhatsAppRecipient: os.Getenv("WHATSAPP_RECIPIENT"),
	}

	if cfg.Token == "" {
		return nil, errors.New("missing required config: TELEGRAM_TOKEN")
	}
	if cfg.PageURL == "" {
		return nil, errors.New("missing required config: PAGE_URL")
	}
	if cfg.CheckInterval <= 0 {
		return nil, errors.New("CHECK_INTERVAL must be positive")
	}

	if raw := os.Getenv("TELEGRAM_CHANNEL_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.New("TELEGRAM_CHANNEL_ID must be a chat id number")
		}
		cfg.ChannelID = id
	}

	return cfg, nil
}

// WhatsAppEnabled reports whether the secondary channel is configured.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsAppAuthToken != "" && c.WhatsAppRecipient != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
