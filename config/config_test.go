package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("PAGE_URL", "https://example.edu/notices")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.CheckInterval)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Zero(t, cfg.ChannelID)
	assert.False(t, cfg.WhatsAppEnabled())
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("PAGE_URL", "https://example.edu/notices")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_TOKEN")
}

func TestLoadMissingPageURL(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("PAGE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAGE_URL")
}

func TestLoadChannelID(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_CHANNEL_ID", "-1001234567890")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), cfg.ChannelID)
}

func TestLoadBadChannelID(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_CHANNEL_ID", "@mychannel")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadCheckInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_INTERVAL", "60")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.CheckInterval)
}

func TestWhatsAppEnabledNeedsBothValues(t *testing.T) {
	setRequired(t)
	t.Setenv("WHATSAPP_AUTH_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.WhatsAppEnabled())

	t.Setenv("WHATSAPP_RECIPIENT", "15551234567")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.WhatsAppEnabled())
}
