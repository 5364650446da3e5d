package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, "ws://localhost:8080/ws", cfg.WebSocket.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.Reconnect.BaseDelay)
	assert.Equal(t, 3000*time.Millisecond, cfg.Reconnect.MaxDelay)
	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.True(t, cfg.Archive.Enabled)
	assert.False(t, cfg.Cue.Enabled)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("WS_URL", "wss://push.example.com/ws")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "7")
	t.Setenv("RECONNECT_BASE_DELAY", "250ms")
	t.Setenv("ARCHIVE_ENABLED", "false")
	t.Setenv("CUE_PER_SECOND", "1.5")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "wss://push.example.com/ws", cfg.WebSocket.URL)
	assert.Equal(t, 7, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Reconnect.BaseDelay)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, 1.5, cfg.Cue.PerSecond)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoadConfigIgnoresInvalidValues(t *testing.T) {
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "many")
	t.Setenv("API_TIMEOUT", "pronto")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
}
