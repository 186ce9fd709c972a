package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "IDENTITY_GATEWAY_URL", "IDENTITY_SERVICE_KEY",
		"HEARTBEAT_INTERVAL_MS", "CONNECTION_TIMEOUT_MS", "ALLOWED_ORIGINS",
		"DISCONNECT_GRACE_MS", "IDLE_ROOM_MAX_MS", "WORD_SELECTION_TIMEOUT_MS",
		"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD", "LOG_LEVEL", "GO_ENV",
		"RATE_LIMIT_CHAT", "RATE_LIMIT_DRAW_OPS", "RATE_LIMIT_CONNECTION",
	} {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 25000, cfg.HeartbeatIntervalMs)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.RedisEnabled)
}

func TestLoadInvalidPort(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "not-a-port")
	defer os.Unsetenv("PORT")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadRedisEnabledDefaultsAddr(t *testing.T) {
	clearEnv(t)
	os.Setenv("REDIS_ENABLED", "true")
	defer os.Unsetenv("REDIS_ENABLED")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "", redactSecret(""))
	assert.Equal(t, "***", redactSecret("short"))
	assert.Equal(t, "abcdefgh***", redactSecret("abcdefghijklmnop"))
}
