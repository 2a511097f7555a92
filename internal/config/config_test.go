package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

var envKeys = []string{
	"TICKTICK_API_KEY", "TICKTICK_API_BASE", "TICKTICK_TOKEN_FILE",
	"TICKTICK_CLIENT_ID", "TICKTICK_CLIENT_SECRET", "TICKTICK_REDIRECT_URL",
	"TICKTICK_HTTP_TIMEOUT", "TICKTICK_FANOUT_LIMIT", "TICKTICK_DEFAULT_TIMEZONE",
	"MCP_TRANSPORT", "MCP_HTTP_ADDR", "MCP_BASE_URL", "MCP_READ_ONLY",
	"METRICS_ENABLED", "METRICS_ADDR", "LOG_FORMAT", "DEBUG",
}

// clearEnv blanks every variable Load reads; t.Setenv restores them.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, ticktick.DefaultBaseURL, cfg.APIBase)
	assert.Equal(t, ticktick.DefaultTimezone, cfg.DefaultTimezone)
	assert.Equal(t, ticktick.DefaultTimeout, cfg.HTTPTimeout)
	assert.Equal(t, ticktick.DefaultFanOutLimit, cfg.FanOutLimit)
	assert.Equal(t, TransportSSE, cfg.Transport)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.True(t, cfg.MetricsEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKTICK_API_KEY", "secret")
	t.Setenv("TICKTICK_HTTP_TIMEOUT", "5s")
	t.Setenv("TICKTICK_FANOUT_LIMIT", "8")
	t.Setenv("TICKTICK_DEFAULT_TIMEZONE", "Europe/Berlin")
	t.Setenv("MCP_TRANSPORT", "stdio")
	t.Setenv("MCP_READ_ONLY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 8, cfg.FanOutLimit)
	assert.Equal(t, "Europe/Berlin", cfg.DefaultTimezone)
	assert.Equal(t, TransportStdio, cfg.Transport)
	assert.True(t, cfg.ReadOnly)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKTICK_HTTP_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TICKTICK_FANOUT_LIMIT", "many")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKTICK_API_BASE", "https://from-process.example")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TICKTICK_API_KEY=from-file\nTICKTICK_API_BASE=https://from-file.example\n"), 0600))
	// godotenv never overrides a variable that exists, even when empty.
	// clearEnv's t.Setenv restores the original value afterwards.
	require.NoError(t, os.Unsetenv("TICKTICK_API_KEY"))

	cfg, err := Load(envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "https://from-process.example", cfg.APIBase)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Transport:       TransportSSE,
		HTTPTimeout:     time.Second,
		FanOutLimit:     1,
		DefaultTimezone: "UTC",
		LogFormat:       "json",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"transport", func(c *Config) { c.Transport = "websocket" }},
		{"timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"fan-out", func(c *Config) { c.FanOutLimit = 0 }},
		{"timezone", func(c *Config) { c.DefaultTimezone = "Nowhere/Land" }},
		{"log format", func(c *Config) { c.LogFormat = "yaml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
