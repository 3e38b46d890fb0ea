package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Empty(t, cfg.Auth.Token)

	assert.Equal(t, "auto", cfg.Routing.DefaultMode)
	assert.Equal(t, 1500, cfg.Routing.MaxLocalTokens)
	assert.Equal(t, 0.7, cfg.Routing.ConfidenceThreshold)

	assert.Equal(t, "http://localhost:11434", cfg.Local.BaseURL)
	assert.Equal(t, "llama3.2", cfg.Local.Model)
	assert.Equal(t, 30*time.Second, cfg.Local.Timeout)

	assert.Equal(t, "gpt-4o-mini", cfg.Cloud.Model)
	assert.Equal(t, 60*time.Second, cfg.Cloud.Timeout)

	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.LocalResetTimeout)
	assert.Equal(t, 60*time.Second, cfg.Breaker.CloudResetTimeout)

	assert.Equal(t, 50, cfg.Stats.HistorySize)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LFO_HOST", "0.0.0.0")
	t.Setenv("LFO_PORT", "9090")
	t.Setenv("LFO_AUTH_TOKEN", "hunter2")
	t.Setenv("LFO_LOCAL_URL", "http://runner:8000")
	t.Setenv("LFO_LOCAL_MODEL", "qwen2.5")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LFO_CLOUD_MODEL", "gpt-4o")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hunter2", cfg.Auth.Token)
	assert.Equal(t, "http://runner:8000", cfg.Local.BaseURL)
	assert.Equal(t, "qwen2.5", cfg.Local.Model)
	assert.Equal(t, "sk-test", cfg.Cloud.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Cloud.Model)
}

func TestLoadIgnoresMalformedPort(t *testing.T) {
	t.Setenv("LFO_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
