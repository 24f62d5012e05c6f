package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"E2EGEN_PROVIDER", "ANTHROPIC_API_KEY", "GEMINI_API_KEY",
		"E2EGEN_SETTINGS_SECRET", "E2EGEN_THRESHOLD", "E2EGEN_CONCURRENCY",
	} {
		t.Setenv(k, "")
	}
}

func TestApplyEnvOverrides_ProviderWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("E2EGEN_PROVIDER", " Gemini ")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestApplyEnvOverrides_KeyPicksProviderWhenUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-test")

	cfg := DefaultConfig()
	cfg.LLM.Provider = ""
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "gemini", cfg.LLM.Provider)

	// An explicit provider is not replaced by a key for another one.
	cfg = DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestApplyEnvOverrides_Numbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("E2EGEN_THRESHOLD", "0.9")
	t.Setenv("E2EGEN_CONCURRENCY", "8")
	t.Setenv("E2EGEN_SETTINGS_SECRET", "hunter2")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, 0.9, cfg.Selector.Threshold)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, "hunter2", cfg.Settings.Secret)
}

func TestApplyEnvOverrides_BadNumber(t *testing.T) {
	clearEnv(t)
	t.Setenv("E2EGEN_CONCURRENCY", "many")

	cfg := DefaultConfig()
	assert.Error(t, cfg.applyEnvOverrides())
}
