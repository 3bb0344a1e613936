package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AI_MODELS", "")
	t.Setenv("AI_REQUIRE_USER_KEY", "")

	cfg := Load()
	assert.Equal(t, "gemini", cfg.Ai.Provider)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}, cfg.Ai.Models)
	assert.Equal(t, "gemini-2.5-flash", cfg.Ai.DefaultModel())
	assert.True(t, cfg.Ai.RequireUserKey)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AI_MODELS", " model-a, ,model-b ")
	t.Setenv("AI_REQUIRE_USER_KEY", "false")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("AI_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("GO_ENV", "production")

	cfg := Load()
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.Ai.Models)
	assert.False(t, cfg.Ai.RequireUserKey)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 0.5, cfg.Ai.RequestsPerSec)
	assert.True(t, cfg.App.IsProduction())
}

func TestGetEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_LIST", ",,")

	assert.Equal(t, 7, getEnvAsInt("X_INT", 7))
	assert.True(t, getEnvAsBool("X_BOOL", true))
	assert.Equal(t, []string{"d"}, getEnvAsList("X_LIST", []string{"d"}))
}
