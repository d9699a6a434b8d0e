package config

import (
	"testing"
	"time"

	apperrors "campaignintel/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_URL", "OPENAI_API_KEY", "GEMINI_API_KEY", "NARRATIVE_PROVIDER",
		"NARRATIVE_TIMEOUT", "NARRATIVE_RETRIES", "NARRATIVE_CACHE_TTL",
		"PORT", "API_PORT", "PORTFOLIO_WORKERS", "LLM_MODEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderTemplate, cfg.Narrative.Provider)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.APIPort)
	assert.Equal(t, 8, cfg.Engine.PortfolioWorkers)
	assert.Equal(t, 3, cfg.Narrative.Retries)
	assert.Equal(t, time.Hour, cfg.Narrative.CacheTTL)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_ProviderFromKeys(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Narrative.Provider)

	t.Setenv("OPENAI_API_KEY", "o-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Narrative.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NARRATIVE_TIMEOUT", "5s")
	t.Setenv("NARRATIVE_CACHE_TTL", "10m")
	t.Setenv("PORTFOLIO_WORKERS", "3")
	t.Setenv("DATABASE_URL", " postgres://localhost/campaign ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Narrative.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Narrative.CacheTTL)
	assert.Equal(t, 3, cfg.Engine.PortfolioWorkers)
	assert.Equal(t, "postgres://localhost/campaign", cfg.Database.URL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"openai without key", map[string]string{"NARRATIVE_PROVIDER": "openai"}},
		{"gemini without key", map[string]string{"NARRATIVE_PROVIDER": "gemini"}},
		{"unknown provider", map[string]string{"NARRATIVE_PROVIDER": "oracle"}},
		{"zero workers", map[string]string{"PORTFOLIO_WORKERS": "0"}},
		{"zero retries", map[string]string{"NARRATIVE_RETRIES": "0"}},
		{"same ports", map[string]string{"PORT": "9000", "API_PORT": "9000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}
