package main

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SEARCH_PROVIDER", "SERPER_API_KEY", "GOOGLE_API_KEY", "GOOGLE_SEARCH_ENGINE_ID",
		"BRIEF_PROVIDER", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"GEMINI_API_KEY", "GEMINI_MODEL", "RESULT_COUNT", "FRAGMENT_LIMIT",
		"FETCH_TIMEOUT", "RENDER_JS", "LOG_LEVEL", "ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "serper", cfg.SearchProvider)
	assert.Equal(t, "openai", cfg.BriefProvider)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 5, cfg.ResultCount)
	assert.Equal(t, 10, cfg.FragmentLimit)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.RenderJS)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.True(t, cfg.BriefsEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SEARCH_PROVIDER", "Google")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("SERPER_API_KEY", "s-key")
	t.Setenv("BRIEF_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("RESULT_COUNT", "8")
	t.Setenv("FRAGMENT_LIMIT", "0")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("RENDER_JS", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "google", cfg.SearchProvider)
	assert.Equal(t, "g-key", cfg.SearchKey())
	assert.Equal(t, "gem-key", cfg.LLMKey())
	assert.Equal(t, 8, cfg.ResultCount)
	assert.Equal(t, 0, cfg.FragmentLimit)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.RenderJS)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]struct {
		key, value, want string
	}{
		"bad count":   {"RESULT_COUNT", "five", "RESULT_COUNT"},
		"negative":    {"FRAGMENT_LIMIT", "-1", "FRAGMENT_LIMIT"},
		"bad timeout": {"FETCH_TIMEOUT", "soon", "FETCH_TIMEOUT"},
		"bad bool":    {"RENDER_JS", "maybe", "RENDER_JS"},
		"bad level":   {"LOG_LEVEL", "loud", "LOG_LEVEL"},
		"bad search":  {"SEARCH_PROVIDER", "bing", "SEARCH_PROVIDER"},
		"bad llm":     {"BRIEF_PROVIDER", "claude", "BRIEF_PROVIDER"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestConfigKeysForDisabledBriefs(t *testing.T) {
	cfg := &Config{BriefProvider: "none", OpenAIAPIKey: "sk"}
	assert.False(t, cfg.BriefsEnabled())
	assert.Empty(t, cfg.LLMKey())
}
