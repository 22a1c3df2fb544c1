package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultResultCount   = 5
	defaultFragmentLimit = 10
	maxResultCount       = 20
)

// Config holds settings read from the environment (and .env)
type Config struct {
	SearchProvider string
	SerperAPIKey   string
	GoogleAPIKey   string
	GoogleEngineID string

	BriefProvider string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	ResultCount   int
	FragmentLimit int
	FetchTimeout  time.Duration
	RenderJS      bool

	LogLevel log.Level
	Addr     string
}

// LoadConfig reads the configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SearchProvider: strings.ToLower(envOr("SEARCH_PROVIDER", "serper")),
		SerperAPIKey:   os.Getenv("SERPER_API_KEY"),
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		GoogleEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		BriefProvider:  strings.ToLower(envOr("BRIEF_PROVIDER", "openai")),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		Addr:           envOr("ADDR", ":8080"),
	}

	var err error
	if cfg.ResultCount, err = envInt("RESULT_COUNT", defaultResultCount); err != nil {
		return nil, err
	}
	if cfg.FragmentLimit, err = envInt("FRAGMENT_LIMIT", defaultFragmentLimit); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = envDuration("FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RenderJS, err = envBool("RENDER_JS", false); err != nil {
		return nil, err
	}

	cfg.LogLevel, err = log.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.SearchProvider {
	case "serper", "google":
	default:
		return nil, fmt.Errorf("SEARCH_PROVIDER: unknown provider %q", cfg.SearchProvider)
	}
	switch cfg.BriefProvider {
	case "openai", "gemini", "none":
	default:
		return nil, fmt.Errorf("BRIEF_PROVIDER: unknown provider %q", cfg.BriefProvider)
	}

	return cfg, nil
}

// SearchKey returns the configured key for the active search provider
func (c *Config) SearchKey() string {
	if c.SearchProvider == "google" {
		return c.GoogleAPIKey
	}
	return c.SerperAPIKey
}

// LLMKey returns the configured key for the active brief provider
func (c *Config) LLMKey() string {
	switch c.BriefProvider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	}
	return ""
}

// BriefsEnabled is false when BRIEF_PROVIDER=none
func (c *Config) BriefsEnabled() bool {
	return c.BriefProvider != "none"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
