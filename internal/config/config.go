package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"campaignintel/internal/errors"
)

// Narrative providers
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderTemplate = "template"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Narrative NarrativeConfig
	Server    ServerConfig
	Engine    EngineConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings. An empty URL runs
// without a record store; only the overrides file is then known.
type DatabaseConfig struct {
	URL string
}

// NarrativeConfig holds generative-provider settings
type NarrativeConfig struct {
	Provider     string
	OpenAIKey    string
	OpenAIModel  string
	OpenAIURL    string
	GeminiKey    string
	GeminiModel  string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string // gin dashboard server
	APIPort string // chi JSON API
	GinMode string
}

// EngineConfig holds synthesis and resolution settings
type EngineConfig struct {
	PortfolioWorkers int
	OverridesFile    string
	WeightsFile      string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Server:   *loadServerConfig(),
		Engine:   *loadEngineConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	narrative, err := loadNarrativeConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load narrative configuration")
	}
	config.Narrative = *narrative

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadNarrativeConfig() (*NarrativeConfig, error) {
	cfg := &NarrativeConfig{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:  getEnvOrDefault("LLM_MODEL", "gpt-4.1-mini"),
		OpenAIURL:    getEnvOrDefault("OPENAI_BASE_URL", ""),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxTokens:    getEnvIntOrDefault("MAX_TOKENS", 1200),
		Temperature:  getEnvFloatOrDefault("TEMPERATURE", 0.4),
		Timeout:      getEnvDurationOrDefault("NARRATIVE_TIMEOUT", 20*time.Second),
		Retries:      getEnvIntOrDefault("NARRATIVE_RETRIES", 3),
		RetryBackoff: getEnvDurationOrDefault("NARRATIVE_RETRY_BACKOFF", 500*time.Millisecond),
		CacheTTL:     getEnvDurationOrDefault("NARRATIVE_CACHE_TTL", time.Hour),
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("NARRATIVE_PROVIDER")))
	if provider == "" {
		switch {
		case cfg.OpenAIKey != "":
			provider = ProviderOpenAI
		case cfg.GeminiKey != "":
			provider = ProviderGemini
		default:
			provider = ProviderTemplate
		}
	}
	cfg.Provider = provider

	switch provider {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, errors.ConfigInvalid("OPENAI_API_KEY is required for the openai narrative provider")
		}
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, errors.ConfigInvalid("GEMINI_API_KEY is required for the gemini narrative provider")
		}
	case ProviderTemplate:
	default:
		return nil, errors.ConfigInvalid(fmt.Sprintf("unknown NARRATIVE_PROVIDER %q", provider))
	}
	return cfg, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		APIPort: getEnvOrDefault("API_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadEngineConfig() *EngineConfig {
	return &EngineConfig{
		PortfolioWorkers: getEnvIntOrDefault("PORTFOLIO_WORKERS", 8),
		OverridesFile:    getEnvOrDefault("OVERRIDES_FILE", ""),
		WeightsFile:      getEnvOrDefault("WEIGHTS_FILE", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Engine.PortfolioWorkers < 1 {
		return errors.ConfigInvalid("PORTFOLIO_WORKERS must be at least 1")
	}
	if config.Narrative.Retries < 1 {
		return errors.ConfigInvalid("NARRATIVE_RETRIES must be at least 1")
	}
	if config.Narrative.Timeout <= 0 {
		return errors.ConfigInvalid("NARRATIVE_TIMEOUT must be positive")
	}
	if config.Server.Port == config.Server.APIPort {
		return errors.ConfigInvalid("PORT and API_PORT must differ")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
