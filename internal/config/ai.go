package config

import (
	"os"
	"strconv"
	"time"
)

type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderCLI       Provider = "claude-cli"
	ProviderMock      Provider = "mock"
)

// AIConfig holds the narrative generator settings.
type AIConfig struct {
	Provider    Provider `json:"provider"`
	APIKey      string   `json:"-"` // Never serialize
	Model       string   `json:"model"`
	CLIPath     string   `json:"cliPath,omitempty"`
	MaxTokens   int64    `json:"maxTokens"`
	Temperature float64  `json:"temperature"`
	TimeoutMS   int      `json:"timeoutMs"`
	// MaxAttempts bounds calls per narrative. 1 means no retry.
	MaxAttempts int `json:"maxAttempts"`
}

// LoadAIConfig reads the generator configuration from the environment.
func LoadAIConfig() *AIConfig {
	cfg := &AIConfig{
		Provider:    ProviderAnthropic,
		APIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		Model:       GetEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		CLIPath:     GetEnv("CLAUDE_CLI_PATH", "claude"),
		MaxTokens:   int64(GetEnvInt("NARRATIVE_MAX_TOKENS", 1500)),
		Temperature: 0.5,
		TimeoutMS:   GetEnvInt("NARRATIVE_TIMEOUT_MS", 20000),
		MaxAttempts: GetEnvInt("NARRATIVE_MAX_ATTEMPTS", 1),
	}

	switch {
	case os.Getenv("USE_CLI_GENERATOR") == "true":
		cfg.Provider = ProviderCLI
	case os.Getenv("MOCK_GENERATOR") == "true":
		cfg.Provider = ProviderMock
	}
	return cfg
}

// Timeout is the bound on one narrative call, after which the fallback is used.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// IsEnabled returns true if the Anthropic API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetEnvInt returns a positive integer from the environment, or fallback.
func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
