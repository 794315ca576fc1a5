// Package llm is the request/response contract with external language-model providers.
// Every failure surfaces as a *ProviderError so callers can fall back uniformly.
package llm

import (
	"context"
	"time"

	"github.com/ppiankov/leadradar/internal/model"
)

// DefaultTimeout bounds every provider call
const DefaultTimeout = 20 * time.Second

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one system+user prompt pair and returns the model's message content
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is a single-turn completion request
type ChatRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int

	// JSONMode asks the provider for a strict JSON object where supported
	JSONMode bool
}

// ChatResponse is the provider's reply
type ChatResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for a single call; zero means DefaultTimeout
	Timeout time.Duration

	MaxTokens   int
	Temperature float64

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts model.AIConfig to llm.Config
func ConfigFromModel(ai model.AIConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Provider:    ai.Provider,
		Model:       ai.Model,
		APIKey:      ai.APIKey,
		BaseURL:     ai.BaseURL,
		Timeout:     ai.Timeout,
		MaxTokens:   ai.MaxTokens,
		Temperature: ai.Temperature,
		HTTPProxy:   httpCfg.HTTPProxy,
		HTTPSProxy:  httpCfg.HTTPSProxy,
		NoProxy:     httpCfg.NoProxy,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c Config) maxTokens(req ChatRequest) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1000
}

func (c Config) model(req ChatRequest, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}
