// Package llm provides the model configuration and client abstractions used to reach the
// generative-text provider.
package llm

import (
	"net/http"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for cheap, short generations
	TierLite ModelTier = "lite"
	// TierStandard is used by the assist actions
	TierStandard ModelTier = "standard"
	// TierAdvanced is for longer rewriting
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGeminiREST calls the generateContent endpoint directly over HTTP
	ProviderGeminiREST Provider = "gemini-rest"
	// ProviderGemini uses the Google Gemini Go SDK
	ProviderGemini Provider = "gemini"
)

// DefaultEndpoint is the base URL of the Gemini generative language API.
const DefaultEndpoint = "https://generativelanguage.googleapis.com"

// DefaultModel is the model used for every tier unless configured otherwise.
const DefaultModel = "gemini-2.0-flash"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Endpoint is the REST base URL. Ignored by the SDK provider.
	Endpoint string
	// HTTPClient is used by the REST provider. Nil means a client with RequestTimeout.
	HTTPClient *http.Client
	// RequestTimeout bounds a single REST call when HTTPClient is nil.
	RequestTimeout time.Duration
}

// DefaultConfig returns the default configuration (Gemini over REST)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGeminiREST,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.0-flash-lite",
			TierStandard: DefaultModel,
			TierAdvanced: DefaultModel,
		},
		Endpoint:       DefaultEndpoint,
		RequestTimeout: 30 * time.Second,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

// WithEndpoint returns a new Config pointing the REST provider at endpoint
func (c *Config) WithEndpoint(endpoint string) *Config {
	newConfig := *c
	newConfig.Endpoint = endpoint
	return &newConfig
}
