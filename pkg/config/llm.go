package config

import (
	"fmt"
	"sync"
)

// LLMProviderType identifies the wire dialect a model id speaks.
// All of them are OpenAI-compatible chat/completions today; the type exists
// so provider-specific extras (reasoning effort, thinking budget) can be
// resolved without string-sniffing the model id.
type LLMProviderType string

const (
	ProviderOpenAI     LLMProviderType = "openai"
	ProviderDeepSeek   LLMProviderType = "deepseek"
	ProviderOpenRouter LLMProviderType = "openrouter"
	ProviderAnthropic  LLMProviderType = "anthropic"
	ProviderGemini     LLMProviderType = "gemini"
)

// IsGeminiFamily reports whether this provider needs the 1.5x rate-limit
// backoff multiplier called out in spec.md §4.1.
func (t LLMProviderType) IsGeminiFamily() bool { return t == ProviderGemini }

// ModelConfig resolves a model id to everything the Dispatch Layer needs to
// place a call: transport, credentials, and provider-specific extras.
type ModelConfig struct {
	// Type selects the wire dialect / rate-limit behavior (required).
	Type LLMProviderType `yaml:"type" validate:"required"`

	// Model is the provider-side model name sent in the request body (required).
	Model string `yaml:"model" validate:"required"`

	// BaseURL is the chat/completions endpoint root (required).
	BaseURL string `yaml:"base_url" validate:"required"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env,omitempty"`

	// ReasoningEffort, when set, is sent as a provider-specific extra and
	// suppresses the temperature field per spec.md §6.
	ReasoningEffort string `yaml:"reasoning_effort,omitempty"`

	// ExtendedThinkingBudget is a provider-specific token budget for
	// extended/native thinking; also suppresses temperature when set.
	ExtendedThinkingBudget int `yaml:"extended_thinking_budget,omitempty"`

	// CallerHeader, if set, is sent as an identifying header value required
	// by some gateways (spec.md §6).
	CallerHeader string `yaml:"caller_header,omitempty"`
}

// SuppressesTemperature reports whether provider-specific extras on this
// model require omitting temperature from the request body.
func (m *ModelConfig) SuppressesTemperature() bool {
	return m.ReasoningEffort != "" || m.ExtendedThinkingBudget > 0
}

// ModelRegistry stores model configurations in memory with thread-safe access.
type ModelRegistry struct {
	models map[string]*ModelConfig
	mu     sync.RWMutex
}

// NewModelRegistry creates a new model registry from a defensive copy of models.
func NewModelRegistry(models map[string]*ModelConfig) *ModelRegistry {
	copied := make(map[string]*ModelConfig, len(models))
	for k, v := range models {
		copied[k] = v
	}
	return &ModelRegistry{models: copied}
}

// Get retrieves a model configuration by id (thread-safe).
func (r *ModelRegistry) Get(modelID string) (*ModelConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.models[modelID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrLLMProviderNotFound, modelID)
	}
	return m, nil
}

// GetAll returns all model configurations (thread-safe, returns a copy).
func (r *ModelRegistry) GetAll() map[string]*ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*ModelConfig, len(r.models))
	for k, v := range r.models {
		result[k] = v
	}
	return result
}

// Has checks if a model id exists in the registry (thread-safe).
func (r *ModelRegistry) Has(modelID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.models[modelID]
	return exists
}

// Len returns the number of registered models (thread-safe).
func (r *ModelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
