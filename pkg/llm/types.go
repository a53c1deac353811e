// Package llm is the dispatch layer: it turns a model id plus a message
// history into a single HTTP round trip against an OpenAI-compatible chat
// completions endpoint, with bounded concurrency and per-model circuit
// breaking so one broken provider can't starve every other request.
package llm

import "encoding/json"

// Role mirrors the session package's MessageRole, kept distinct here so the
// dispatch layer has no compile-time dependency on session internals.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ReasoningPayload carries a provider's extended-thinking blob verbatim
// between turns. The dispatch layer never unmarshals it — providers that
// understand it (Anthropic extended thinking, Gemini thinking, DeepSeek
// reasoner) get it echoed back byte-for-byte; providers that don't just
// never receive it.
type ReasoningPayload json.RawMessage

// MarshalJSON implements json.Marshaler by passing the raw bytes through.
func (r ReasoningPayload) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler by storing the raw bytes as-is.
func (r *ReasoningPayload) UnmarshalJSON(data []byte) error {
	*r = append((*r)[0:0], data...)
	return nil
}

// Message is one turn in a conversation sent to or received from a model.
type Message struct {
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ToolCall       `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Reasoning ReasoningPayload `json:"reasoning,omitempty"`
}

// ToolDef describes a tool the model may call, in OpenAI function-calling
// shape (the shape every provider in the model registry speaks).
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a single invocation the model asked the caller to perform.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage reports token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is what a successful Call/CallWithTools returns.
type Response struct {
	Message    Message
	Usage      Usage
	StopReason string
}

// CallOptions tunes a single dispatch call. Zero value uses provider
// defaults: no explicit temperature override, no caller-supplied timeout.
type CallOptions struct {
	Temperature     *float64
	MaxTokens       int
	ReasoningEffort string
	Timeout         int // seconds; 0 uses pkg/config.DispatchDefaults.CallTimeoutSec
}

// ErrorClass is the outcome of classifying a dispatch failure.
type ErrorClass int

const (
	// ErrorFatal means the request itself is broken (bad model id, auth
	// failure, malformed payload) — retrying verbatim will fail again.
	ErrorFatal ErrorClass = iota
	// ErrorRateLimited means the provider is throttling; back off and retry
	// the same request.
	ErrorRateLimited
	// ErrorTransient means a network-level or 5xx failure; retry is safe.
	ErrorTransient
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorFatal:
		return "fatal"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorTransient:
		return "transient"
	default:
		return "unknown"
	}
}
