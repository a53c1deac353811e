package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/config"
)

func newTestDispatcher(t *testing.T, server *httptest.Server) *Dispatcher {
	t.Helper()
	models := config.NewModelRegistry(map[string]*config.ModelConfig{
		"test-model": {
			Type:    config.ProviderDeepSeek,
			Model:   "test-model",
			BaseURL: server.URL,
		},
	})
	return NewDispatcher(models, config.DispatchDefaults{
		MaxConcurrentRequests: 2,
		GeneralMaxAttempts:    3,
		CallTimeoutSec:        5,
	}, nil)
}

func TestDispatcherCallSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": "hello there"},
				},
			},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
		})
	}))
	defer server.Close()

	d := newTestDispatcher(t, server)
	resp, err := d.Call(context.Background(), "test-model", []Message{{Role: RoleUser, Content: "hi"}}, CallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Message.Content)
	assert.Equal(t, 12, resp.Usage.TotalTokens)
}

func TestDispatcherCallUnknownModel(t *testing.T) {
	d := newTestDispatcher(t, httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	_, err := d.Call(context.Background(), "does-not-exist", nil, CallOptions{})
	assert.Error(t, err)
}

func TestDispatcherCallFatalDoesNotRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	d := newTestDispatcher(t, server)
	_, err := d.Call(context.Background(), "test-model", nil, CallOptions{})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDispatcherCallWithTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"role": "assistant",
						"tool_calls": []map[string]any{
							{"id": "call_1", "type": "function", "function": map[string]any{"name": "read_file", "arguments": `{"path":"a.py"}`}},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	d := newTestDispatcher(t, server)
	resp, err := d.CallWithTools(context.Background(), "test-model", []Message{{Role: RoleUser, Content: "hi"}},
		[]ToolDef{{Name: "read_file", Description: "reads a file"}}, CallOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "read_file", resp.Message.ToolCalls[0].Name)
}
