package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
)

func testBudgets() config.Budgets {
	b := config.DefaultBudgets()
	b.GeneratorRetryDelaySec = 0 // keep retry tests fast
	return b
}

func TestGenerateParsesCodeBlocks(t *testing.T) {
	server := chatServer(t, "FILE: a.py\nMODE: APPEND_FILE\n```\nprint('hi')\n```\n")
	defer server.Close()
	d := testDispatcher(t, server, "gen-model")

	blocks, err := generate(context.Background(), d, "gen-model", testBudgets(), &PipelineInstruction{Instruction: "add a print"})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a.py", blocks[0].FilePath)
}

func TestGenerateRetriesOnTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"try again"}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"stop","message":{"role":"assistant","content":"FILE: a.py\nMODE: APPEND_FILE\n` + "```" + `\nx = 1\n` + "```" + `\n"}}]}`))
	}))
	defer server.Close()
	models := config.NewModelRegistry(map[string]*config.ModelConfig{
		"gen-model": {Type: config.ProviderDeepSeek, Model: "gen-model", BaseURL: server.URL},
	})
	d := llm.NewDispatcher(models, config.DispatchDefaults{
		MaxConcurrentRequests: 2,
		GeneralMaxAttempts:    3,
		CallTimeoutSec:        5,
	}, nil)

	blocks, err := generate(context.Background(), d, "gen-model", testBudgets(), &PipelineInstruction{Instruction: "add a line"})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
}

func TestGenerateFatalErrorDoesNotRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()
	d := testDispatcher(t, server, "gen-model")

	_, err := generate(context.Background(), d, "gen-model", testBudgets(), &PipelineInstruction{Instruction: "add a line"})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestGenerateProseWithNoHeaderYieldsNoBlocks(t *testing.T) {
	server := chatServer(t, "I decided not to follow the format today.")
	defer server.Close()
	d := testDispatcher(t, server, "gen-model")

	blocks, err := generate(context.Background(), d, "gen-model", testBudgets(), &PipelineInstruction{Instruction: "add a line"})
	require.NoError(t, err) // prose with no FILE: header is simply ignored by ParseAll
	assert.Empty(t, blocks)
}

func TestGenerateInvalidBlockFails(t *testing.T) {
	// REPLACE_METHOD requires TARGET_CLASS and TARGET_METHOD; omitting both
	// must surface as a generator error rather than reach staging.
	server := chatServer(t, "FILE: a.py\nMODE: REPLACE_METHOD\n```\ndef m(self): pass\n```\n")
	defer server.Close()
	d := testDispatcher(t, server, "gen-model")

	_, err := generate(context.Background(), d, "gen-model", testBudgets(), &PipelineInstruction{Instruction: "fix method"})
	require.Error(t, err)
}
