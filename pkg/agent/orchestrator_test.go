package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/redact"
	"github.com/codeagent-run/codeagent/pkg/tools"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// fakeTestRunner always reports a fixed failing/passing result regardless of
// the path asked for, enough to exercise run_project_tests budget
// bookkeeping without a real sandboxed execution path.
type fakeTestRunner struct {
	passed bool
}

func (f fakeTestRunner) RunTests(context.Context, tools.VFSView, string, string, time.Duration) (*tools.TestRunResult, error) {
	return &tools.TestRunResult{Passed: f.passed, Output: "boom", ExitCode: 1}, nil
}

func newOrchestratorExecutorWithTests(disk stagingDisk) *tools.Executor {
	v := vfs.New(disk, stagingBackups{})
	return tools.New(tools.Config{ProjectDir: "/project", VFS: v, Disk: disk, Tests: fakeTestRunner{passed: false}})
}

type fakeProgress struct {
	mu           sync.Mutex
	phases       []Phase
	toolCalls    []ToolCallRecord
	instructions []PipelineInstruction
}

func (p *fakeProgress) PublishPhase(_ context.Context, _ string, phase Phase, _ string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = append(p.phases, phase)
}
func (p *fakeProgress) PublishToolCall(_ context.Context, _ string, rec ToolCallRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toolCalls = append(p.toolCalls, rec)
}
func (p *fakeProgress) PublishInstruction(_ context.Context, _ string, instr PipelineInstruction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.instructions = append(p.instructions, instr)
}

func testRedactor() *redact.Service {
	return redact.NewService(config.NewToolServerRegistry(nil), nil)
}

// sequencedServer replies with one JSON body per call, in order, repeating
// the last body once the sequence is exhausted.
func sequencedServer(t *testing.T, bodies ...map[string]any) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	i := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		idx := i
		if idx >= len(bodies) {
			idx = len(bodies) - 1
		}
		i++
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(bodies[idx])
	}))
}

func toolCallBody(id, name, argsJSON string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{
				"finish_reason": "tool_calls",
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{
						{"id": id, "type": "function", "function": map[string]any{"name": name, "arguments": argsJSON}},
					},
				},
			},
		},
	}
}

func contentBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestRunOrchestratorReturnsInstructionWithoutTools(t *testing.T) {
	server := chatServer(t, "INSTRUCTION: add a docstring to target()")
	defer server.Close()
	d := testDispatcher(t, server, "orch-model")
	executor := newPrefilterExecutor(map[string]string{"a.py": "def target():\n    pass\n"})
	progress := &fakeProgress{}
	loop := feedback.NewLoopState()
	fc := feedback.New(testBudgets())

	instr, _, err := runOrchestrator(context.Background(), d, "orch-model", testBudgets(), executor, testRedactor(), fc, loop, progress, "sess-1", "seed prompt", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, instr)
	assert.Equal(t, "add a docstring to target()", instr.Instruction)
	require.Len(t, progress.instructions, 1)
}

func TestRunOrchestratorFollowsToolCallThenInstructs(t *testing.T) {
	server := sequencedServer(t,
		toolCallBody("call_1", "read_file", `{"file_path":"a.py"}`),
		contentBody("INSTRUCTION: rename target to target2"),
	)
	defer server.Close()
	d := testDispatcher(t, server, "orch-model")
	executor := newPrefilterExecutor(map[string]string{"a.py": "def target():\n    pass\n"})
	progress := &fakeProgress{}
	loop := feedback.NewLoopState()
	fc := feedback.New(testBudgets())

	instr, _, err := runOrchestrator(context.Background(), d, "orch-model", testBudgets(), executor, testRedactor(), fc, loop, progress, "sess-1", "seed prompt", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, instr)
	assert.Equal(t, "rename target to target2", instr.Instruction)
	require.Len(t, instr.ToolTrace, 1)
	assert.Equal(t, "read_file", instr.ToolTrace[0].Name)
	assert.Contains(t, instr.ToolTrace[0].Result, "def target")
}

func TestRunOrchestratorForcesFinalizationOnBudgetExhaustion(t *testing.T) {
	server := sequencedServer(t,
		toolCallBody("call_1", "read_file", `{"file_path":"a.py"}`),
	)
	defer server.Close()
	d := testDispatcher(t, server, "orch-model")
	executor := newPrefilterExecutor(map[string]string{"a.py": "def target():\n    pass\n"})
	progress := &fakeProgress{}
	loop := feedback.NewLoopState()
	budgets := testBudgets()
	budgets.MaxOrchestratorToolIterations = 1
	fc := feedback.New(budgets)

	instr, _, err := runOrchestrator(context.Background(), d, "orch-model", budgets, executor, testRedactor(), fc, loop, progress, "sess-1", "seed prompt", discardLogger())
	require.NoError(t, err)
	require.NotNil(t, instr)
	// forceFinalization's own Call reuses the same server, which keeps
	// returning the last scripted body (a tool call) once exhausted; since
	// that body has no INSTRUCTION marker, the raw content becomes the
	// fallback instruction text.
	assert.NotEmpty(t, instr.Instruction)
}

func TestRunOrchestratorTestBudgetExhaustionShortCircuits(t *testing.T) {
	server := sequencedServer(t,
		toolCallBody("call_1", "run_project_tests", `{"test_path":"t.py"}`),
	)
	defer server.Close()
	d := testDispatcher(t, server, "orch-model")

	disk := stagingDisk{files: map[string]string{}}
	executor := newOrchestratorExecutorWithTests(disk)
	progress := &fakeProgress{}
	loop := feedback.NewLoopState()
	budgets := testBudgets()
	budgets.MaxTestRunsPerSession = 1
	budgets.MaxOrchestratorToolIterations = 10
	fc := feedback.New(budgets)
	// Pre-exhaust the budget so the very first run_project_tests call trips it.
	loop.TestRunCount = budgets.MaxTestRunsPerSession

	_, _, err := runOrchestrator(context.Background(), d, "orch-model", budgets, executor, testRedactor(), fc, loop, progress, "sess-1", "seed prompt", discardLogger())
	require.Error(t, err)
	var budgetErr *errTestBudgetExhausted
	require.ErrorAs(t, err, &budgetErr)
}

func TestTestRunFailed(t *testing.T) {
	assert.True(t, testRunFailed(`<test_result status="failed" exit_code="1">`))
	assert.True(t, testRunFailed(`<test_result status="timed_out" exit_code="-1">`))
	assert.False(t, testRunFailed(`<test_result status="passed" exit_code="0">`))
}

func TestStringArgFromJSON(t *testing.T) {
	assert.Equal(t, "t.py", stringArgFromJSON(`{"test_path":"t.py"}`, "test_path"))
	assert.Equal(t, "", stringArgFromJSON(`not json`, "test_path"))
	assert.Equal(t, "", stringArgFromJSON(`{"other":"x"}`, "test_path"))
}

func TestExtractInstruction(t *testing.T) {
	instr, ok := extractInstruction("some thinking out loud\nINSTRUCTION: do the thing")
	require.True(t, ok)
	assert.Equal(t, "do the thing", instr.Instruction)

	_, ok = extractInstruction("no marker here")
	assert.False(t, ok)

	_, ok = extractInstruction("INSTRUCTION:   ")
	assert.False(t, ok)
}
