package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/redact"
	"github.com/codeagent-run/codeagent/pkg/tools"
)

// errTestBudgetExhausted is returned by runOrchestrator when a
// run_project_tests tool call pushes the session's test-run budget over
// cfg.Budgets.MaxTestRunsPerSession (spec.md §4.6). It carries no
// PipelineInstruction — the pipeline treats it the same as any other
// Exhausted transition.
type errTestBudgetExhausted struct{ reason string }

func (e *errTestBudgetExhausted) Error() string { return e.reason }

// instructionMarker delimits the PipelineInstruction section in the
// orchestrator's final message, the text-based equivalent of the teacher's
// ReAct "Final Answer:" marker (pkg/agent/controller/react_parser.go).
const instructionMarker = "INSTRUCTION:"

const orchestratorSystemPromptTmpl = `You are the orchestrator for a code-modification session. You may call
tools to inspect the project before deciding what to change. When you are
ready to hand off to the code generator, end your response with a line
starting with %q followed by a concise, self-contained description of the
change to make. Do not include that marker until you are certain no more
investigation is needed.`

// runOrchestrator drives spec.md §4.7 step 4: an LLM tool-calling loop
// bounded by cfg.Budgets.MaxOrchestratorToolIterations, structurally the
// same shape as the teacher's ReActController.Run iteration loop
// (pkg/agent/controller/react.go) — call the model, act on what it asked
// for, append an observation, loop — but using native tool-calling
// (llm.CallWithTools) instead of ReAct's text-parsed actions, since
// pkg/llm.Dispatcher already speaks the OpenAI-compatible tool-call
// protocol for every provider in the registry.
func runOrchestrator(
	ctx context.Context,
	dispatcher *llm.Dispatcher,
	modelID string,
	budgets config.Budgets,
	executor *tools.Executor,
	redactor *redact.Service,
	feedbackCtrl *feedback.Controller,
	loop *feedback.LoopState,
	progress Progress,
	sessionID string,
	seedPrompt string,
	logger *slog.Logger,
) (*PipelineInstruction, []llm.Message, error) {
	toolDefs := toLLMToolDefs(executor.Schemas())

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: fmt.Sprintf(orchestratorSystemPromptTmpl, instructionMarker)},
		{Role: llm.RoleUser, Content: seedPrompt},
	}

	var trace []ToolCallRecord

	for iter := 0; iter < budgets.MaxOrchestratorToolIterations; iter++ {
		resp, err := dispatcher.CallWithTools(ctx, modelID, messages, toolDefs, llm.CallOptions{})
		if err != nil {
			return nil, messages, fmt.Errorf("orchestrator call failed on iteration %d: %w", iter+1, err)
		}
		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			if instr, ok := extractInstruction(resp.Message.Content); ok {
				instr.ToolTrace = trace
				progress.PublishInstruction(ctx, sessionID, instr)
				return &instr, messages, nil
			}
			// No tool calls and no instruction marker: nudge the model
			// rather than silently looping on an empty turn.
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("Respond with either a tool call or a final message containing %q.", instructionMarker),
			})
			continue
		}

		for _, call := range resp.Message.ToolCalls {
			rec, toolMsg := executeToolCall(ctx, executor, redactor, progress, sessionID, call)
			trace = append(trace, rec)
			messages = append(messages, toolMsg)

			// run_project_tests budget bookkeeping (spec.md §4.6): a
			// failing in-loop test run is recorded against the session's
			// test-run budget purely for accounting — it does not
			// interrupt the orchestrator's own self-correction, unless
			// the budget itself is now exhausted.
			if call.Name == "run_project_tests" && testRunFailed(rec.Result) {
				t := feedbackCtrl.NextAfterTestRun(loop, &feedback.TestRunFeedback{
					TestPath: stringArgFromJSON(call.Arguments, "test_path"),
					Output:   rec.Result,
				})
				if t.State == feedback.StateExhausted {
					return nil, messages, &errTestBudgetExhausted{reason: loop.ExhaustedReason}
				}
			}
		}
	}

	// Budget exhausted without an instruction: force a finalization pass
	// (spec.md §4.7 step 4's "force a finalization pass"), the same
	// tail-call shape as ReActController.forceConclusion.
	return forceFinalization(ctx, dispatcher, modelID, messages, trace, progress, sessionID)
}

func forceFinalization(
	ctx context.Context,
	dispatcher *llm.Dispatcher,
	modelID string,
	messages []llm.Message,
	trace []ToolCallRecord,
	progress Progress,
	sessionID string,
) (*PipelineInstruction, []llm.Message, error) {
	messages = append(messages, llm.Message{
		Role: llm.RoleUser,
		Content: fmt.Sprintf("The tool-iteration budget is exhausted. Respond now with only a final %q line summarizing the change to make, based on everything learned so far.", instructionMarker),
	})

	resp, err := dispatcher.Call(ctx, modelID, messages, llm.CallOptions{})
	if err != nil {
		return nil, messages, fmt.Errorf("forced finalization call failed: %w", err)
	}
	messages = append(messages, resp.Message)

	instr, ok := extractInstruction(resp.Message.Content)
	if !ok {
		// Even the forced pass didn't produce a marker: fall back to the
		// raw text as the instruction rather than failing the session.
		instr = PipelineInstruction{Instruction: strings.TrimSpace(resp.Message.Content)}
	}
	instr.ToolTrace = trace
	progress.PublishInstruction(ctx, sessionID, instr)
	return &instr, messages, nil
}

// extractInstruction looks for the instructionMarker line and returns
// everything after it as the instruction text.
func extractInstruction(content string) (PipelineInstruction, bool) {
	idx := strings.Index(content, instructionMarker)
	if idx == -1 {
		return PipelineInstruction{}, false
	}
	text := strings.TrimSpace(content[idx+len(instructionMarker):])
	if text == "" {
		return PipelineInstruction{}, false
	}
	return PipelineInstruction{Instruction: text}, true
}

// executeToolCall runs one tool call against the executor and renders it
// both as a ToolCallRecord (for the trail) and an llm.Message (role=tool,
// tied back to the call's ID) to append to the conversation. The raw
// result is masked before either leaves this function — pkg/redact's
// contract is "before it reaches the orchestrator's prompt", and the
// ToolCallRecord trail is what Progress publishes and what an eventual
// persistence layer stores.
func executeToolCall(ctx context.Context, executor *tools.Executor, redactor *redact.Service, progress Progress, sessionID string, call llm.ToolCall) (ToolCallRecord, llm.Message) {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		rec := ToolCallRecord{Name: call.Name, Err: fmt.Sprintf("invalid tool arguments: %v", err)}
		progress.PublishToolCall(ctx, sessionID, rec)
		return rec, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: rec.Err}
	}

	result, err := executor.Execute(ctx, call.Name, args)
	if err != nil {
		rec := ToolCallRecord{Name: call.Name, Arguments: args, Err: err.Error()}
		progress.PublishToolCall(ctx, sessionID, rec)
		return rec, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: "error executing tool: " + err.Error()}
	}

	masked := redactor.MaskToolResult(result, "")
	rec := ToolCallRecord{Name: call.Name, Arguments: args, Result: masked}
	progress.PublishToolCall(ctx, sessionID, rec)
	return rec, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: masked}
}

// testRunFailed reports whether a run_project_tests result's XML-like
// status attribute is anything other than "passed" (pkg/tools/tests.go).
func testRunFailed(result string) bool {
	return strings.Contains(result, `status="failed"`) || strings.Contains(result, `status="timed_out"`)
}

// stringArgFromJSON pulls one string field out of a tool call's raw JSON
// arguments without requiring the caller to have already decoded them.
func stringArgFromJSON(rawArgs string, key string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return ""
	}
	s, _ := args[key].(string)
	return s
}

func toLLMToolDefs(schemas []tools.Schema) []llm.ToolDef {
	defs := make([]llm.ToolDef, len(schemas))
	for i, s := range schemas {
		defs[i] = llm.ToolDef{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
	}
	return defs
}
