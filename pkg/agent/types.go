// Package agent implements the Agent Pipeline (spec.md §4.7): the nine-step
// driver that turns one user request into a staged, validated, optionally
// user-confirmed set of VFS changes. It is the orchestration point that
// every other component (pkg/llm, pkg/tools, pkg/vfs, pkg/validator,
// pkg/runtimetest, pkg/feedback, pkg/stage, pkg/codeblock, pkg/context) is
// wired through, the way the teacher's pkg/queue.RealSessionExecutor wires
// its agent chain.
package agent

import (
	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// Request bundles everything Pipeline.Handle needs for one call. The
// caller (internal/session.Manager) owns the RequestSession this is
// carved out of; Handle never persists anything itself.
type Request struct {
	SessionID      string
	UserRequest    string
	ProjectRoot    string
	VFS            *vfs.VFS
	Conversation   []ConversationTurn // prior turns, for Revise/UserConfirm re-entry
	Fingerprint    string             // carried through to notify.CompletedEvent
}

// ConversationTurn is one exchange the orchestrator already had in a prior
// attempt of the same session, fed back in on revision so the model sees
// its own prior instruction and what feedback it produced.
type ConversationTurn struct {
	Instruction string
	Feedback    string
}

// ToolCallRecord is one orchestrator tool invocation, kept on
// PipelineInstruction.ToolTrace for the trail the user sees on UserConfirm
// and for synthesis into the next revision's context.
type ToolCallRecord struct {
	Name      string
	Arguments map[string]any
	Result    string
	Err       string
}

// PipelineInstruction is the orchestrator loop's output (spec.md §4.7 step
// 4): an immutable value fed into the Code Generator. Revisions are new
// values appended to LoopState.Revisions, never mutated in place.
type PipelineInstruction struct {
	Instruction string
	TargetFiles []string
	Complexity  config.Complexity
	ToolTrace   []ToolCallRecord
}

// Outcome is Pipeline.Handle's terminal result.
type Outcome struct {
	Status           OutcomeStatus
	CommitResult     *vfs.CommitResult
	ExecutiveSummary string
	ErrorMessage     string
}

// OutcomeStatus mirrors notify.CompletedEvent.Status's value set.
type OutcomeStatus string

const (
	OutcomeCommitted OutcomeStatus = "committed"
	OutcomeEscalated OutcomeStatus = "escalated"
	OutcomeExhausted OutcomeStatus = "exhausted"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeCancelled OutcomeStatus = "cancelled"
)
