// Package feedback implements the Feedback Loop Controller (C6, spec.md
// §4.6): a single-threaded per-session state machine that classifies each
// feedback source (validator, user, test run, staging error) and decides
// the next transition under the session's retry budgets.
package feedback

import (
	"time"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/stage"
	"github.com/codeagent-run/codeagent/pkg/validator"
)

// Priority ranks a Feedback item the way spec.md §3 names it.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Source identifies which of the five Feedback variants an item is,
// without a type switch at every call site.
type Source string

const (
	SourceValidator    Source = "validator"
	SourceUser         Source = "user"
	SourceTestRun      Source = "test_run"
	SourceStagingError Source = "staging_error"
	SourceTestError    Source = "test_error"
)

// Feedback is the tagged variant spec.md §3 names: ValidatorFeedback,
// UserFeedback, TestRunFeedback, StagingErrorFeedback, TestErrorFeedback.
type Feedback interface {
	Source() Source
	Priority() Priority
	RequiresResponse() bool
}

// ValidatorFeedback carries one level's worth of issues from either the
// Change Validator or the AI Validator. SYNTAX_ERROR issues are always
// critical (spec.md §4.6); every other level defaults to medium unless the
// orchestrator has already overridden it with a recorded justification.
type ValidatorFeedback struct {
	Level         config.ValidationLevel
	Issues        []validator.Issue
	AISourced     bool // true when this came from the AI validator, not the Change Validator
	Overridden    bool
	Justification string
}

func (f *ValidatorFeedback) Source() Source { return SourceValidator }

func (f *ValidatorFeedback) Priority() Priority {
	if f.Level == config.LevelSyntax {
		return PriorityCritical
	}
	return PriorityMedium
}

func (f *ValidatorFeedback) RequiresResponse() bool { return false }

// UserFeedback is free-text direction given during UserConfirm. Per
// spec.md §4.6 it must be acted on — the orchestrator may disagree, but it
// must attempt the request and record its concerns, never silently drop it.
type UserFeedback struct {
	Message string
}

func (f *UserFeedback) Source() Source         { return SourceUser }
func (f *UserFeedback) Priority() Priority     { return PriorityHigh }
func (f *UserFeedback) RequiresResponse() bool { return true }

// TestRunFeedback reports a failing run_project_tests tool invocation.
type TestRunFeedback struct {
	TestPath string
	Output   string
	ExitCode int
}

func (f *TestRunFeedback) Source() Source         { return SourceTestRun }
func (f *TestRunFeedback) Priority() Priority     { return PriorityHigh }
func (f *TestRunFeedback) RequiresResponse() bool { return false }

// StagingErrorFeedback wraps a *stage.StagingError. Per spec.md §4.6 it
// does NOT consume a revision-budget slot, since the orchestrator never
// got a chance to evaluate the result of a change that never staged.
type StagingErrorFeedback struct {
	Err *stage.StagingError
}

func (f *StagingErrorFeedback) Source() Source         { return SourceStagingError }
func (f *StagingErrorFeedback) Priority() Priority     { return PriorityHigh }
func (f *StagingErrorFeedback) RequiresResponse() bool { return false }

// TestErrorFeedback reports the Runtime Tester's smoke-test failure
// (distinct from TestRunFeedback, which is the orchestrator's own
// run_project_tests tool call mid-loop; this is the validator pipeline's
// automatic runtime level).
type TestErrorFeedback struct {
	AppType  config.AppType
	Output   string
	TimedOut bool
}

func (f *TestErrorFeedback) Source() Source         { return SourceTestError }
func (f *TestErrorFeedback) Priority() Priority     { return PriorityHigh }
func (f *TestErrorFeedback) RequiresResponse() bool { return false }

// State is a node in the Feedback Loop Controller's state machine
// (spec.md §4.6).
type State string

const (
	StateAwaitingOrchestrator State = "awaiting_orchestrator"
	StateGenerating           State = "generating"
	StateStaging              State = "staging"
	StateValidating           State = "validating"
	StateAIValidating         State = "ai_validating"
	StateAccepted             State = "accepted"
	StateUserConfirm          State = "user_confirm"
	StateCommit               State = "commit"
	StateRevise               State = "revise"
	StateEscalateToUser       State = "escalate_to_user"
	StateExhausted            State = "exhausted"
)

// OrchestratorRevision records one trip back through AwaitingOrchestrator,
// for LoopState.Revisions. PreviousInstructionSummary/NewInstructionSummary
// are carried from the original implementation (dropped by the distilled
// spec, restored here): a short human-readable pair used when rendering the
// revision trail to the user during UserConfirm, populated by the Agent
// Pipeline once it has both instructions in hand.
type OrchestratorRevision struct {
	AttemptNo                 int
	Reason                    Source
	StartedAt                 time.Time
	PreviousInstructionSummary string
	NewInstructionSummary      string
}

// ValidationAttempt records one Validating/AIValidating pass, for
// LoopState.Validations.
type ValidationAttempt struct {
	AttemptNo int
	Result    *validator.ValidationResult
	RanAt     time.Time
}

// LoopState is the RequestSession's exclusively-owned feedback state
// (spec.md §3). It is mutated only by Controller.Next.
type LoopState struct {
	AttemptNo     int
	Revisions     []OrchestratorRevision
	Validations   []ValidationAttempt
	FeedbackTrail []Feedback

	ValidatorRetries int
	TestRunCount     int

	Exhausted       bool
	ExhaustedReason string
}

// NewLoopState returns a LoopState ready for AwaitingOrchestrator.
func NewLoopState() *LoopState {
	return &LoopState{}
}

// Transition is Controller.Next's result: the state to move to, plus
// whatever Feedback justified the move (nil when moving toward Accepted).
type Transition struct {
	State    State
	Feedback Feedback
	Reason   string
}
