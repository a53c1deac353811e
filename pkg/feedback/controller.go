package feedback

import (
	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/validator"
)

// Controller drives LoopState through the state machine of spec.md §4.6.
// It is deliberately synchronous and side-effect-free beyond mutating the
// LoopState it's handed: the Agent Pipeline (C7) calls Next once per
// transition and acts on the result, the same "one transition processed at
// a time, single-threaded per session" discipline the ReAct controller
// applies to its own iteration loop.
type Controller struct {
	budgets config.Budgets
}

// New builds a Controller bound to one session's budgets.
func New(budgets config.Budgets) *Controller {
	return &Controller{budgets: budgets}
}

// NextAfterValidation decides the transition out of Validating/AIValidating
// given the level's result. aiSourced distinguishes an AI Validator verdict
// from the Change Validator's own pass, for ValidatorFeedback.AISourced.
func (c *Controller) NextAfterValidation(state *LoopState, result *validator.ValidationResult, aiSourced bool, aiValidatorEnabled bool) Transition {
	if result.Passed() && len(blockingIssues(result)) == 0 {
		if aiSourced || !aiValidatorEnabled {
			return Transition{State: StateAccepted}
		}
		return Transition{State: StateAIValidating}
	}

	syntaxFailed := hasLevel(result.LevelsFailed, config.LevelSyntax)
	fb := &ValidatorFeedback{
		Level:     failingLevel(result),
		Issues:    result.Issues,
		AISourced: aiSourced,
	}
	state.FeedbackTrail = append(state.FeedbackTrail, fb)
	state.Validations = append(state.Validations, ValidationAttempt{AttemptNo: state.AttemptNo, Result: result})

	state.ValidatorRetries++
	if state.ValidatorRetries > c.budgets.MaxValidatorRetries {
		return c.exhaust(state, "max_validator_retries exceeded")
	}
	if syntaxFailed {
		return Transition{State: StateRevise, Feedback: fb, Reason: "syntax error, critical priority"}
	}
	// Non-syntax failures are medium priority: the orchestrator gets a
	// chance to accept the override (with a recorded justification) rather
	// than being forced to revise, per spec.md §4.6.
	return Transition{State: StateRevise, Feedback: fb, Reason: "non-syntax validator issues, orchestrator may revise or override"}
}

// AcceptOverride lets the orchestrator accept a non-syntax ValidatorFeedback
// with a recorded justification instead of revising, proceeding to
// AIValidating (or straight to UserConfirm if the AI validator is disabled).
func (c *Controller) AcceptOverride(state *LoopState, fb *ValidatorFeedback, justification string, aiValidatorEnabled bool) Transition {
	fb.Overridden = true
	fb.Justification = justification
	if aiValidatorEnabled {
		return Transition{State: StateAIValidating, Reason: "orchestrator override recorded, routing to AI validator"}
	}
	return Transition{State: StateUserConfirm, Reason: "orchestrator override recorded, AI validator disabled"}
}

// NextAfterStaging handles a staging failure. Per spec.md §4.6 this does
// NOT consume the orchestrator revision budget — the orchestrator never
// got to evaluate a change that never staged.
func (c *Controller) NextAfterStaging(state *LoopState, fb *StagingErrorFeedback) Transition {
	state.FeedbackTrail = append(state.FeedbackTrail, fb)
	return Transition{State: StateRevise, Feedback: fb, Reason: "staging error, revision budget not consumed"}
}

// NextAfterTestRun handles a run_project_tests tool failure mid-orchestration.
func (c *Controller) NextAfterTestRun(state *LoopState, fb *TestRunFeedback) Transition {
	state.TestRunCount++
	state.FeedbackTrail = append(state.FeedbackTrail, fb)
	if state.TestRunCount > c.budgets.MaxTestRunsPerSession {
		return c.exhaust(state, "max_test_runs_per_session exceeded")
	}
	return Transition{State: StateRevise, Feedback: fb, Reason: "test run failed"}
}

// NextAfterUserConfirm handles feedback given during UserConfirm. Per
// spec.md §4.6, user feedback MUST be acted on — it always routes back to
// revision, never silently dropped, and does not consume the orchestrator
// revision budget on its own (the orchestrator's next AwaitingOrchestrator
// pass is what consumes it, same as every other Revise transition).
func (c *Controller) NextAfterUserConfirm(state *LoopState, fb *UserFeedback) Transition {
	state.FeedbackTrail = append(state.FeedbackTrail, fb)
	return Transition{State: StateRevise, Feedback: fb, Reason: "user feedback must be acted on"}
}

// Confirm moves Accepted to UserConfirm, the mandatory human checkpoint
// before commit (spec.md §4.7 step 9).
func (c *Controller) Confirm(state *LoopState) Transition {
	return Transition{State: StateUserConfirm}
}

// Approve moves UserConfirm to Commit once the user accepts.
func (c *Controller) Approve(state *LoopState) Transition {
	return Transition{State: StateCommit}
}

// BeginRevision advances AttemptNo and records a revision entry before the
// pipeline re-enters AwaitingOrchestrator. Returns Exhausted instead if the
// orchestrator revision budget is used up.
func (c *Controller) BeginRevision(state *LoopState, reason Source) Transition {
	if len(state.Revisions) >= c.budgets.MaxOrchestratorRevisions {
		return c.exhaust(state, "max_orchestrator_revisions exceeded")
	}
	state.AttemptNo++
	state.Revisions = append(state.Revisions, OrchestratorRevision{AttemptNo: state.AttemptNo, Reason: reason})
	return Transition{State: StateAwaitingOrchestrator}
}

// Escalate moves a Feedback item straight to EscalateToUser — used when a
// budget-bound transition would otherwise be reached but the caller decides
// a human should see the problem before the session is marked exhausted.
func (c *Controller) Escalate(state *LoopState, fb Feedback, reason string) Transition {
	state.FeedbackTrail = append(state.FeedbackTrail, fb)
	return Transition{State: StateEscalateToUser, Feedback: fb, Reason: reason}
}

func (c *Controller) exhaust(state *LoopState, reason string) Transition {
	state.Exhausted = true
	state.ExhaustedReason = reason
	return Transition{State: StateExhausted, Reason: reason}
}

func blockingIssues(r *validator.ValidationResult) []validator.Issue {
	var out []validator.Issue
	for _, iss := range r.Issues {
		if iss.Level.Blocking() && iss.Severity >= validator.SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

func hasLevel(levels []config.ValidationLevel, target config.ValidationLevel) bool {
	for _, l := range levels {
		if l == target {
			return true
		}
	}
	return false
}

func failingLevel(r *validator.ValidationResult) config.ValidationLevel {
	if len(r.LevelsFailed) == 0 {
		return ""
	}
	return r.LevelsFailed[0]
}
