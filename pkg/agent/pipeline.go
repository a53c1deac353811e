package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/notify"
	"github.com/codeagent-run/codeagent/pkg/projectindex"
	"github.com/codeagent-run/codeagent/pkg/redact"
	"github.com/codeagent-run/codeagent/pkg/stage"
	"github.com/codeagent-run/codeagent/pkg/tools"
	"github.com/codeagent-run/codeagent/pkg/validator"
	"github.com/codeagent-run/codeagent/pkg/vfs"
	"github.com/pmezard/go-difflib/difflib"
)

// Deps bundles every collaborator Pipeline.Handle drives, the same
// single-struct wiring shape as the teacher's RealSessionExecutor (which
// bundles its agent factory, prompt builder, and mcp factory together)
// rather than a long constructor argument list.
type Deps struct {
	Dispatcher *llm.Dispatcher
	Config     *config.Config
	Index      *projectindex.Client
	Tools      *tools.Executor
	Validator  *validator.Pipeline
	Feedback   *feedback.Controller
	Stage      *stage.Engine
	Redact     *redact.Service
	Notify     notify.Notifier
	Progress   Progress
	Confirmer  Confirmer
	Logger     *slog.Logger
}

// Pipeline is the Agent Pipeline (C7): one Handle call per user request.
type Pipeline struct {
	deps Deps
}

// New builds a Pipeline bound to the given collaborators. A nil
// deps.Progress is replaced with a no-op implementation so Handle never
// needs to nil-check it.
func New(deps Deps) *Pipeline {
	if deps.Progress == nil {
		deps.Progress = noopProgress{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Pipeline{deps: deps}
}

// Handle runs the nine-step driver of spec.md §4.7 end to end: router,
// pre-filter, orchestrator tool loop, generator, staging, validation,
// feedback decision, user confirmation, and commit. It returns once the
// session reaches a terminal outcome (committed, escalated, exhausted,
// failed, or cancelled) — the same fail-fast, single-call-per-request
// discipline as the teacher's RealSessionExecutor.Execute.
func (p *Pipeline) Handle(ctx context.Context, req Request) (*Outcome, *feedback.LoopState, error) {
	d := p.deps
	loop := feedback.NewLoopState()

	threadRef := d.Notify.NotifySessionStarted(ctx, notify.StartedEvent{
		SessionID:   req.SessionID,
		UserRequest: req.UserRequest,
		Fingerprint: req.Fingerprint,
	})

	outcome, err := p.run(ctx, req, loop)
	if err != nil {
		d.Notify.NotifySessionCompleted(ctx, notify.CompletedEvent{
			SessionID: req.SessionID, Status: string(OutcomeFailed),
			ErrorMessage: err.Error(), Fingerprint: req.Fingerprint, ThreadRef: threadRef,
		})
		return nil, loop, err
	}

	if outcome.Status == OutcomeEscalated {
		d.Notify.NotifyEscalation(ctx, notify.EscalationEvent{
			SessionID: req.SessionID, Reason: loop.ExhaustedReason, AttemptNo: loop.AttemptNo,
		})
	}
	d.Notify.NotifySessionCompleted(ctx, notify.CompletedEvent{
		SessionID: req.SessionID, Status: string(outcome.Status),
		ExecutiveSummary: outcome.ExecutiveSummary, ErrorMessage: outcome.ErrorMessage,
		Fingerprint: req.Fingerprint, ThreadRef: threadRef,
	})
	return outcome, loop, nil
}

// run drives the actual state machine, separated from Handle so every exit
// path (including early returns on hard errors) still gets a
// NotifySessionCompleted from the caller.
func (p *Pipeline) run(ctx context.Context, req Request, loop *feedback.LoopState) (*Outcome, error) {
	d := p.deps
	v := req.VFS
	progress := d.Progress

	progress.PublishPhase(ctx, req.SessionID, PhaseRouting, "")
	complexity, modelID := route(ctx, d.Dispatcher, d.Config, req.UserRequest, d.Logger)

	progress.PublishPhase(ctx, req.SessionID, PhasePreFilter, "")
	indexOverview := d.Index.Overview(200)
	chunks, err := preFilter(ctx, d.Dispatcher, modelID, d.Config.PreFilter, indexOverview, req.UserRequest, d.Tools, d.Logger)
	if err != nil {
		return nil, fmt.Errorf("pre-filter failed: %w", err)
	}

	seedPrompt := buildSeedPrompt(req.UserRequest, indexOverview, chunks, req.Conversation)
	feedbackText := ""
	var prevInstr *PipelineInstruction

	for {
		select {
		case <-ctx.Done():
			return &Outcome{Status: OutcomeCancelled, ErrorMessage: ctx.Err().Error()}, nil
		default:
		}

		progress.PublishPhase(ctx, req.SessionID, PhaseOrchestrator, "")
		prompt := seedPrompt
		if feedbackText != "" {
			prompt += "\n\nFeedback from the previous attempt:\n" + feedbackText
		}
		instr, _, err := runOrchestrator(ctx, d.Dispatcher, modelID, d.Config.Budgets, d.Tools, d.Redact, d.Feedback, loop, progress, req.SessionID, prompt, d.Logger)
		if err != nil {
			var budgetErr *errTestBudgetExhausted
			if errors.As(err, &budgetErr) {
				return &Outcome{Status: OutcomeExhausted, ErrorMessage: budgetErr.reason}, nil
			}
			return nil, fmt.Errorf("orchestrator failed: %w", err)
		}
		instr.Complexity = complexity
		backfillRevisionSummary(loop, prevInstr, instr)
		prevInstr = instr

		progress.PublishPhase(ctx, req.SessionID, PhaseGenerating, "")
		blocks, err := generate(ctx, d.Dispatcher, modelID, d.Config.Budgets, instr)
		if err != nil {
			return nil, fmt.Errorf("generator failed: %w", err)
		}

		progress.PublishPhase(ctx, req.SessionID, PhaseStaging, "")
		v.Discard()
		stagingFb, err := stageBlocks(v, d.Stage, blocks)
		if err != nil {
			return nil, fmt.Errorf("staging failed: %w", err)
		}
		if stagingFb != nil {
			t := d.Feedback.NextAfterStaging(loop, stagingFb)
			feedbackText = renderFeedback(t)
			continue // staging errors are free: no BeginRevision
		}

		progress.PublishPhase(ctx, req.SessionID, PhaseValidating, "")
		result, err := d.Validator.Run(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}
		t := d.Feedback.NextAfterValidation(loop, result, false, d.Config.AIValidator.Enabled)

		if t.State == feedback.StateAIValidating {
			progress.PublishPhase(ctx, req.SessionID, PhaseAIValidating, "")
			aiResult, aiErr := runAIValidator(ctx, d.Dispatcher, d.Config.AIValidator, v)
			if aiErr != nil {
				d.Logger.Warn("AI validator call failed, proceeding without it", "error", aiErr)
				t = feedback.Transition{State: feedback.StateAccepted}
			} else {
				t = d.Feedback.NextAfterValidation(loop, aiResult, true, d.Config.AIValidator.Enabled)
			}
		}

		switch t.State {
		case feedback.StateExhausted:
			return &Outcome{Status: OutcomeExhausted, ErrorMessage: loop.ExhaustedReason}, nil
		case feedback.StateRevise:
			revT := d.Feedback.BeginRevision(loop, t.Feedback.Source())
			if revT.State == feedback.StateExhausted {
				return &Outcome{Status: OutcomeExhausted, ErrorMessage: loop.ExhaustedReason}, nil
			}
			feedbackText = renderFeedback(t)
			continue
		}

		// Accepted: step 9, mandatory user confirmation.
		progress.PublishPhase(ctx, req.SessionID, PhaseAwaitConfirm, "")
		preview, err := buildConfirmationPreview(ctx, v, d.Index)
		if err != nil {
			return nil, fmt.Errorf("building confirmation preview failed: %w", err)
		}
		decision, err := d.Confirmer.Confirm(ctx, req.SessionID, preview)
		if err != nil {
			return nil, fmt.Errorf("confirmation failed: %w", err)
		}
		if !decision.Accepted {
			fb := &feedback.UserFeedback{Message: decision.Justification}
			uT := d.Feedback.NextAfterUserConfirm(loop, fb)
			revT := d.Feedback.BeginRevision(loop, fb.Source())
			if revT.State == feedback.StateExhausted {
				return &Outcome{Status: OutcomeExhausted, ErrorMessage: loop.ExhaustedReason}, nil
			}
			feedbackText = renderFeedback(uT)
			continue
		}

		d.Feedback.Approve(loop)
		progress.PublishPhase(ctx, req.SessionID, PhaseCommitting, "")
		commitResult, err := v.Commit(ctx)
		if err != nil {
			return nil, fmt.Errorf("commit failed: %w", err)
		}
		return &Outcome{Status: OutcomeCommitted, CommitResult: commitResult}, nil
	}
}

// buildSeedPrompt assembles the orchestrator's first user-turn message from
// the request, the compact project index overview, the resolved pre-filter
// chunks, and any prior turns from an earlier attempt at the same session
// (e.g. a session resumed after a server restart mid-revision) so the model
// sees what it already tried and what feedback that produced.
func buildSeedPrompt(userRequest, indexOverview string, chunks []preFilterChunk, priorTurns []ConversationTurn) string {
	var b strings.Builder
	b.WriteString("Request:\n")
	b.WriteString(userRequest)
	b.WriteString("\n\nProject index:\n")
	b.WriteString(indexOverview)
	if len(chunks) > 0 {
		b.WriteString("\n\nRelevant chunks:\n")
		for _, c := range chunks {
			fmt.Fprintf(&b, "--- %s: %s ---\n%s\n\n", c.FilePath, c.ChunkName, c.Content)
		}
	}
	if len(priorTurns) > 0 {
		b.WriteString("\n\nPrior attempts this session:\n")
		for i, turn := range priorTurns {
			fmt.Fprintf(&b, "Attempt %d instruction: %s\nAttempt %d feedback: %s\n\n", i+1, turn.Instruction, i+1, turn.Feedback)
		}
	}
	return b.String()
}

// renderFeedback turns a feedback.Transition into the text fed back to the
// orchestrator on its next pass.
func renderFeedback(t feedback.Transition) string {
	if t.Feedback == nil {
		return t.Reason
	}
	switch fb := t.Feedback.(type) {
	case *feedback.ValidatorFeedback:
		var b strings.Builder
		fmt.Fprintf(&b, "Validation level %q failed:\n", fb.Level)
		for _, iss := range fb.Issues {
			fmt.Fprintf(&b, "- [%s] %s:%d %s\n", iss.Severity, iss.File, iss.Line, iss.Message)
		}
		return b.String()
	case *feedback.StagingErrorFeedback:
		g := stage.GuidanceFor(fb.Err.Type)
		return fmt.Sprintf("Staging failed on %s: %s\nCause: %s\nSolution: %s", fb.Err.FilePath, g.Description, g.Cause, g.Solution)
	case *feedback.TestRunFeedback:
		return fmt.Sprintf("Test run %s failed (exit %d):\n%s", fb.TestPath, fb.ExitCode, fb.Output)
	case *feedback.UserFeedback:
		return fb.Message
	case *feedback.TestErrorFeedback:
		return fmt.Sprintf("Runtime smoke test for %s failed (timed out: %v):\n%s", fb.AppType, fb.TimedOut, fb.Output)
	default:
		return t.Reason
	}
}

// backfillRevisionSummary fills in the previous revision entry's
// human-readable before/after instruction summary once the new instruction
// is known, per the OrchestratorRevision doc comment.
func backfillRevisionSummary(loop *feedback.LoopState, prev, next *PipelineInstruction) {
	if prev == nil || len(loop.Revisions) == 0 {
		return
	}
	last := &loop.Revisions[len(loop.Revisions)-1]
	if last.PreviousInstructionSummary == "" {
		last.PreviousInstructionSummary = truncate(prev.Instruction, 200)
	}
	if last.NewInstructionSummary == "" {
		last.NewInstructionSummary = truncate(next.Instruction, 200)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// buildConfirmationPreview resolves the affected-files set (spec.md §4.3)
// and renders a unified diff per staged file for step 9's preview.
func buildConfirmationPreview(ctx context.Context, v *vfs.VFS, resolver vfs.DependentsResolver) (ConfirmationPreview, error) {
	changed, dependents, err := v.AffectedFiles(ctx, resolver)
	if err != nil {
		return ConfirmationPreview{}, err
	}

	diffs := make(map[string]string, len(changed))
	for _, path := range changed {
		content, _ := v.Read(path)
		diff, diffErr := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(""),
			B:        difflib.SplitLines(content),
			FromFile: path,
			ToFile:   path,
			Context:  3,
		})
		if diffErr == nil {
			diffs[path] = diff
		}
	}

	return ConfirmationPreview{AffectedFiles: changed, Dependents: dependents, Diffs: diffs}, nil
}
