package agent

import "context"

// Phase names a step of the nine-step driver, for Progress.PublishPhase.
type Phase string

const (
	PhaseRouting      Phase = "routing"
	PhasePreFilter    Phase = "pre_filter"
	PhaseOrchestrator Phase = "orchestrator"
	PhaseGenerating   Phase = "generating"
	PhaseStaging      Phase = "staging"
	PhaseValidating   Phase = "validating"
	PhaseAIValidating Phase = "ai_validating"
	PhaseAwaitConfirm Phase = "await_confirm"
	PhaseCommitting   Phase = "committing"
)

// Progress is the WebSocket-facing observer of a running pipeline, the
// generalization of the teacher's agent.EventPublisher to this domain's
// phases instead of alert-investigation stage events. Nil-safe callers are
// expected the way the teacher's publishStageStatus guards eventPublisher
// == nil; implementations themselves should be fail-open (log, never
// return an error that could stall the session).
type Progress interface {
	PublishPhase(ctx context.Context, sessionID string, phase Phase, detail string)
	PublishToolCall(ctx context.Context, sessionID string, call ToolCallRecord)
	PublishInstruction(ctx context.Context, sessionID string, instr PipelineInstruction)
}

// noopProgress discards every event. Used when a caller passes a nil
// Progress so Pipeline.Handle never has to nil-check at each call site.
type noopProgress struct{}

func (noopProgress) PublishPhase(context.Context, string, Phase, string)    {}
func (noopProgress) PublishToolCall(context.Context, string, ToolCallRecord) {}
func (noopProgress) PublishInstruction(context.Context, string, PipelineInstruction) {}
