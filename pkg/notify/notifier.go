// Package notify implements the escalation-to-user notification sink
// (spec.md §4.6's EscalateToUser state): a Notifier interface with a
// Slack-backed implementation, generalized from the teacher's pkg/slack so a
// future webhook or email sink can satisfy the same contract.
package notify

import "context"

// StartedEvent reports a RequestSession beginning work.
type StartedEvent struct {
	SessionID   string
	UserRequest string
	// Fingerprint ties this notification to an inbound message (e.g. a
	// Slack command that triggered the session), letting the sink thread
	// later updates under it. Empty when the session wasn't triggered that
	// way.
	Fingerprint string
}

// EscalationEvent reports the Feedback Loop Controller reaching
// StateEscalateToUser: the budgets are exhausted, or a feedback item
// demanded a human (spec.md §4.6).
type EscalationEvent struct {
	SessionID string
	Reason    string
	Detail    string
	AttemptNo int
}

// CompletedEvent reports a RequestSession's terminal outcome.
type CompletedEvent struct {
	SessionID        string
	Status           string // committed, escalated, exhausted, failed, cancelled
	ExecutiveSummary string
	ErrorMessage     string
	Fingerprint      string
	ThreadRef        string // carried from StartedEvent's returned ref, if any
}

// Notifier is the escalation-to-user notification sink contract. All three
// methods are expected to be fail-open: a delivery failure is logged by the
// implementation, never returned, since a failed notification must not stall
// the session it's reporting on.
type Notifier interface {
	// NotifySessionStarted returns an implementation-defined thread
	// reference for reuse by later calls (e.g. a Slack message timestamp),
	// or "" when there's nothing to thread under.
	NotifySessionStarted(ctx context.Context, event StartedEvent) string
	NotifyEscalation(ctx context.Context, event EscalationEvent)
	NotifySessionCompleted(ctx context.Context, event CompletedEvent)
}

// Noop discards every event. pkg/agent.Deps.Notify is called unconditionally
// (unlike Progress, it is not nil-checked per call), so a deployment with no
// Slack token configured wires this instead of a nil Notifier.
type Noop struct{}

func (Noop) NotifySessionStarted(context.Context, StartedEvent) string { return "" }
func (Noop) NotifyEscalation(context.Context, EscalationEvent)         {}
func (Noop) NotifySessionCompleted(context.Context, CompletedEvent)    {}
