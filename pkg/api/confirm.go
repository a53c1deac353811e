package api

import (
	"context"
	"sync"

	"github.com/codeagent-run/codeagent/pkg/agent"
)

// ConfirmBroker implements agent.Confirmer by parking the pipeline
// goroutine on a per-session channel until the paired HTTP confirm
// endpoint delivers a decision — exactly the pattern agent.Confirmer's own
// doc comment describes. One broker is shared across every session; state
// is keyed by session ID, not held per instance.
type ConfirmBroker struct {
	mu      sync.Mutex
	pending map[string]*pendingConfirm
}

type pendingConfirm struct {
	preview  agent.ConfirmationPreview
	decision chan agent.ConfirmDecision
}

// NewConfirmBroker builds an empty broker.
func NewConfirmBroker() *ConfirmBroker {
	return &ConfirmBroker{pending: make(map[string]*pendingConfirm)}
}

// Confirm implements agent.Confirmer. It blocks until Decide is called for
// sessionID or ctx is cancelled.
func (b *ConfirmBroker) Confirm(ctx context.Context, sessionID string, preview agent.ConfirmationPreview) (agent.ConfirmDecision, error) {
	p := &pendingConfirm{preview: preview, decision: make(chan agent.ConfirmDecision, 1)}

	b.mu.Lock()
	b.pending[sessionID] = p
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, sessionID)
		b.mu.Unlock()
	}()

	select {
	case d := <-p.decision:
		return d, nil
	case <-ctx.Done():
		return agent.ConfirmDecision{}, ctx.Err()
	}
}

// Preview returns the pending confirmation for sessionID, if any.
func (b *ConfirmBroker) Preview(sessionID string) (agent.ConfirmationPreview, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pending[sessionID]
	if !ok {
		return agent.ConfirmationPreview{}, false
	}
	return p.preview, true
}

// Decide delivers decision to the goroutine blocked in Confirm for
// sessionID. It returns false when there is no pending confirmation (the
// session never reached step 9, already decided, or doesn't exist).
func (b *ConfirmBroker) Decide(sessionID string, decision agent.ConfirmDecision) bool {
	b.mu.Lock()
	p, ok := b.pending[sessionID]
	b.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case p.decision <- decision:
		return true
	default:
		return false
	}
}
