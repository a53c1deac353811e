// Package session owns the RequestSession lifecycle: one value per inbound
// user request, tracked from submission through commit, escalation, or
// exhaustion. It is the process-wide entry point pkg/api calls into and the
// only caller of pkg/agent.Pipeline.Handle, grounded on the teacher's
// pkg/queue worker-pool's cancel-registry and bounded-concurrency shape
// (see DESIGN.md).
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeagent-run/codeagent/pkg/agent"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// AttemptCounters summarizes a session's feedback-loop activity for
// status reporting, without exposing the full LoopState internals.
type AttemptCounters struct {
	Revisions        int
	ValidatorRetries int
	TestRuns         int
}

// Status is a RequestSession's coarse lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCommitted Status = "committed"
	StatusEscalated Status = "escalated"
	StatusExhausted Status = "exhausted"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// RequestSession is the in-memory, process-wide record of one user request
// (spec.md §3's session type, generalized to Go per SPEC_FULL.md §2).
type RequestSession struct {
	ID                uuid.UUID
	UserRequest       string
	ProjectRoot       string
	OrchestratorModel string
	Fingerprint       string

	VFS  *vfs.VFS
	Loop *feedback.LoopState

	mu      sync.RWMutex
	status  Status
	attempt AttemptCounters
	outcome *agent.Outcome
	err     error

	CreatedAt time.Time

	cancel context.CancelFunc
}

func (s *RequestSession) snapshot() (Status, AttemptCounters, *agent.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.attempt, s.outcome, s.err
}

// Status returns the session's current lifecycle state.
func (s *RequestSession) Status() Status {
	st, _, _, _ := s.snapshot()
	return st
}

// Attempts returns the session's feedback-loop counters as of the last
// update.
func (s *RequestSession) Attempts() AttemptCounters {
	_, at, _, _ := s.snapshot()
	return at
}

// Outcome returns the pipeline's terminal outcome, or nil while running.
func (s *RequestSession) Outcome() *agent.Outcome {
	_, _, o, _ := s.snapshot()
	return o
}

// Err returns the terminal error, if the pipeline failed outright.
func (s *RequestSession) Err() error {
	_, _, _, err := s.snapshot()
	return err
}

func (s *RequestSession) setStatus(st Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *RequestSession) setAttempts(loop *feedback.LoopState) {
	if loop == nil {
		return
	}
	s.mu.Lock()
	s.Loop = loop
	s.attempt = AttemptCounters{
		Revisions:        len(loop.Revisions),
		ValidatorRetries: loop.ValidatorRetries,
		TestRuns:         loop.TestRunCount,
	}
	s.mu.Unlock()
}

func (s *RequestSession) finish(outcome *agent.Outcome, err error) {
	s.mu.Lock()
	s.outcome = outcome
	s.err = err
	s.mu.Unlock()
}
