package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/agent"
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
)

// SharedDeps are the pipeline components built once at startup and reused
// across every session (cmd/codeagent/main.go wires these).
type SharedDeps struct {
	Dispatcher *llm.Dispatcher
	Config     *config.Config
	Index      *projectindex.Client
	Validator  *validator.Pipeline
	Feedback   *feedback.Controller
	Stage      *stage.Engine
	Redact     *redact.Service
	Notify     notify.Notifier
	External   tools.ExternalClient
	Resolver   vfs.DependentsResolver
	CodeIndex  tools.CodeIndex
	TestRunner tools.TestRunner
	Packages   tools.PackageManager
	Logger     *slog.Logger
}

// SubmitRequest is what pkg/api hands the Manager for one user request.
// Progress and Confirmer are supplied per-request because an HTTP/WebSocket
// handler owns the channel each blocks on (pkg/agent.Confirmer's doc
// comment: "An HTTP handler implementation parks the goroutine on a channel
// until the paired confirm/cancel endpoint is hit").
type SubmitRequest struct {
	UserRequest  string
	ProjectRoot  string
	Fingerprint  string
	Conversation []agent.ConversationTurn
	Progress     agent.Progress
	Confirmer    agent.Confirmer
}

// Manager owns every in-flight RequestSession, bounding concurrency the way
// the teacher's pkg/queue worker pool bounded concurrent alert sessions
// (config.QueueConfig.WorkerCount workers, a cancel registry keyed by
// session ID, and a SessionTimeout context deadline per request).
type Manager struct {
	deps  SharedDeps
	store *store.Store
	cfg   config.QueueConfig

	sem chan struct{}

	mu       sync.RWMutex
	sessions map[uuid.UUID]*RequestSession
	cancels  map[uuid.UUID]context.CancelFunc
}

// NewManager builds a Manager bounded by cfg's worker count.
func NewManager(deps SharedDeps, st *store.Store, cfg config.QueueConfig) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		deps:     deps,
		store:    st,
		cfg:      cfg,
		sem:      make(chan struct{}, workers),
		sessions: make(map[uuid.UUID]*RequestSession),
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit creates a RequestSession, persists its initial row, and runs the
// pipeline in a background goroutine bounded by the worker semaphore.
// It returns immediately with the session so the caller can stream its
// progress; the goroutine updates the session (and the store) as the
// pipeline advances.
func (m *Manager) Submit(ctx context.Context, req SubmitRequest) (*RequestSession, error) {
	id := uuid.New()
	disk := vfs.OSDisk{Root: req.ProjectRoot}
	backups := store.NewSessionBackups(m.store, id)
	v := vfs.New(disk, backups)

	sess := &RequestSession{
		ID:          id,
		UserRequest: req.UserRequest,
		ProjectRoot: req.ProjectRoot,
		Fingerprint: req.Fingerprint,
		VFS:         v,
		CreatedAt:   time.Now(),
	}
	sess.setStatus(StatusRunning)

	if err := m.store.CreateSession(ctx, id, req.UserRequest, req.ProjectRoot, req.Fingerprint); err != nil {
		return nil, fmt.Errorf("session: persist new session: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	if m.cfg.SessionTimeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, m.cfg.SessionTimeout)
	}

	m.mu.Lock()
	m.sessions[id] = sess
	m.cancels[id] = cancel
	m.mu.Unlock()

	go m.run(runCtx, cancel, sess, req)

	return sess, nil
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, sess *RequestSession, req SubmitRequest) {
	defer cancel()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, sess.ID)
		m.mu.Unlock()
	}()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		sess.setStatus(StatusCancelled)
		sess.finish(nil, ctx.Err())
		_ = m.store.CompleteSession(context.Background(), sess.ID, string(StatusCancelled), ctx.Err().Error())
		return
	}

	executor := tools.New(tools.Config{
		ProjectDir: sess.ProjectRoot,
		VFS:        sess.VFS,
		Disk:       vfs.OSDisk{Root: sess.ProjectRoot},
		Resolver:   m.deps.Resolver,
		Index:      m.deps.CodeIndex,
		Tests:      m.deps.TestRunner,
		Packages:   m.deps.Packages,
		External:   m.deps.External,
	})

	var progress agent.Progress
	if req.Progress != nil {
		progress = &persistingProgress{inner: req.Progress, store: m.store, sessionID: sess.ID, mgr: m, sess: sess}
	}

	pipeline := agent.New(agent.Deps{
		Dispatcher: m.deps.Dispatcher,
		Config:     m.deps.Config,
		Index:      m.deps.Index,
		Tools:      executor,
		Validator:  m.deps.Validator,
		Feedback:   m.deps.Feedback,
		Stage:      m.deps.Stage,
		Redact:     m.deps.Redact,
		Notify:     m.deps.Notify,
		Progress:   progress,
		Confirmer:  req.Confirmer,
		Logger:     m.deps.Logger,
	})

	outcome, loop, err := pipeline.Handle(ctx, agent.Request{
		SessionID:    sess.ID.String(),
		UserRequest:  sess.UserRequest,
		ProjectRoot:  sess.ProjectRoot,
		VFS:          sess.VFS,
		Conversation: req.Conversation,
		Fingerprint:  sess.Fingerprint,
	})

	sess.setAttempts(loop)
	sess.finish(outcome, err)

	status := StatusFailed
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	} else if outcome != nil {
		status = statusFromOutcome(outcome.Status)
	}
	sess.setStatus(status)

	if perr := m.store.CompleteSession(context.Background(), sess.ID, string(status), errMsg); perr != nil {
		m.deps.Logger.Error("session: failed to persist completion", "session_id", sess.ID, "error", perr)
	}
	if loop != nil {
		if perr := m.store.PutLoopSnapshot(context.Background(), sess.ID, snapshotOf(loop)); perr != nil {
			m.deps.Logger.Error("session: failed to persist loop snapshot", "session_id", sess.ID, "error", perr)
		}
	}
}

func statusFromOutcome(status agent.OutcomeStatus) Status {
	switch status {
	case agent.OutcomeCommitted:
		return StatusCommitted
	case agent.OutcomeEscalated:
		return StatusEscalated
	case agent.OutcomeExhausted:
		return StatusExhausted
	case agent.OutcomeCancelled:
		return StatusCancelled
	default:
		return StatusFailed
	}
}

func snapshotOf(loop *feedback.LoopState) store.LoopSnapshot {
	sources := make([]string, 0, len(loop.FeedbackTrail))
	for _, fb := range loop.FeedbackTrail {
		sources = append(sources, string(fb.Source()))
	}
	return store.LoopSnapshot{
		AttemptNo:        loop.AttemptNo,
		Revisions:        len(loop.Revisions),
		ValidatorRetries: loop.ValidatorRetries,
		TestRunCount:     loop.TestRunCount,
		FeedbackSources:  sources,
		Exhausted:        loop.Exhausted,
		ExhaustedReason:  loop.ExhaustedReason,
	}
}

// Get returns a tracked session by ID.
func (m *Manager) Get(id uuid.UUID) (*RequestSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Cancel stops an in-flight session, returning false if it isn't running.
func (m *Manager) Cancel(id uuid.UUID) bool {
	m.mu.RLock()
	cancel, ok := m.cancels[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Health reports the Manager's current load, grounded on the teacher's
// pkg/queue worker-pool health snapshot.
type Health struct {
	ActiveSessions int
	MaxConcurrent  int
}

// Health returns a point-in-time load snapshot.
func (m *Manager) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Health{ActiveSessions: len(m.cancels), MaxConcurrent: cap(m.sem)}
}

// persistingProgress snapshots the loop state into the store on every
// published phase, so a crash or restart mid-session leaves a recoverable
// trail instead of silently losing progress between terminal writes.
type persistingProgress struct {
	inner     agent.Progress
	store     *store.Store
	sessionID uuid.UUID
	mgr       *Manager
	sess      *RequestSession
}

func (p *persistingProgress) PublishPhase(ctx context.Context, sessionID string, phase agent.Phase, detail string) {
	p.inner.PublishPhase(ctx, sessionID, phase, detail)
}

func (p *persistingProgress) PublishToolCall(ctx context.Context, sessionID string, call agent.ToolCallRecord) {
	p.inner.PublishToolCall(ctx, sessionID, call)
}

func (p *persistingProgress) PublishInstruction(ctx context.Context, sessionID string, instr agent.PipelineInstruction) {
	p.inner.PublishInstruction(ctx, sessionID, instr)
}
