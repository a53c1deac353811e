// Package cleanup sweeps completed sessions and their backup ledger once
// they age past config.RetentionConfig's window, generalizing the teacher's
// session/event retention sweep (pkg/services' soft-delete + orphaned-event
// cleanup) to this domain's internal/store-backed sessions and backups.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/config"
)

// Service periodically enforces retention policy: sessions completed more
// than SessionRetentionDays ago (and, via ON DELETE CASCADE, their loop
// state and backup ledger) are deleted outright. All operations are
// idempotent and safe to run from multiple replicas.
type Service struct {
	config *config.RetentionConfig
	store  *store.Store
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(cfg *config.RetentionConfig, st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{config: cfg, store: st, logger: logger}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	s.logger.Info("cleanup service started",
		"session_retention_days", s.config.SessionRetentionDays,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.deleteExpiredSessions(ctx)
}

func (s *Service) deleteExpiredSessions(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.config.SessionRetentionDays)

	ids, err := s.store.ListExpiredSessions(ctx, cutoff)
	if err != nil {
		s.logger.Error("retention: list expired sessions failed", "error", err)
		return
	}

	deleted := 0
	for _, id := range ids {
		if err := s.store.DeleteSession(ctx, id); err != nil {
			s.logger.Error("retention: delete session failed", "session_id", id, "error", err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		s.logger.Info("retention: deleted expired sessions", "count", deleted)
	}
}
