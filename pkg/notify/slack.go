package notify

import (
	"context"
	"log/slog"
	"time"
)

// masker is the seam to pkg/redact: escalation text and executive summaries
// can carry staged file content verbatim, so they pass through the same
// masking a tool result would before leaving the process.
type masker interface {
	MaskForNotification(content string) string
}

// noopMasker passes content through unchanged, for deployments without a
// configured redact.Service.
type noopMasker struct{}

func (noopMasker) MaskForNotification(content string) string { return content }

// SlackConfig holds the parameters needed to construct a SlackNotifier.
type SlackConfig struct {
	Token        string
	Channel      string
	DashboardURL string
}

// SlackNotifier implements Notifier over the Slack Web API (generalized from
// the teacher's pkg/slack). Nil-safe: every method is a no-op on a nil
// receiver, so callers can wire it unconditionally and let an absent
// configuration silently disable notifications.
type SlackNotifier struct {
	client       *slackClient
	dashboardURL string
	masker       masker
	logger       *slog.Logger
}

// NewSlackNotifier builds a SlackNotifier, or returns nil if Token or
// Channel is empty. A nil redact is replaced with a pass-through masker.
func NewSlackNotifier(cfg SlackConfig, redact masker) *SlackNotifier {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	if redact == nil {
		redact = noopMasker{}
	}
	return &SlackNotifier{
		client:       newSlackClient(cfg.Token, cfg.Channel),
		dashboardURL: cfg.DashboardURL,
		masker:       redact,
		logger:       slog.Default().With("component", "notify-slack"),
	}
}

// NewSlackNotifierWithAPIURL builds a SlackNotifier against a custom API URL,
// for testing against a mock server.
func NewSlackNotifierWithAPIURL(cfg SlackConfig, apiURL string, redact masker) *SlackNotifier {
	if redact == nil {
		redact = noopMasker{}
	}
	return &SlackNotifier{
		client:       newSlackClientWithAPIURL(cfg.Token, cfg.Channel, apiURL),
		dashboardURL: cfg.DashboardURL,
		masker:       redact,
		logger:       slog.Default().With("component", "notify-slack"),
	}
}

// NotifySessionStarted sends a "processing started" notification. Only
// sends if a fingerprint is present — sessions not triggered from Slack have
// nothing to thread under. Returns the resolved threadTS for reuse by later
// calls. Fail-open: errors are logged, never returned.
func (s *SlackNotifier) NotifySessionStarted(ctx context.Context, event StartedEvent) string {
	if s == nil {
		return ""
	}
	if event.Fingerprint == "" {
		return ""
	}

	threadTS, err := s.client.findMessageByFingerprint(ctx, event.Fingerprint)
	if err != nil {
		s.logger.Warn("failed to find Slack thread for fingerprint",
			"session_id", event.SessionID, "error", err)
	}

	blocks := buildStartedBlocks(event.SessionID, s.dashboardURL)
	if err := s.client.postMessage(ctx, blocks, threadTS, 5*time.Second); err != nil {
		s.logger.Error("failed to send Slack start notification",
			"session_id", event.SessionID, "error", err)
	}

	return threadTS
}

// NotifyEscalation sends an EscalateToUser notification. Fail-open: errors
// are logged, never returned — a failed escalation message must not stall
// the session.
func (s *SlackNotifier) NotifyEscalation(ctx context.Context, event EscalationEvent) {
	if s == nil {
		return
	}
	event.Detail = s.masker.MaskForNotification(event.Detail)

	blocks := buildEscalationBlocks(event, s.dashboardURL)
	if err := s.client.postMessage(ctx, blocks, "", 10*time.Second); err != nil {
		s.logger.Error("failed to send Slack escalation notification",
			"session_id", event.SessionID, "error", err)
	}
}

// NotifySessionCompleted sends a terminal status notification. Fail-open:
// errors are logged, never returned.
func (s *SlackNotifier) NotifySessionCompleted(ctx context.Context, event CompletedEvent) {
	if s == nil {
		return
	}
	event.ExecutiveSummary = s.masker.MaskForNotification(event.ExecutiveSummary)
	event.ErrorMessage = s.masker.MaskForNotification(event.ErrorMessage)

	threadTS := event.ThreadRef
	if threadTS == "" && event.Fingerprint != "" {
		var err error
		threadTS, err = s.client.findMessageByFingerprint(ctx, event.Fingerprint)
		if err != nil {
			s.logger.Warn("failed to find Slack thread for fingerprint",
				"session_id", event.SessionID, "error", err)
		}
	}

	blocks := buildCompletedBlocks(event, s.dashboardURL)
	if err := s.client.postMessage(ctx, blocks, threadTS, 10*time.Second); err != nil {
		s.logger.Error("failed to send Slack completion notification",
			"session_id", event.SessionID, "status", event.Status, "error", err)
	}
}

var _ Notifier = (*SlackNotifier)(nil)
