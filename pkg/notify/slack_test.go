package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlackNotifier_NilReceiver(t *testing.T) {
	var s *SlackNotifier

	t.Run("NotifySessionStarted is no-op", func(t *testing.T) {
		result := s.NotifySessionStarted(context.Background(), StartedEvent{
			SessionID:   "sess-1",
			Fingerprint: "test fingerprint",
		})
		assert.Empty(t, result)
	})

	t.Run("NotifyEscalation is no-op", func(_ *testing.T) {
		s.NotifyEscalation(context.Background(), EscalationEvent{SessionID: "sess-1", Reason: "budget exhausted"})
	})

	t.Run("NotifySessionCompleted is no-op", func(_ *testing.T) {
		s.NotifySessionCompleted(context.Background(), CompletedEvent{SessionID: "sess-1", Status: "committed"})
	})
}

func TestNewSlackNotifier(t *testing.T) {
	t.Run("returns nil when token empty", func(t *testing.T) {
		n := NewSlackNotifier(SlackConfig{Token: "", Channel: "C123"}, nil)
		assert.Nil(t, n)
	})

	t.Run("returns nil when channel empty", func(t *testing.T) {
		n := NewSlackNotifier(SlackConfig{Token: "xoxb-test", Channel: ""}, nil)
		assert.Nil(t, n)
	})

	t.Run("returns notifier when configured", func(t *testing.T) {
		n := NewSlackNotifier(SlackConfig{
			Token:        "xoxb-test",
			Channel:      "C123",
			DashboardURL: "https://example.com",
		}, nil)
		assert.NotNil(t, n)
	})
}

func TestSlackNotifier_NotifySessionStarted_NoFingerprint(t *testing.T) {
	n := NewSlackNotifier(SlackConfig{
		Token:        "xoxb-test",
		Channel:      "C123",
		DashboardURL: "https://example.com",
	}, nil)

	result := n.NotifySessionStarted(context.Background(), StartedEvent{
		SessionID:   "sess-1",
		Fingerprint: "",
	})
	assert.Empty(t, result, "should skip when no fingerprint")
}

type stubMasker struct{ calls []string }

func (m *stubMasker) MaskForNotification(content string) string {
	m.calls = append(m.calls, content)
	return "MASKED:" + content
}

func TestSlackNotifier_NotifyEscalationMasksDetailBeforeBuildingBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "123.456"})
	}))
	defer srv.Close()

	m := &stubMasker{}
	n := NewSlackNotifierWithAPIURL(SlackConfig{
		Token:        "xoxb-test",
		Channel:      "C123",
		DashboardURL: "https://example.com",
	}, srv.URL+"/", m)

	n.NotifyEscalation(context.Background(), EscalationEvent{
		SessionID: "sess-1",
		Reason:    "validator retries exhausted",
		Detail:    "API_KEY=abc123 leaked in staged diff",
	})

	assert.Len(t, m.calls, 1)
	assert.Equal(t, "API_KEY=abc123 leaked in staged diff", m.calls[0])
}
