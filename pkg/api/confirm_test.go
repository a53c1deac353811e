package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/agent"
)

func TestConfirmBroker_DecideUnblocksConfirm(t *testing.T) {
	b := NewConfirmBroker()
	preview := agent.ConfirmationPreview{AffectedFiles: []string{"main.go"}}

	result := make(chan agent.ConfirmDecision, 1)
	go func() {
		d, err := b.Confirm(context.Background(), "sess-1", preview)
		require.NoError(t, err)
		result <- d
	}()

	require.Eventually(t, func() bool {
		_, ok := b.Preview("sess-1")
		return ok
	}, time.Second, time.Millisecond)

	got, ok := b.Preview("sess-1")
	require.True(t, ok)
	assert.Equal(t, preview, got)

	delivered := b.Decide("sess-1", agent.ConfirmDecision{Accepted: true})
	assert.True(t, delivered)

	select {
	case d := <-result:
		assert.True(t, d.Accepted)
	case <-time.After(time.Second):
		t.Fatal("Confirm never unblocked")
	}

	_, ok = b.Preview("sess-1")
	assert.False(t, ok, "pending entry must be cleaned up after delivery")
}

func TestConfirmBroker_DecideWithNoPendingFails(t *testing.T) {
	b := NewConfirmBroker()
	assert.False(t, b.Decide("unknown", agent.ConfirmDecision{Accepted: true}))
}

func TestConfirmBroker_ConfirmCancelledByContext(t *testing.T) {
	b := NewConfirmBroker()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := b.Confirm(ctx, "sess-2", agent.ConfirmationPreview{})
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		_, ok := b.Preview("sess-2")
		return ok
	}, time.Second, time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Confirm never returned after cancellation")
	}
}
