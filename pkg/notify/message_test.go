package notify

import (
	"strings"
	"testing"

	goslack "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStartedBlocks(t *testing.T) {
	blocks := buildStartedBlocks("session-123", "https://codeagent.example.com")

	require.Len(t, blocks, 1)
	section, ok := blocks[0].(*goslack.SectionBlock)
	require.True(t, ok)
	assert.Contains(t, section.Text.Text, ":arrows_counterclockwise:")
	assert.Contains(t, section.Text.Text, "Processing started")
	assert.Contains(t, section.Text.Text, "https://codeagent.example.com/sessions/session-123")
}

func TestBuildEscalationBlocks(t *testing.T) {
	event := EscalationEvent{
		SessionID: "sess-1",
		Reason:    "validator retries exhausted",
		Detail:    "syntax error in generated patch",
		AttemptNo: 3,
	}
	blocks := buildEscalationBlocks(event, "https://dash.example.com")

	require.Len(t, blocks, 2)
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":rotating_light:")
	assert.Contains(t, header.Text.Text, "attempt 3")
	assert.Contains(t, header.Text.Text, "validator retries exhausted")
	assert.Contains(t, header.Text.Text, "syntax error in generated patch")

	action := blocks[1].(*goslack.ActionBlock)
	require.Len(t, action.Elements.ElementSet, 1)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Equal(t, "Review Session", btn.Text.Text)
	assert.Contains(t, btn.URL, "https://dash.example.com/sessions/sess-1")
}

func TestBuildCompletedBlocksCommitted(t *testing.T) {
	event := CompletedEvent{
		SessionID:        "sess-1",
		Status:           "committed",
		ExecutiveSummary: "Added retry logic to the HTTP client.",
	}
	blocks := buildCompletedBlocks(event, "https://dash.example.com")

	require.GreaterOrEqual(t, len(blocks), 3)
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":white_check_mark:")
	assert.Contains(t, header.Text.Text, "Change Committed")

	content := blocks[1].(*goslack.SectionBlock)
	assert.Contains(t, content.Text.Text, "Added retry logic to the HTTP client.")

	action := blocks[2].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Equal(t, "View Full Diff", btn.Text.Text)
}

func TestBuildCompletedBlocksCommittedNoSummary(t *testing.T) {
	event := CompletedEvent{SessionID: "sess-2", Status: "committed"}
	blocks := buildCompletedBlocks(event, "https://dash.example.com")

	require.Len(t, blocks, 2)
	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, "Change Committed")
}

func TestBuildCompletedBlocksExhausted(t *testing.T) {
	event := CompletedEvent{
		SessionID:    "sess-3",
		Status:       "exhausted",
		ErrorMessage: "validator retries exhausted after 3 attempts",
	}
	blocks := buildCompletedBlocks(event, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":no_entry_sign:")
	assert.Contains(t, header.Text.Text, "Retry Budget Exhausted")
	assert.Contains(t, header.Text.Text, "validator retries exhausted after 3 attempts")

	action := blocks[1].(*goslack.ActionBlock)
	btn := action.Elements.ElementSet[0].(*goslack.ButtonBlockElement)
	assert.Equal(t, "View Details", btn.Text.Text)
}

func TestBuildCompletedBlocksEscalated(t *testing.T) {
	event := CompletedEvent{SessionID: "sess-4", Status: "escalated"}
	blocks := buildCompletedBlocks(event, "https://dash.example.com")

	header := blocks[0].(*goslack.SectionBlock)
	assert.Contains(t, header.Text.Text, ":warning:")
	assert.Contains(t, header.Text.Text, "Escalated for Review")
}

func TestTruncateForSlack(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "hello", truncateForSlack("hello"))
	})

	t.Run("exact limit unchanged", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength)
		assert.Equal(t, text, truncateForSlack(text))
	})

	t.Run("over limit truncated", func(t *testing.T) {
		text := strings.Repeat("a", maxBlockTextLength+100)
		result := truncateForSlack(text)
		assert.True(t, len(result) < len(text))
		assert.Contains(t, result, "truncated")
	})
}
