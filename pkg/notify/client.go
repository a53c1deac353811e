package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"
)

// slackClient is a thin wrapper around the slack-go SDK.
type slackClient struct {
	api       *goslack.Client
	channelID string
	logger    *slog.Logger
}

func newSlackClient(token, channelID string) *slackClient {
	return &slackClient{
		api:       goslack.New(token),
		channelID: channelID,
		logger:    slog.Default().With("component", "notify-slack-client"),
	}
}

// newSlackClientWithAPIURL targets a custom API URL, for testing against a
// mock server.
func newSlackClientWithAPIURL(token, channelID, apiURL string) *slackClient {
	return &slackClient{
		api:       goslack.New(token, goslack.OptionAPIURL(apiURL)),
		channelID: channelID,
		logger:    slog.Default().With("component", "notify-slack-client"),
	}
}

// postMessage sends a message to the configured channel. If threadTS is
// non-empty, the message is posted as a threaded reply.
func (c *slackClient) postMessage(ctx context.Context, blocks []goslack.Block, threadTS string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := []goslack.MsgOption{
		goslack.MsgOptionBlocks(blocks...),
	}
	if threadTS != "" {
		opts = append(opts, goslack.MsgOptionTS(threadTS))
	}

	_, _, err := c.api.PostMessageContext(ctx, c.channelID, opts...)
	if err != nil {
		return fmt.Errorf("chat.postMessage failed: %w", err)
	}
	return nil
}

// findMessageByFingerprint searches recent channel history for a message
// containing the given fingerprint text. Pages through up to 1000 messages
// from the last 24 hours. Returns the message timestamp (ts) for threading,
// or empty string if not found.
func (c *slackClient) findMessageByFingerprint(ctx context.Context, fingerprint string) (string, error) {
	oldest := fmt.Sprintf("%d", time.Now().Add(-24*time.Hour).Unix())
	normalizedFingerprint := normalizeText(fingerprint)

	params := &goslack.GetConversationHistoryParameters{
		ChannelID: c.channelID,
		Oldest:    oldest,
		Limit:     200,
	}

	const maxPages = 5
	for page := 0; page < maxPages; page++ {
		history, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("conversations.history failed: %w", err)
		}

		for _, msg := range history.Messages {
			text := collectMessageText(msg)
			if strings.Contains(normalizeText(text), normalizedFingerprint) {
				return msg.Timestamp, nil
			}
		}

		if !history.HasMore || history.ResponseMetaData.NextCursor == "" {
			break
		}
		params.Cursor = history.ResponseMetaData.NextCursor
	}

	return "", nil
}
