package context

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/mcp"
)

// caller is the seam to the LLM Dispatch Layer (C1). Compressor only ever
// needs a single non-streaming call against its dedicated cheap model, the
// same narrow slice pkg/agent/controller/summarize.go's own summarization
// helper uses off the shared dispatcher.
type caller interface {
	Call(ctx context.Context, modelID string, messages []llm.Message, opts llm.CallOptions) (*llm.Response, error)
}

// Compressor implements MaybeCompress for both proactive and reactive
// triggers (spec.md §4.8).
type Compressor struct {
	dispatcher caller
	cfg        config.CompressionConfig
	logger     *slog.Logger
}

// New builds a Compressor. A nil logger falls back to slog.Default().
func New(dispatcher caller, cfg config.CompressionConfig, logger *slog.Logger) *Compressor {
	if logger == nil {
		logger = slog.Default()
	}
	keepLast := cfg.KeepLastMessages
	if keepLast <= 0 {
		keepLast = 4
	}
	targetFraction := cfg.TargetFraction
	if targetFraction <= 0 {
		targetFraction = 0.5
	}
	cfg.KeepLastMessages = keepLast
	cfg.TargetFraction = targetFraction
	return &Compressor{dispatcher: dispatcher, cfg: cfg, logger: logger.With("component", "context-compressor")}
}

// MaybeCompress checks (in ModeProactive) or unconditionally acts (in
// ModeReactive — the caller only invokes this after the dispatch layer has
// already surfaced context_overflow) to keep conv within windowTokens. A
// windowTokens of 0 uses cfg.HistoryThresholdTokens as the trigger and
// target-size basis.
func (c *Compressor) MaybeCompress(ctx context.Context, conv *Conversation, mode Mode, windowTokens int) (*Conversation, bool, error) {
	threshold := c.triggerThreshold(windowTokens)

	if mode == ModeProactive && threshold > 0 {
		if estimateConversationTokens(conv) <= threshold {
			return conv, false, nil
		}
	}

	compressed, err := c.compress(ctx, conv)
	if err != nil {
		c.logger.Warn("compression failed, falling back to truncation", "error", err)
		return c.fallbackTruncate(conv), true, nil
	}
	return compressed, true, nil
}

func (c *Compressor) triggerThreshold(windowTokens int) int {
	if windowTokens > 0 {
		return int(float64(windowTokens) * c.cfg.TargetFraction)
	}
	return c.cfg.HistoryThresholdTokens
}

// compress preserves (a) the original user request verbatim, (b) the last
// KeepLastMessages messages, (c) every code block ever produced, and
// replaces everything else with a single abstract message from the
// dedicated compressor model (spec.md §4.8).
func (c *Compressor) compress(ctx context.Context, conv *Conversation) (*Conversation, error) {
	if c.cfg.CompressorModel == "" {
		return nil, fmt.Errorf("no compressor model configured")
	}

	keep := c.cfg.KeepLastMessages
	if keep > len(conv.Messages) {
		keep = len(conv.Messages)
	}
	toSummarize := conv.Messages[:len(conv.Messages)-keep]
	kept := conv.Messages[len(conv.Messages)-keep:]

	if len(toSummarize) == 0 {
		return conv.clone(), nil
	}

	prompt := buildAbstractPrompt(conv.UserRequest, toSummarize)
	resp, err := c.dispatcher.Call(ctx, c.cfg.CompressorModel, []llm.Message{
		{Role: llm.RoleSystem, Content: "Summarize the following agent conversation into a short abstract. Preserve any decisions, file paths, and open issues. Do not invent details."},
		{Role: llm.RoleUser, Content: prompt},
	}, llm.CallOptions{})
	if err != nil {
		return nil, fmt.Errorf("compressor model call failed: %w", err)
	}
	abstract := strings.TrimSpace(resp.Message.Content)
	if abstract == "" {
		return nil, fmt.Errorf("compressor model returned an empty abstract")
	}

	out := &Conversation{UserRequest: conv.UserRequest, CodeBlocks: append([]string{}, conv.CodeBlocks...)}
	out.Messages = append(out.Messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: "[Earlier conversation summarized to preserve context window]\n\n" + abstract,
	})
	out.Messages = append(out.Messages, kept...)
	return out, nil
}

// fallbackTruncate drops the oldest non-code messages (spec.md §4.8's
// documented fallback) when the compressor model itself fails, keeping the
// original request and the last KeepLastMessages messages intact.
func (c *Compressor) fallbackTruncate(conv *Conversation) *Conversation {
	keep := c.cfg.KeepLastMessages
	if keep > len(conv.Messages) {
		keep = len(conv.Messages)
	}
	out := &Conversation{UserRequest: conv.UserRequest, CodeBlocks: append([]string{}, conv.CodeBlocks...)}
	out.Messages = append(out.Messages, conv.Messages[len(conv.Messages)-keep:]...)
	return out
}

func buildAbstractPrompt(userRequest string, messages []llm.Message) string {
	var sb strings.Builder
	sb.WriteString("Original request: ")
	sb.WriteString(userRequest)
	sb.WriteString("\n\nConversation to summarize:\n")
	for _, m := range messages {
		sb.WriteByte('[')
		sb.WriteString(string(m.Role))
		sb.WriteString("]: ")
		sb.WriteString(mcp.TruncateForSummarization(m.Content))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func estimateConversationTokens(conv *Conversation) int {
	total := mcp.EstimateTokens(conv.UserRequest)
	for _, m := range conv.Messages {
		total += mcp.EstimateTokens(m.Content)
	}
	for _, b := range conv.CodeBlocks {
		total += mcp.EstimateTokens(b)
	}
	return total
}
