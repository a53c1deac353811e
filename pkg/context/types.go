// Package context implements the Intra-Session Context Compressor (C8,
// spec.md §4.8): keeps a long-running orchestrator conversation within a
// model's prompt window by collapsing older turns into one summary message
// while preserving the pieces later turns can't do without.
package context

import (
	"github.com/codeagent-run/codeagent/pkg/llm"
)

// Mode selects when MaybeCompress checks whether to act (spec.md §4.8).
type Mode int

const (
	// ModeProactive checks before every call, for models with tight windows
	// or fragile reasoning artifacts.
	ModeProactive Mode = iota
	// ModeReactive only compresses once the dispatch layer has already
	// surfaced a context_overflow error.
	ModeReactive
)

// Conversation is the orchestrator's running message history plus the two
// things the compressor must never lose: the original request, and every
// code block the generator has produced so far (spec.md §4.8 (a)/(c)).
type Conversation struct {
	UserRequest string
	Messages    []llm.Message
	CodeBlocks  []string
}

// clone makes a conversation independent of the caller's slices, so a
// failed compression attempt can't leave the original partially mutated.
func (c *Conversation) clone() *Conversation {
	out := &Conversation{UserRequest: c.UserRequest}
	out.Messages = append(out.Messages, c.Messages...)
	out.CodeBlocks = append(out.CodeBlocks, c.CodeBlocks...)
	return out
}
