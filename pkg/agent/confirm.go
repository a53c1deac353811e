package agent

import "context"

// ConfirmationPreview is what the user sees on step 9 (spec.md §4.7): the
// affected-files set (staged files plus their one-level dependents) and a
// diff preview per file.
type ConfirmationPreview struct {
	AffectedFiles []string
	Dependents    []string
	Diffs         map[string]string // file path -> unified diff text
}

// ConfirmDecision is the user's answer to a ConfirmationPreview.
type ConfirmDecision struct {
	Accepted bool
	// Justification, when rejecting, is folded into the next revision's
	// feedback the same way feedback.AcceptOverride folds a validator
	// override justification in.
	Justification string
}

// Confirmer blocks Pipeline.Handle on the user's accept/cancel action. An
// HTTP handler implementation parks the goroutine on a channel until the
// paired confirm/cancel endpoint is hit, preserving spec.md's "one call per
// user request" framing even though a human is in the loop partway
// through.
type Confirmer interface {
	Confirm(ctx context.Context, sessionID string, preview ConfirmationPreview) (ConfirmDecision, error)
}
