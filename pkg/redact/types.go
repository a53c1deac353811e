// Package redact masks secrets and PII out of tool arguments, tool results,
// and escalation notifications before they reach a prompt, a log line, or a
// user-facing message (generalized from the teacher's pkg/masking).
package redact

import "regexp"

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// resolvedPatterns holds the resolved set of maskers and patterns for one
// masking operation.
type resolvedPatterns struct {
	codeMaskerNames []string
	regexPatterns   []*CompiledPattern
}

// Masker is a code-based masker for content a regex cannot safely express —
// it needs structural awareness (parse, then mask specific fields) rather
// than a single pattern match.
type Masker interface {
	// Name returns the unique identifier for this masker. Must match a name
	// in config.GetBuiltinConfig().CodeMaskers.
	Name() string

	// AppliesTo performs a cheap, non-parsing check on whether this masker
	// should process the data.
	AppliesTo(data string) bool

	// Mask applies masking logic and returns the masked result. Must be
	// defensive: return the original data on parse/processing errors.
	Mask(data string) string
}
