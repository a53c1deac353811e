// Package runtimetest implements the Runtime Tester (C5, spec.md §4.5): a
// static application-type classifier followed by a bounded, per-type smoke
// test procedure. It never guesses silently — classification either finds a
// concrete framework marker or reports AppTypeUnknown with the scan notes
// that led there.
package runtimetest

import (
	"time"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// Marker is the framework signal the Classifier matched to produce an
// AppType, kept on the result so callers can explain the classification
// rather than trusting an opaque label.
type Marker struct {
	Description string // e.g. "found manage.py (Django)"
	File        string
}

// Classification is the Classifier's output for one project root.
type Classification struct {
	AppType config.AppType
	Marker  *Marker // nil only when AppType is AppTypeUnknown
}

// Summary is what Tester.Run reports back: a bounded, honest smoke signal,
// never a pass/fail verdict stronger than what was actually exercised.
type Summary struct {
	AppType  config.AppType
	Ran      bool // false for the "web" type, which is never executed
	Passed   bool
	ExitCode int
	Output   string // stdout/stderr tail, truncated to OutputLimit
	TimedOut bool
	Note     string // e.g. "web app detected; skipped runtime test, import-level checks only"
}

// OutputLimit is the fixed character budget runtime test output is
// truncated to (spec.md §4.5, default 2000).
const OutputLimit = 2000

// MaxTimeout is the hard ceiling the Timeout Calculator never exceeds
// (spec.md §4.5).
const MaxTimeout = 60 * time.Second
