// Package validator implements the Change Validator (spec.md §4.4): six
// ordered levels run against a session's VFS, producing a single
// ValidationResult. Syntax is the only blocking level; every other level
// still runs even when an earlier one fails, unless the session's config
// disables it outright.
package validator

import (
	"context"
	"sort"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// Severity ranks an Issue for sort order and for the feedback controller's
// priority mapping (spec.md §4.6).
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// levelOrder is config.AllValidationLevels under a local name: the fixed
// run order and the issue sort key's level position (spec.md §4.4).
var levelOrder = config.AllValidationLevels

func levelRank(l config.ValidationLevel) int {
	for i, lvl := range levelOrder {
		if lvl == l {
			return i
		}
	}
	return len(levelOrder)
}

// Issue is one finding from a single level, always attributable to a file
// (and a line when the underlying tool reports one).
type Issue struct {
	Level      config.ValidationLevel
	Severity   Severity
	File       string
	Line       int
	Column     int
	Message    string
	Package    string // PyPI (or equivalent) package name, set only by the imports level
	Suggestion string
}

// ValidationResult is the Pipeline's sole output (spec.md §4.4).
type ValidationResult struct {
	LevelsPassed []config.ValidationLevel
	LevelsFailed []config.ValidationLevel
	Issues       []Issue
}

// Passed reports whether no level produced a blocking failure. The caller
// (feedback controller) decides what to do with non-blocking issues; this
// only reflects whether the blocking syntax level passed.
func (r *ValidationResult) Passed() bool {
	for _, l := range r.LevelsFailed {
		if l.Blocking() {
			return false
		}
	}
	return true
}

func (r *ValidationResult) addIssues(level config.ValidationLevel, failed bool, issues []Issue) {
	if failed {
		r.LevelsFailed = append(r.LevelsFailed, level)
	} else {
		r.LevelsPassed = append(r.LevelsPassed, level)
	}
	r.Issues = append(r.Issues, issues...)
}

func (r *ValidationResult) sortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity // most severe first
		}
		if ra, rb := levelRank(a.Level), levelRank(b.Level); ra != rb {
			return ra < rb
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
}

// checker is one level's implementation. files is the changed set for most
// levels; the integration checker additionally needs dependents, obtained
// separately by the Pipeline via vfs.AffectedFiles.
type checker interface {
	Level() config.ValidationLevel
	Check(ctx context.Context, v *vfs.VFS, changed, dependents []string) ([]Issue, error)
}
