package validator

import (
	"context"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// TypeIssue is one finding an external type checker reports, prior to
// Severity assignment (spec.md §4.4 level 3: "non-critical warnings are
// downgraded").
type TypeIssue struct {
	File     string
	Line     int
	Column   int
	Message  string
	Critical bool
}

// TypeChecker runs an external type checker (mypy/pyright-class tooling)
// over a directory materialized from the VFS. A nil TypeChecker makes the
// level report a single INFO issue instead of a false pass.
type TypeChecker interface {
	CheckTypes(ctx context.Context, dir string, files []string) ([]TypeIssue, error)
}

type typesChecker struct {
	checker TypeChecker
}

func (c *typesChecker) Level() config.ValidationLevel { return config.LevelTypes }

func (c *typesChecker) Check(ctx context.Context, v *vfs.VFS, changed, dependents []string) ([]Issue, error) {
	if c.checker == nil {
		return []Issue{{
			Level:    config.LevelTypes,
			Severity: SeverityInfo,
			Message:  "type checking skipped: no type checker configured for this session",
		}}, nil
	}

	affected := uniqueStrings(append(append([]string{}, changed...), dependents...))
	dir, cleanup, err := materialize(v, affected)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	found, err := c.checker.CheckTypes(ctx, dir, affected)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(found))
	for _, ti := range found {
		sev := SeverityWarning
		if ti.Critical {
			sev = SeverityError
		}
		issues = append(issues, Issue{
			Level:    config.LevelTypes,
			Severity: sev,
			File:     ti.File,
			Line:     ti.Line,
			Column:   ti.Column,
			Message:  ti.Message,
		})
	}
	return issues, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
