package validator

import (
	"context"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

const maxTracebackChars = 2000

// ImportCheckResult is one changed module's outcome from spawning a child
// interpreter that does nothing but import it (spec.md §4.4 level 5).
type ImportCheckResult struct {
	Module    string
	OK        bool
	Traceback string
}

// Interpreter spawns the child process that performs the bare import check.
// A nil Interpreter skips this level with an INFO issue rather than a false
// pass, matching how the other external-collaborator levels degrade.
type Interpreter interface {
	CheckImports(ctx context.Context, dir string, modules []string) ([]ImportCheckResult, error)
}

type runtimeChecker struct {
	interpreter Interpreter
}

func (c *runtimeChecker) Level() config.ValidationLevel { return config.LevelRuntime }

func (c *runtimeChecker) Check(ctx context.Context, v *vfs.VFS, changed, _ []string) ([]Issue, error) {
	if c.interpreter == nil {
		return []Issue{{
			Level:    config.LevelRuntime,
			Severity: SeverityInfo,
			Message:  "runtime import check skipped: no interpreter configured for this session",
		}}, nil
	}
	if len(changed) == 0 {
		return nil, nil
	}

	dir, cleanup, err := materialize(v, changed)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	results, err := c.interpreter.CheckImports(ctx, dir, changed)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, r := range results {
		if r.OK {
			continue
		}
		tb := r.Traceback
		if len(tb) > maxTracebackChars {
			tb = tb[:maxTracebackChars] + "\n... [truncated]"
		}
		issues = append(issues, Issue{
			Level:    config.LevelRuntime,
			Severity: SeverityError,
			File:     r.Module,
			Message:  tb,
		})
	}
	return issues, nil
}
