package validator

import (
	"context"
	"time"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

const maxTestIssueOutputChars = 2000

// TestTarget is one test this level discovered for a changed file, by
// naming convention or location (spec.md §4.4 level 6).
type TestTarget struct {
	Path      string
	ChunkName string // empty runs the whole file
}

// TestOutcome is what a TestRunner reports back for one TestTarget.
type TestOutcome struct {
	Passed   bool
	Output   string
	TimedOut bool
}

// TestDiscoverer finds the tests associated with a set of changed files.
// A nil TestDiscoverer skips this level with an INFO issue.
type TestDiscoverer interface {
	Discover(ctx context.Context, changed []string) ([]TestTarget, error)
}

// TestRunner executes one discovered target inside the materialized
// directory. Distinct from pkg/tools' TestRunner: this one drives the
// validator's own automatic pass, not the orchestrator's budgeted
// run_project_tests tool call.
type TestRunner interface {
	RunTest(ctx context.Context, dir string, target TestTarget, timeout time.Duration) (*TestOutcome, error)
}

type testsChecker struct {
	discoverer TestDiscoverer
	runner     TestRunner
}

func (c *testsChecker) Level() config.ValidationLevel { return config.LevelTests }

func (c *testsChecker) Check(ctx context.Context, v *vfs.VFS, changed, _ []string) ([]Issue, error) {
	if c.discoverer == nil {
		return []Issue{{
			Level:    config.LevelTests,
			Severity: SeverityInfo,
			Message:  "test discovery skipped: no discoverer configured for this session",
		}}, nil
	}

	targets, err := c.discoverer.Discover(ctx, changed)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}
	if c.runner == nil {
		return []Issue{{
			Level:    config.LevelTests,
			Severity: SeverityInfo,
			Message:  "tests discovered but no test runner configured for this session",
		}}, nil
	}

	files := append([]string{}, changed...)
	for _, t := range targets {
		files = append(files, t.Path)
	}
	dir, cleanup, err := materialize(v, uniqueStrings(files))
	defer cleanup()
	if err != nil {
		return nil, err
	}

	timeout := timeoutForChangeSize(len(changed))
	var issues []Issue
	for _, target := range targets {
		outcome, err := c.runner.RunTest(ctx, dir, target, timeout)
		if err != nil {
			issues = append(issues, Issue{Level: config.LevelTests, Severity: SeverityError, File: target.Path, Message: err.Error()})
			continue
		}
		if outcome.TimedOut {
			issues = append(issues, Issue{Level: config.LevelTests, Severity: SeverityError, File: target.Path, Message: "test timed out"})
			continue
		}
		if !outcome.Passed {
			out := outcome.Output
			if len(out) > maxTestIssueOutputChars {
				out = out[:maxTestIssueOutputChars] + "\n... [truncated]"
			}
			issues = append(issues, Issue{Level: config.LevelTests, Severity: SeverityError, File: target.Path, Message: out})
		}
	}
	return issues, nil
}

// timeoutForChangeSize derives a per-file timeout from a coarse project
// size proxy (the changed-set size), capped at 60s (spec.md §4.4/§4.5).
func timeoutForChangeSize(changedCount int) time.Duration {
	switch {
	case changedCount <= 3:
		return 20 * time.Second
	case changedCount <= 15:
		return 40 * time.Second
	default:
		return 60 * time.Second
	}
}
