package tools

import (
	"context"
	"fmt"
	"time"
)

// TestRunResult is what a TestRunner reports back to run_project_tests.
type TestRunResult struct {
	Passed   bool
	Output   string // already capped to the caller's limit
	ExitCode int
	TimedOut bool
}

// TestRunner executes tests against the session's staged view of the
// project. Backed by pkg/runtimetest in the full pipeline (it owns language
// detection and the sandboxed execution path); a nil TestRunner makes
// run_project_tests report that test execution isn't available for this
// session, rather than silently no-op.
type TestRunner interface {
	RunTests(ctx context.Context, v VFSView, testPath, chunkName string, timeout time.Duration) (*TestRunResult, error)
}

// VFSView is the read-only slice of *vfs.VFS a TestRunner needs: the staged
// overlay, without handing it Stage/Commit access.
type VFSView interface {
	Read(path string) (string, bool)
	StagedFiles() []string
}

const maxTestOutputChars = 2000

func (e *Executor) runProjectTests(ctx context.Context, args map[string]any) (string, error) {
	testPath := stringArg(args, "test_path")
	if testPath == "" {
		return formatError("test_path is required"), nil
	}
	if e.tests == nil {
		return formatError("Test execution is not available for this session."), nil
	}

	e.mu.Lock()
	if e.testRunCount >= maxTestRunsPerSession {
		e.mu.Unlock()
		return formatError(fmt.Sprintf("run_project_tests limit reached (%d calls this session)", maxTestRunsPerSession)), nil
	}
	e.testRunCount++
	e.mu.Unlock()

	chunkName := stringArg(args, "chunk_name")
	timeoutSec := intArg(args, "timeout_sec", 30)
	if timeoutSec > 60 {
		timeoutSec = 60
	}
	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	var view VFSView
	if e.vfs != nil {
		view = e.vfs
	}

	result, err := e.tests.RunTests(ctx, view, testPath, chunkName, time.Duration(timeoutSec)*time.Second)
	if err != nil {
		return formatError(fmt.Sprintf("run_project_tests failed: %s", err)), nil
	}

	output := result.Output
	if len(output) > maxTestOutputChars {
		output = output[:maxTestOutputChars] + "\n... [truncated]"
	}

	status := "passed"
	if result.TimedOut {
		status = "timed_out"
	} else if !result.Passed {
		status = "failed"
	}

	return fmt.Sprintf(
		"<test_result path=%q status=%q exit_code=\"%d\">\n<output><![CDATA[\n%s\n]]></output>\n</test_result>",
		testPath, status, result.ExitCode, output,
	), nil
}
