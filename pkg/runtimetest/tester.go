package runtimetest

import (
	"context"
	"fmt"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// ProcessRunner spawns and bounds the single child process each smoke-test
// procedure needs. Implementations are responsible for killing any leaked
// process on scope exit (spec.md §4.5) — Tester only supplies a bounded
// ctx, it never tracks PIDs itself.
type ProcessRunner interface {
	// Run executes command with args inside dir for the script/CLI
	// procedure, returning combined stdout+stderr and the exit code.
	Run(ctx context.Context, dir, command string, args []string) (output string, exitCode int, timedOut bool, err error)

	// Probe waits for a readiness signal (TCP port, health endpoint) up to
	// ctx's deadline, used only for the "service" procedure.
	Probe(ctx context.Context, dir, command string, args []string) (ready bool, output string, err error)

	// Import performs a headless "does this even load" check with no
	// other side effects, used for the GUI/game procedure.
	Import(ctx context.Context, dir, entrypoint string) (ok bool, output string, err error)
}

// Tester runs the bounded, per-type smoke procedure (spec.md §4.5).
type Tester struct {
	runner  ProcessRunner
	timeout *TimeoutCalculator
}

// NewTester builds a Tester. A nil runner makes every procedure report
// "not available" instead of silently claiming a pass.
func NewTester(runner ProcessRunner, timeout *TimeoutCalculator) *Tester {
	if timeout == nil {
		timeout = NewTimeoutCalculator()
	}
	return &Tester{runner: runner, timeout: timeout}
}

// Run executes the procedure matching cls.AppType, bounded by the Timeout
// Calculator's result for size. entrypoint is the module/command the
// caller determined to be the project's entrypoint; Run does not discover
// it itself.
func (t *Tester) Run(ctx context.Context, projectRoot string, size ProjectSize, cls Classification, entrypoint string) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout.For(size))
	defer cancel()

	switch cls.AppType {
	case config.AppTypeWeb:
		return &Summary{
			AppType: cls.AppType,
			Ran:     false,
			Note:    "web app detected; skipped runtime test, import-level checks only",
		}, nil
	case config.AppTypeService:
		return t.runService(ctx, projectRoot, entrypoint)
	case config.AppTypeGUIGame:
		return t.runHeadlessImport(ctx, projectRoot, entrypoint)
	case config.AppTypeScriptCLI:
		return t.runScript(ctx, projectRoot, entrypoint)
	default:
		return &Summary{AppType: cls.AppType, Ran: false, Note: "unknown application type; runtime test skipped"}, nil
	}
}

func (t *Tester) runScript(ctx context.Context, dir, entrypoint string) (*Summary, error) {
	if t.runner == nil {
		return &Summary{AppType: config.AppTypeScriptCLI, Note: "no process runner configured for this session"}, nil
	}
	output, exitCode, timedOut, err := t.runner.Run(ctx, dir, entrypoint, []string{"--help"})
	if err != nil {
		return nil, fmt.Errorf("running %s --help: %w", entrypoint, err)
	}
	return &Summary{
		AppType:  config.AppTypeScriptCLI,
		Ran:      true,
		Passed:   !timedOut && exitCode == 0,
		ExitCode: exitCode,
		Output:   truncate(output),
		TimedOut: timedOut,
	}, nil
}

func (t *Tester) runService(ctx context.Context, dir, entrypoint string) (*Summary, error) {
	if t.runner == nil {
		return &Summary{AppType: config.AppTypeService, Note: "no process runner configured for this session"}, nil
	}
	ready, output, err := t.runner.Probe(ctx, dir, entrypoint, nil)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", entrypoint, err)
	}
	return &Summary{
		AppType:  config.AppTypeService,
		Ran:      true,
		Passed:   ready,
		TimedOut: !ready && ctx.Err() != nil,
		Output:   truncate(output),
	}, nil
}

func (t *Tester) runHeadlessImport(ctx context.Context, dir, entrypoint string) (*Summary, error) {
	if t.runner == nil {
		return &Summary{AppType: config.AppTypeGUIGame, Note: "no process runner configured for this session"}, nil
	}
	ok, output, err := t.runner.Import(ctx, dir, entrypoint)
	if err != nil {
		return nil, fmt.Errorf("headless import of %s: %w", entrypoint, err)
	}
	return &Summary{AppType: config.AppTypeGUIGame, Ran: true, Passed: ok, Output: truncate(output)}, nil
}

func truncate(s string) string {
	if len(s) > OutputLimit {
		return s[:OutputLimit] + "\n... [truncated]"
	}
	return s
}
