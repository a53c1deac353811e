package validator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// Pipeline runs the six validation levels in spec.md order against a
// session's VFS, skipping any level the config disables. It holds no
// per-session state of its own: every dependency a level needs (type
// checker, interpreter, test runner, dependents resolver) is injected once
// at construction and reused across sessions.
type Pipeline struct {
	cfg      *config.Config
	resolver vfs.DependentsResolver
	checkers map[config.ValidationLevel]checker
	logger   *slog.Logger
}

// Deps bundles the external collaborators each level may need. Any field
// left nil degrades that level to reporting a single INFO issue that the
// level was skipped for lack of a backing implementation, rather than
// silently reporting success.
type Deps struct {
	Resolver       vfs.DependentsResolver
	SyntaxFixer    Fixer
	PackageIndex   PackageIndex
	TypeChecker    TypeChecker
	Interpreter    Interpreter
	TestDiscoverer TestDiscoverer
	TestRunner     TestRunner
	Logger         *slog.Logger
}

// New builds a Pipeline wired against cfg and the given collaborators.
func New(cfg *config.Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		cfg:      cfg,
		resolver: deps.Resolver,
		logger:   logger,
	}
	p.checkers = map[config.ValidationLevel]checker{
		config.LevelSyntax:      &syntaxChecker{fixer: deps.SyntaxFixer},
		config.LevelImports:     &importsChecker{index: deps.PackageIndex},
		config.LevelTypes:       &typesChecker{checker: deps.TypeChecker},
		config.LevelIntegration: &integrationChecker{strictness: cfg.Integration},
		config.LevelRuntime:     &runtimeChecker{interpreter: deps.Interpreter},
		config.LevelTests:       &testsChecker{discoverer: deps.TestDiscoverer, runner: deps.TestRunner},
	}
	return p
}

// Run executes every enabled level in spec.md's fixed order. Syntax is the
// only blocking level: a syntax failure still lets later levels run (the
// spec only marks it as the level whose failure the feedback controller
// treats as critical), but the Pipeline stops immediately if the context is
// cancelled.
func (p *Pipeline) Run(ctx context.Context, v *vfs.VFS) (*ValidationResult, error) {
	changed, dependents, err := v.AffectedFiles(ctx, p.resolver)
	if err != nil {
		return nil, fmt.Errorf("resolving affected files: %w", err)
	}

	result := &ValidationResult{}
	for _, level := range levelOrder {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if !p.cfg.LevelEnabled(level) {
			continue
		}

		c := p.checkers[level]
		issues, err := c.Check(ctx, v, changed, dependents)
		if err != nil {
			p.logger.Error("validation level failed to run", "level", level, "error", err)
			issues = append(issues, Issue{
				Level:    level,
				Severity: SeverityError,
				Message:  fmt.Sprintf("level %s could not run: %s", level, err),
			})
		}

		failed := issueSeverityAtLeast(issues, SeverityError)
		result.addIssues(level, failed, issues)
	}

	result.sortIssues()
	return result, nil
}

func issueSeverityAtLeast(issues []Issue, min Severity) bool {
	for _, i := range issues {
		if i.Severity >= min {
			return true
		}
	}
	return false
}
