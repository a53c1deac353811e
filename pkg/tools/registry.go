package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// maxTestRunsPerSession caps run_project_tests invocations (spec.md §4.2);
// pkg/config.Budgets.MaxTestRunsPerSession overrides this default per model
// config once pkg/feedback wires a shared counter in. Kept here as a safety
// net so a misconfigured session still can't loop test execution forever.
const maxTestRunsPerSession = 5

// Disk is what the executor needs from the real filesystem: single-file
// reads for VFS-fallback tools, plus a text-file walk for grep_search and
// show_file_relations' sibling lookup, which need to enumerate files VFS
// never touched.
type Disk interface {
	ReadFile(path string) (content string, ok bool, err error)
	WalkTextFiles(ctx context.Context) ([]string, error)
}

// Executor dispatches named tool calls to their handlers, VFS-first for
// every tool that touches project files (spec.md §4.2). One Executor is
// created per session; its VFS and project root change with the session.
type Executor struct {
	mu       sync.Mutex
	handlers map[string]registration

	projectDir string
	vfs        *vfs.VFS
	disk       Disk
	resolver   vfs.DependentsResolver
	index      CodeIndex
	tests      TestRunner
	packages   PackageManager
	external   ExternalClient

	testRunCount int
}

// Config wires an Executor's collaborators for one session. Any field left
// nil degrades gracefully: the corresponding tool returns a <error> block
// instead of panicking, so a session started before the project index or an
// external tool server is ready can still run the tools that don't need them.
type Config struct {
	ProjectDir string
	VFS        *vfs.VFS
	Disk       Disk
	Resolver   vfs.DependentsResolver
	Index      CodeIndex
	Tests      TestRunner
	Packages   PackageManager
	External   ExternalClient
}

// New builds an Executor with the full built-in tool registry (spec.md §4.2).
func New(cfg Config) *Executor {
	e := &Executor{
		handlers:   make(map[string]registration),
		projectDir: cfg.ProjectDir,
		vfs:        cfg.VFS,
		disk:       cfg.Disk,
		resolver:   cfg.Resolver,
		index:      cfg.Index,
		tests:      cfg.Tests,
		packages:   cfg.Packages,
		external:   cfg.External,
	}
	e.registerBuiltins()
	return e
}

func (e *Executor) register(schema Schema, handler Handler) {
	e.handlers[schema.Name] = registration{schema: schema, handler: handler}
}

func (e *Executor) registerBuiltins() {
	e.register(readFileSchema, e.readFile)
	e.register(readCodeChunkSchema, e.readCodeChunk)
	e.register(searchCodeSchema, e.searchCode)
	e.register(grepSearchSchema, e.grepSearch)
	e.register(showFileRelationsSchema, e.showFileRelations)
	e.register(runProjectTestsSchema, e.runProjectTests)
	e.register(listInstalledPackagesSchema, e.listInstalledPackages)
	e.register(installDependencySchema, e.installDependency)
	e.register(searchPypiSchema, e.searchPypi)
	e.register(webSearchSchema, e.webSearch)
	e.register(getAdviceSchema, e.getAdvice)
}

// Execute dispatches one tool call by name. An unknown tool name, like any
// other expected failure, renders as an <error> block rather than a Go error.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	e.mu.Lock()
	reg, ok := e.handlers[name]
	e.mu.Unlock()
	if !ok {
		return formatError(fmt.Sprintf("Unknown tool: %s", name)), nil
	}
	return reg.handler(ctx, args)
}

// Schemas returns every registered tool's schema, in registration order is
// not guaranteed; callers needing a stable order for CallWithTools should
// sort by Name.
func (e *Executor) Schemas() []Schema {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Schema, 0, len(e.handlers))
	for _, reg := range e.handlers {
		out = append(out, reg.schema)
	}
	return out
}

// UpdateVFS swaps the session's VFS, used when the agent pipeline moves from
// one feedback-loop attempt to the next without tearing down the executor.
func (e *Executor) UpdateVFS(v *vfs.VFS) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vfs = v
}

// UpdateIndex swaps the project index after a re-index completes.
func (e *Executor) UpdateIndex(idx CodeIndex) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.index = idx
}
