package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/vfs"
)

type stubDisk struct {
	files map[string]string
}

func (d stubDisk) ReadFile(path string) (string, bool, error) {
	c, ok := d.files[path]
	return c, ok, nil
}

func (d stubDisk) WalkTextFiles(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(d.files))
	for p := range d.files {
		out = append(out, p)
	}
	return out, nil
}

type memDisk struct {
	files map[string]string
}

func (d memDisk) ReadFile(path string) (string, bool, error) {
	c, ok := d.files[path]
	return c, ok, nil
}
func (d memDisk) WriteFile(path, content string) error { d.files[path] = content; return nil }
func (d memDisk) Remove(path string) error              { delete(d.files, path); return nil }

type noopBackups struct{}

func (noopBackups) Backup(_ context.Context, _ string, _ string, _ bool) error { return nil }
func (noopBackups) Restore(_ context.Context, _ string) (string, bool, error) {
	return "", false, nil
}

func newTestExecutor(files map[string]string) (*Executor, *vfs.VFS) {
	disk := memDisk{files: files}
	v := vfs.New(disk, noopBackups{})
	e := New(Config{
		ProjectDir: "/project",
		VFS:        v,
		Disk:       stubDisk{files: files},
	})
	return e, v
}

func TestExecuteUnknownTool(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "does_not_exist", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Unknown tool: does_not_exist")
}

func TestSchemasReturnsAllBuiltins(t *testing.T) {
	e, _ := newTestExecutor(nil)
	names := make(map[string]bool)
	for _, s := range e.Schemas() {
		names[s.Name] = true
	}
	for _, want := range []string{
		"read_file", "read_code_chunk", "search_code", "grep_search",
		"show_file_relations", "run_project_tests", "list_installed_packages",
		"install_dependency", "search_pypi", "web_search", "get_advice",
	} {
		assert.True(t, names[want], "missing schema for %s", want)
	}
}

func TestReadFileVFSFirst(t *testing.T) {
	e, v := newTestExecutor(map[string]string{"a.py": "on disk"})
	v.Stage("a.py", "staged content")

	out, err := e.Execute(context.Background(), "read_file", map[string]any{"file_path": "a.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "Source: VFS")
	assert.Contains(t, out, "staged content")
}

func TestReadFileFallsBackToDisk(t *testing.T) {
	e, _ := newTestExecutor(map[string]string{"a.py": "on disk"})

	out, err := e.Execute(context.Background(), "read_file", map[string]any{"file_path": "a.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "Source: disk")
	assert.Contains(t, out, "on disk")
}

func TestReadFileRejectsPathTraversal(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "read_file", map[string]any{"file_path": "../../etc/passwd"})
	require.NoError(t, err)
	assert.Contains(t, out, "Access denied")
}

func TestReadFileMissingReportsError(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "read_file", map[string]any{"file_path": "missing.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "File not found")
}

func TestReadCodeChunkExtractsNamedFunction(t *testing.T) {
	src := "def helper():\n    return 1\n\n\ndef target():\n    x = 1\n    return x\n\n\ndef after():\n    pass\n"
	e, _ := newTestExecutor(map[string]string{"m.py": src})

	out, err := e.Execute(context.Background(), "read_code_chunk", map[string]any{"file_path": "m.py", "chunk_name": "target"})
	require.NoError(t, err)
	assert.Contains(t, out, "<name>target</name>")
	assert.Contains(t, out, "def target():")
	assert.NotContains(t, out, "def after")
}

func TestReadCodeChunkNotFound(t *testing.T) {
	e, _ := newTestExecutor(map[string]string{"m.py": "def foo():\n    pass\n"})
	out, err := e.Execute(context.Background(), "read_code_chunk", map[string]any{"file_path": "m.py", "chunk_name": "bar"})
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestGrepSearchFindsAcrossVFSAndDisk(t *testing.T) {
	e, v := newTestExecutor(map[string]string{"disk.py": "needle here\nother line"})
	v.Stage("staged.py", "also has needle")

	out, err := e.Execute(context.Background(), "grep_search", map[string]any{"pattern": "needle"})
	require.NoError(t, err)
	assert.Contains(t, out, "disk.py")
	assert.Contains(t, out, "staged.py")
	assert.Contains(t, out, `vfs_files="1"`)
}

func TestGrepSearchRequiresPattern(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "grep_search", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "pattern is required")
}

func TestGrepSearchInvalidRegex(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "grep_search", map[string]any{"pattern": "(unclosed", "use_regex": true})
	require.NoError(t, err)
	assert.Contains(t, out, "Invalid regex pattern")
}

type stubIndex struct {
	results []CodeSearchResult
	err     error
}

func (s stubIndex) Search(_ context.Context, _ string, _ string) ([]CodeSearchResult, error) {
	return s.results, s.err
}

func TestSearchCodeWithNilIndex(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "search_code", map[string]any{"query": "Foo"})
	require.NoError(t, err)
	assert.Contains(t, out, "No index available")
}

func TestSearchCodeReturnsResults(t *testing.T) {
	e, _ := newTestExecutor(nil)
	e.UpdateIndex(stubIndex{results: []CodeSearchResult{
		{FilePath: "a.py", Name: "Foo", ResultType: "class", LineStart: 1, LineEnd: 10, Context: "class Foo"},
	}})

	out, err := e.Execute(context.Background(), "search_code", map[string]any{"query": "foo"})
	require.NoError(t, err)
	assert.Contains(t, out, "Foo")
	assert.Contains(t, out, "a.py")
}

func TestSearchCodeNoResults(t *testing.T) {
	e, _ := newTestExecutor(nil)
	e.UpdateIndex(stubIndex{})
	out, err := e.Execute(context.Background(), "search_code", map[string]any{"query": "missing"})
	require.NoError(t, err)
	assert.Contains(t, out, "No results found")
}

func TestShowFileRelationsReportsImports(t *testing.T) {
	e, _ := newTestExecutor(map[string]string{
		"pkg/a.py": "import os\nfrom pkg.util import helper\n",
		"pkg/b.py": "x = 1",
	})
	out, err := e.Execute(context.Background(), "show_file_relations", map[string]any{"file_path": "pkg/a.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "<import>os</import>")
	assert.Contains(t, out, "<sibling>pkg/b.py</sibling>")
}

func TestShowFileRelationsMissingFile(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "show_file_relations", map[string]any{"file_path": "missing.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "File not found")
}

type stubTests struct {
	result *TestRunResult
	err    error
	calls  int
}

func (s *stubTests) RunTests(_ context.Context, _ VFSView, _ string, _ string, _ time.Duration) (*TestRunResult, error) {
	s.calls++
	return s.result, s.err
}

func TestRunProjectTestsNotAvailable(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "run_project_tests", map[string]any{"test_path": "t.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "not available")
}

func TestRunProjectTestsRequiresPath(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "run_project_tests", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "test_path is required")
}

func TestRunProjectTestsSucceeds(t *testing.T) {
	e, _ := newTestExecutor(nil)
	runner := &stubTests{result: &TestRunResult{Passed: true, Output: "ok", ExitCode: 0}}
	e.tests = runner

	out, err := e.Execute(context.Background(), "run_project_tests", map[string]any{"test_path": "tests/test_calc.py"})
	require.NoError(t, err)
	assert.Contains(t, out, `status="passed"`)
	assert.Equal(t, 1, runner.calls)
}

func TestRunProjectTestsCapsCallsPerSession(t *testing.T) {
	e, _ := newTestExecutor(nil)
	runner := &stubTests{result: &TestRunResult{Passed: true, Output: "ok"}}
	e.tests = runner

	for i := 0; i < maxTestRunsPerSession; i++ {
		_, err := e.Execute(context.Background(), "run_project_tests", map[string]any{"test_path": "t.py"})
		require.NoError(t, err)
	}
	out, err := e.Execute(context.Background(), "run_project_tests", map[string]any{"test_path": "t.py"})
	require.NoError(t, err)
	assert.Contains(t, out, "limit reached")
	assert.Equal(t, maxTestRunsPerSession, runner.calls)
}

type stubPackages struct{ installed []InstalledPackage }

func (s stubPackages) ListInstalled(_ context.Context) ([]InstalledPackage, error) {
	return s.installed, nil
}
func (s stubPackages) Install(_ context.Context, _ string, _ string) error { return nil }
func (s stubPackages) SearchRegistry(_ context.Context, _ string) ([]PackageSearchResult, error) {
	return nil, nil
}

func TestListInstalledPackagesNotAvailable(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "list_installed_packages", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "not available")
}

func TestInstallDependencyRequiresImportName(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "install_dependency", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "Missing required argument")
}

type stubExternal struct {
	response string
	err      error
}

func (s stubExternal) Call(_ context.Context, _ string, _ map[string]any) (string, error) {
	return s.response, s.err
}

func TestWebSearchNotAvailable(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "web_search", map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Contains(t, out, "not available")
}

func TestGetAdviceRequiresIDs(t *testing.T) {
	e, _ := newTestExecutor(nil)
	out, err := e.Execute(context.Background(), "get_advice", map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, out, "advice_ids parameter is required")
}
