package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/tools"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

type prefilterDisk struct{ files map[string]string }

func (d prefilterDisk) ReadFile(path string) (string, bool, error) {
	c, ok := d.files[path]
	return c, ok, nil
}
func (d prefilterDisk) WalkTextFiles(context.Context) ([]string, error) { return nil, nil }
func (d prefilterDisk) WriteFile(path, content string) error            { d.files[path] = content; return nil }
func (d prefilterDisk) Remove(path string) error                        { delete(d.files, path); return nil }

type prefilterBackups struct{}

func (prefilterBackups) Backup(context.Context, string, string, bool) error { return nil }
func (prefilterBackups) Restore(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func newPrefilterExecutor(files map[string]string) *tools.Executor {
	disk := prefilterDisk{files: files}
	v := vfs.New(disk, prefilterBackups{})
	return tools.New(tools.Config{ProjectDir: "/project", VFS: v, Disk: disk})
}

func TestPreFilterResolvesChunksWithinBudget(t *testing.T) {
	server := chatServer(t, `[{"file_path": "a.py", "chunk_name": "target"}]`)
	defer server.Close()
	d := testDispatcher(t, server, "prefilter-model")
	executor := newPrefilterExecutor(map[string]string{
		"a.py": "def target():\n    pass\n",
	})
	budget := config.PreFilterBudget{MaxChunks: 5, MaxTokens: 75000}

	chunks, err := preFilter(context.Background(), d, "prefilter-model", budget, "index overview", "fix target", executor, discardLogger())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a.py", chunks[0].FilePath)
	assert.Equal(t, "target", chunks[0].ChunkName)
	assert.Contains(t, chunks[0].Content, "def target")
}

func TestPreFilterTruncatesToMaxChunks(t *testing.T) {
	server := chatServer(t, `[
		{"file_path": "a.py", "chunk_name": "one"},
		{"file_path": "a.py", "chunk_name": "two"},
		{"file_path": "a.py", "chunk_name": "three"}
	]`)
	defer server.Close()
	d := testDispatcher(t, server, "prefilter-model")
	executor := newPrefilterExecutor(map[string]string{
		"a.py": "def one():\n    pass\ndef two():\n    pass\ndef three():\n    pass\n",
	})
	budget := config.PreFilterBudget{MaxChunks: 2, MaxTokens: 75000}

	chunks, err := preFilter(context.Background(), d, "prefilter-model", budget, "index overview", "fix it", executor, discardLogger())
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestPreFilterStopsAtTokenBudget(t *testing.T) {
	server := chatServer(t, `[
		{"file_path": "a.py", "chunk_name": "one"},
		{"file_path": "a.py", "chunk_name": "two"}
	]`)
	defer server.Close()
	d := testDispatcher(t, server, "prefilter-model")
	executor := newPrefilterExecutor(map[string]string{
		"a.py": "def one():\n    pass\ndef two():\n    pass\n",
	})
	// one byte of budget guarantees the first resolved chunk already exceeds it.
	budget := config.PreFilterBudget{MaxChunks: 5, MaxTokens: 0}

	chunks, err := preFilter(context.Background(), d, "prefilter-model", budget, "index overview", "fix it", executor, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPreFilterMalformedJSONYieldsNoChunks(t *testing.T) {
	server := chatServer(t, "not json at all")
	defer server.Close()
	d := testDispatcher(t, server, "prefilter-model")
	executor := newPrefilterExecutor(nil)
	budget := config.PreFilterBudget{MaxChunks: 5, MaxTokens: 75000}

	chunks, err := preFilter(context.Background(), d, "prefilter-model", budget, "index overview", "fix it", executor, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPreFilterUnresolvableChunkStillReturnsToolErrorText(t *testing.T) {
	// read_code_chunk never returns a Go error for a missing file or chunk
	// name (pkg/tools/read_file.go renders it as an <error> block instead),
	// so an unresolvable ref is still counted as "resolved" content the
	// orchestrator sees, not silently dropped.
	server := chatServer(t, `[{"file_path": "missing.py", "chunk_name": "ghost"}]`)
	defer server.Close()
	d := testDispatcher(t, server, "prefilter-model")
	executor := newPrefilterExecutor(nil)
	budget := config.PreFilterBudget{MaxChunks: 5, MaxTokens: 75000}

	chunks, err := preFilter(context.Background(), d, "prefilter-model", budget, "index overview", "fix it", executor, discardLogger())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "File not found")
}

func TestExtractJSONArray(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, extractJSONArray("```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `[]`, extractJSONArray("no brackets here"))
	assert.Equal(t, `[1,2,3]`, extractJSONArray("here you go: [1,2,3] thanks"))
}
