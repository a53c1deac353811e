package projectindex

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshot(t *testing.T, path string, file indexFile) {
	t.Helper()
	data, err := json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestNewClientMissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")

	c, err := NewClient(path, slog.Default())
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "anything", "all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewClientLoadsExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	writeSnapshot(t, path, indexFile{
		Symbols: []symbolEntry{
			{Name: "Parser", FilePath: "pkg/parse/parser.go", Kind: "class", LineStart: 10, LineEnd: 80},
		},
	})

	c, err := NewClient(path, slog.Default())
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "parser", "all")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "pkg/parse/parser.go", results[0].FilePath)
}

func TestNewClientInvalidJSONKeepsEmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	c, err := NewClient(path, slog.Default())
	require.NoError(t, err)

	results, err := c.Search(context.Background(), "anything", "all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCloseWithoutWatchIsNoop(t *testing.T) {
	c, err := NewClient(filepath.Join(t.TempDir(), "index.json"), slog.Default())
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestWatchReloadsOnAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	writeSnapshot(t, path, indexFile{
		Symbols: []symbolEntry{{Name: "Old", FilePath: "old.go", Kind: "function"}},
	})

	c, err := NewClient(path, slog.Default())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))

	// Simulate the indexer's atomic replace: write to a temp file in the
	// same directory, then rename over the target.
	tmp := filepath.Join(dir, "index.json.tmp")
	writeSnapshot(t, tmp, indexFile{
		Symbols: []symbolEntry{{Name: "New", FilePath: "new.go", Kind: "function"}},
	})
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		results, _ := c.Search(context.Background(), "new", "all")
		return len(results) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchTwiceReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	writeSnapshot(t, path, indexFile{})

	c, err := NewClient(path, slog.Default())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))
	assert.Error(t, c.Watch(ctx))
}
