package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/codeblock"
	"github.com/codeagent-run/codeagent/pkg/stage"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

type stagingDisk struct{ files map[string]string }

func (d stagingDisk) ReadFile(path string) (string, bool, error) {
	c, ok := d.files[path]
	return c, ok, nil
}
func (d stagingDisk) WriteFile(path, content string) error { d.files[path] = content; return nil }
func (d stagingDisk) Remove(path string) error              { delete(d.files, path); return nil }

type stagingBackups struct{}

func (stagingBackups) Backup(context.Context, string, string, bool) error { return nil }
func (stagingBackups) Restore(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func strPtr(s string) *string { return &s }

func TestStageBlocksAppliesInOrder(t *testing.T) {
	disk := stagingDisk{files: map[string]string{}}
	v := vfs.New(disk, stagingBackups{})
	engine := stage.NewEngine()

	blocks := []*codeblock.CodeBlock{
		{FilePath: "a.py", Mode: codeblock.ReplaceFile, Source: "x = 1\n"},
		{FilePath: "a.py", Mode: codeblock.AppendFile, Source: "y = 2\n"},
	}

	fb, err := stageBlocks(v, engine, blocks)
	require.NoError(t, err)
	assert.Nil(t, fb)

	content, ok := v.Read("a.py")
	require.True(t, ok)
	assert.Contains(t, content, "x = 1")
	assert.Contains(t, content, "y = 2")
}

func TestStageBlocksReturnsStagingErrorFeedbackOnFailure(t *testing.T) {
	disk := stagingDisk{files: map[string]string{"a.py": "x = 1\n"}}
	v := vfs.New(disk, stagingBackups{})
	engine := stage.NewEngine()

	blocks := []*codeblock.CodeBlock{
		{FilePath: "a.py", Mode: codeblock.ReplaceMethod, TargetClass: strPtr("Missing"), TargetMethod: strPtr("m"), Source: "def m(self): pass\n"},
	}

	fb, err := stageBlocks(v, engine, blocks)
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, stage.ClassNotFound, fb.Err.Type)
	// staging errors are free: no file should be staged when a later block
	// (or the first one) fails.
	assert.Empty(t, v.StagedFiles())
}

func TestStageBlocksAbortsBatchOnFirstFailure(t *testing.T) {
	disk := stagingDisk{files: map[string]string{}}
	v := vfs.New(disk, stagingBackups{})
	engine := stage.NewEngine()

	blocks := []*codeblock.CodeBlock{
		{FilePath: "a.py", Mode: codeblock.ReplaceMethod, TargetClass: strPtr("Missing"), TargetMethod: strPtr("m"), Source: "def m(self): pass\n"},
		{FilePath: "b.py", Mode: codeblock.ReplaceFile, Source: "z = 1\n"},
	}

	fb, err := stageBlocks(v, engine, blocks)
	require.NoError(t, err)
	require.NotNil(t, fb)
	// b.py never gets a chance to stage.
	assert.Empty(t, v.StagedFiles())
}
