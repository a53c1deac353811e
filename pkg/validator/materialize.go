package validator

import (
	"os"
	"path/filepath"
)

// materializeView is the read-only slice of *vfs.VFS the temp-dir
// materializer needs, mirrored from pkg/tools.VFSView so levels stay
// decoupled from the VFS package's write surface.
type materializeView interface {
	Read(path string) (string, bool)
}

// materialize writes every path in files out under a fresh temp directory,
// reading through v so staged content wins over disk (spec.md §4.4 levels
// 3 and 5 both require "the VFS materialized into a temp directory"). The
// caller is responsible for removing the returned directory.
func materialize(v materializeView, files []string) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "codeagent-validate-*")
	if err != nil {
		return "", func() {}, err
	}
	cleanup = func() { os.RemoveAll(dir) }

	for _, rel := range files {
		content, ok := v.Read(rel)
		if !ok {
			continue // staged delete or missing file: nothing to materialize
		}
		dest := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			cleanup()
			return "", func() {}, err
		}
		if err := os.WriteFile(dest, []byte(content), 0o644); err != nil {
			cleanup()
			return "", func() {}, err
		}
	}
	return dir, cleanup, nil
}
