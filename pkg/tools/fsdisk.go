package tools

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// skipDirs are never descended into during WalkTextFiles; matches the kind
// of directory the original tools' rglob-based collectors would otherwise
// choke on (VCS metadata, dependency caches, build output).
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "__pycache__": true,
	".venv": true, "venv": true, "vendor": true, ".idea": true, ".vscode": true,
}

// FSDisk is the default Disk implementation: project files rooted at Root.
type FSDisk struct {
	Root string
}

func (d FSDisk) ReadFile(path string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// WalkTextFiles lists every project-relative path under Root that looks
// like text, skipping symlinks (to avoid recursion loops, matching
// grep_search.py's _should_process_file) and common non-project directories.
func (d FSDisk) WalkTextFiles(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.Root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || !looksLikeText(data) {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}

func looksLikeText(data []byte) bool {
	if len(data) > 512 {
		data = data[:512]
	}
	return !bytes.ContainsRune(data, 0)
}
