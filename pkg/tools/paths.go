package tools

import (
	"path"
	"strings"
)

// safeRelPath rejects absolute paths and any ".." segment, mirroring the
// original read_file_tool's resolve-and-prefix-check (spec.md's tools are
// VFS/project-relative only; nothing a handler does may escape project_dir).
func safeRelPath(p string) (string, bool) {
	if p == "" || path.IsAbs(p) || strings.HasPrefix(p, "~") {
		return "", false
	}
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}

func detectFileType(p string) string {
	switch {
	case strings.HasSuffix(p, ".py"):
		return "code/python"
	case strings.HasSuffix(p, ".go"):
		return "code/go"
	case strings.HasSuffix(p, ".js"), strings.HasSuffix(p, ".ts"), strings.HasSuffix(p, ".tsx"), strings.HasSuffix(p, ".jsx"):
		return "code/javascript"
	case strings.HasSuffix(p, ".json"):
		return "data/json"
	case strings.HasSuffix(p, ".yaml"), strings.HasSuffix(p, ".yml"):
		return "data/yaml"
	case strings.HasSuffix(p, ".md"):
		return "doc/markdown"
	default:
		return "other"
	}
}
