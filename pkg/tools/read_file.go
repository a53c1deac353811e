package tools

import (
	"context"
	"fmt"
	"strings"
)

// FileSource reports where read_file/read_code_chunk content came from, so
// the orchestrator can tell a staged edit from disk truth (original_source
// app/tools/tool_executor.py's "<!-- Source: VFS -->" marker).
type FileSource string

const (
	SourceVFS  FileSource = "VFS"
	SourceDisk FileSource = "disk"
)

func (e *Executor) readProjectFile(path string) (content string, source FileSource, ok bool) {
	if e.vfs != nil && e.isStaged(path) {
		c, vfsOK := e.vfs.Read(path)
		if vfsOK {
			return c, SourceVFS, true
		}
		return "", SourceVFS, false // staged delete: hidden regardless of disk state (I1)
	}
	c, ok, err := e.disk.ReadFile(path)
	if err != nil || !ok {
		return "", SourceDisk, false
	}
	return c, SourceDisk, true
}

func (e *Executor) isStaged(path string) bool {
	for _, p := range e.vfs.StagedFiles() {
		if p == path {
			return true
		}
	}
	return false
}

func (e *Executor) readFile(_ context.Context, args map[string]any) (string, error) {
	filePath := stringArg(args, "file_path")
	includeLineNumbers := boolArg(args, "include_line_numbers", true)

	if filePath == "" {
		return formatErrorWithSuggestion("file_path is required", "Provide a project-relative path."), nil
	}
	rel, safe := safeRelPath(filePath)
	if !safe {
		return formatErrorWithSuggestion(
			fmt.Sprintf("Access denied: path outside project directory: %s", filePath),
			"Use a path relative to the project root with no \"..\" segments.",
		), nil
	}

	content, source, ok := e.readProjectFile(rel)
	if !ok {
		return formatErrorWithSuggestion(
			fmt.Sprintf("File not found: %s", rel),
			"Check the file path and ensure it exists in the project directory.",
		), nil
	}

	lines := strings.Count(content, "\n") + 1
	tokens := approxTokens(content)
	fileType := detectFileType(rel)

	display := content
	if includeLineNumbers {
		display = addLineNumbers(content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!-- File: %s -->\n", rel)
	fmt.Fprintf(&b, "<!-- Type: %s | Lines: %d | Tokens: %d -->\n", fileType, lines, tokens)
	fmt.Fprintf(&b, "<!-- Source: %s -->\n\n", source)
	fmt.Fprintf(&b, "<file path=%q type=%q tokens=\"%d\" encoding=\"utf-8\">\n", rel, fileType, tokens)
	b.WriteString("<content><![CDATA[\n")
	b.WriteString(display)
	b.WriteString("\n]]></content>\n</file>")
	return b.String(), nil
}

func (e *Executor) readCodeChunk(_ context.Context, args map[string]any) (string, error) {
	filePath := stringArg(args, "file_path")
	chunkName := stringArg(args, "chunk_name")

	if filePath == "" || chunkName == "" {
		return formatError("file_path and chunk_name are required"), nil
	}
	rel, safe := safeRelPath(filePath)
	if !safe {
		return formatError(fmt.Sprintf("Access denied: path outside project directory: %s", filePath)), nil
	}

	content, source, ok := e.readProjectFile(rel)
	if !ok {
		return formatError(fmt.Sprintf("File not found: %s", rel)), nil
	}

	chunk, found := findNamedChunk(content, chunkName)
	if !found {
		return formatError(fmt.Sprintf("Chunk %q not found in %s", chunkName, rel)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!-- Source: %s -->\n", source)
	b.WriteString("<code_chunk>\n")
	fmt.Fprintf(&b, "<file>%s</file>\n", rel)
	fmt.Fprintf(&b, "<name>%s</name>\n", escapeXML(chunk.Name))
	fmt.Fprintf(&b, "<type>%s</type>\n", chunk.Kind)
	fmt.Fprintf(&b, "<lines>%d-%d</lines>\n", chunk.StartLine, chunk.EndLine)
	b.WriteString("<content>\n")
	b.WriteString(chunk.Content)
	b.WriteString("\n</content>\n</code_chunk>\n")
	return b.String(), nil
}

// codeChunk is one named top-level declaration found by findNamedChunk.
type codeChunk struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Content   string
}

// chunkHeaderRe matches a top-level declaration header across the handful of
// languages spec.md's agent edits, capturing its kind and name: "def foo",
// "class Foo", "func Foo", "function foo". It intentionally only looks at
// column-zero lines, mirroring SmartPythonChunker's top-level-only scope.
var chunkHeaderPatterns = []struct {
	kind   string
	prefix string
}{
	{"class", "class "},
	{"function", "def "},
	{"function", "func "},
	{"function", "function "},
}

// findNamedChunk extracts the source span of a single top-level class or
// function by name, using indentation/brace depth to find the chunk's end.
// It is a deliberately simple stand-in for SmartPythonChunker: project files
// handled by spec.md's agent are not limited to Python, so chunk detection
// here is indentation-or-brace based rather than an AST walk.
func findNamedChunk(content, name string) (codeChunk, bool) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		for _, pat := range chunkHeaderPatterns {
			if !strings.HasPrefix(trimmed, pat.prefix) {
				continue
			}
			rest := strings.TrimPrefix(trimmed, pat.prefix)
			declaredName := headerName(rest)
			if declaredName != name {
				continue
			}
			end := chunkEnd(lines, i)
			return codeChunk{
				Name:      name,
				Kind:      pat.kind,
				StartLine: i + 1,
				EndLine:   end + 1,
				Content:   strings.Join(lines[i:end+1], "\n"),
			}, true
		}
	}
	return codeChunk{}, false
}

func headerName(rest string) string {
	rest = strings.TrimLeft(rest, " ")
	for i, r := range rest {
		if r == '(' || r == ' ' || r == ':' || r == '{' {
			return rest[:i]
		}
	}
	return rest
}

// chunkEnd scans forward from a declaration's header line to its last
// non-blank line before the next column-zero declaration (or EOF), which is
// the right boundary for Python-style indentation and close enough for
// brace-delimited languages in a read-only preview tool.
func chunkEnd(lines []string, start int) int {
	last := start
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], " \t")
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(lines[i], " ") && !strings.HasPrefix(lines[i], "\t") && trimmed[0] != '}' {
			break
		}
		last = i
	}
	return last
}
