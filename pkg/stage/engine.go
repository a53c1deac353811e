package stage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/codeblock"
)

// classPattern and friends use a generic "class/def"-shaped regex rather
// than a single language's grammar, since a project's target language isn't
// known ahead of time. Indentation-delta scanning below works for any
// indentation-significant or brace-delimited language as long as class/def
// lines are one-per-line, which the generator is instructed to produce.
var (
	classPattern = regexp.MustCompile(`^(\s*)(?:class|struct|type)\s+([A-Za-z_][A-Za-z0-9_]*)\b`)
	defPattern   = regexp.MustCompile(`^(\s*)(?:def|func|function)\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
)

// Engine applies CodeBlocks to a file's current source text.
type Engine struct{}

// NewEngine constructs a staging Engine.
func NewEngine() *Engine { return &Engine{} }

// Apply stages a single CodeBlock against current (the file's existing
// content, empty string if the file doesn't exist yet) and returns the new
// full content, or a *StagingError describing why the block could not be
// applied.
func (e *Engine) Apply(block *codeblock.CodeBlock, current string) (string, error) {
	switch block.Mode {
	case codeblock.ReplaceFile:
		return block.Source, nil

	case codeblock.AppendFile:
		return appendContent(current, block.Source), nil

	case codeblock.InsertImport:
		return insertImport(current, block.Source), nil

	case codeblock.ReplaceClass:
		return replaceScoped(current, classPattern, *block.TargetClass, block.Source, block, ClassNotFound)

	case codeblock.AddClass:
		return addTopLevel(current, block.Source, block, ClassNotFound)

	case codeblock.ReplaceMethod:
		return replaceMethod(current, block)

	case codeblock.AddMethod:
		return addMethod(current, block)

	case codeblock.ReplaceFunction:
		return replaceScoped(current, defPattern, *block.TargetFunction, block.Source, block, FunctionNotFound)

	case codeblock.AddFunction:
		return addTopLevel(current, block.Source, block, FunctionNotFound)

	default:
		return "", &StagingError{Type: InvalidMode, FilePath: block.FilePath, Targets: map[string]string{"mode": string(block.Mode)}}
	}
}

func appendContent(current, source string) string {
	if current == "" {
		return source
	}
	if !strings.HasSuffix(current, "\n") {
		current += "\n"
	}
	return current + source
}

// insertImport places source immediately after the last contiguous block of
// import-shaped lines at the top of the file, or at the very top if none
// exist.
func insertImport(current, source string) string {
	if current == "" {
		return source
	}
	lines := strings.Split(current, "\n")
	insertAt := 0
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" || strings.HasPrefix(trimmed, "import") || strings.HasPrefix(trimmed, "from ") || strings.HasPrefix(trimmed, "#include") {
			insertAt = i + 1
			continue
		}
		break
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, source)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n")
}

// findScope locates a class/def/struct-shaped line whose captured name
// matches target, then returns the line range [start, end) of its body by
// scanning forward until a non-blank line at or below the opening line's
// indentation appears.
func findScope(current string, pattern *regexp.Regexp, target string) (lines []string, start, end int, indent string, found bool) {
	lines = strings.Split(current, "\n")
	for i, l := range lines {
		m := pattern.FindStringSubmatch(l)
		if m == nil || m[2] != target {
			continue
		}
		indent = m[1]
		end = len(lines)
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			lineIndent := leadingWhitespace(lines[j])
			if len(lineIndent) <= len(indent) {
				end = j
				break
			}
		}
		return lines, i, end, indent, true
	}
	return lines, 0, 0, "", false
}

func leadingWhitespace(s string) string {
	trimmed := strings.TrimLeft(s, " \t")
	return s[:len(s)-len(trimmed)]
}

func replaceScoped(current string, pattern *regexp.Regexp, target, source string, block *codeblock.CodeBlock, notFound StagingErrorType) (string, error) {
	lines, start, end, _, found := findScope(current, pattern, target)
	if !found {
		return "", &StagingError{Type: notFound, FilePath: block.FilePath, Targets: map[string]string{"target": target}}
	}
	out := make([]string, 0, len(lines))
	out = append(out, lines[:start]...)
	out = append(out, source)
	out = append(out, lines[end:]...)
	return strings.Join(out, "\n"), nil
}

func addTopLevel(current, source string, block *codeblock.CodeBlock, _ StagingErrorType) (string, error) {
	pos, err := resolveInsertPosition(current, block)
	if err != nil {
		return "", err
	}
	return insertAtLinePosition(current, source, pos), nil
}

func replaceMethod(current string, block *codeblock.CodeBlock) (string, error) {
	_, classStart, classEnd, _, found := findScope(current, classPattern, *block.TargetClass)
	if !found {
		return "", &StagingError{Type: ClassNotFound, FilePath: block.FilePath, Targets: map[string]string{"target_class": *block.TargetClass}}
	}
	lines := strings.Split(current, "\n")
	body := strings.Join(lines[classStart:classEnd], "\n")

	methodLines, mStart, mEnd, _, found := findScope(body, defPattern, *block.TargetMethod)
	if !found {
		return "", &StagingError{Type: MethodNotFound, FilePath: block.FilePath, Targets: map[string]string{"target_class": *block.TargetClass, "target_method": *block.TargetMethod}}
	}

	out := make([]string, 0, len(methodLines))
	out = append(out, methodLines[:mStart]...)
	out = append(out, block.Source)
	out = append(out, methodLines[mEnd:]...)
	newBody := strings.Join(out, "\n")

	final := append(append([]string{}, lines[:classStart]...), strings.Split(newBody, "\n")...)
	final = append(final, lines[classEnd:]...)
	return strings.Join(final, "\n"), nil
}

func addMethod(current string, block *codeblock.CodeBlock) (string, error) {
	_, classStart, classEnd, indent, found := findScope(current, classPattern, *block.TargetClass)
	if !found {
		return "", &StagingError{Type: ClassNotFound, FilePath: block.FilePath, Targets: map[string]string{"target_class": *block.TargetClass}}
	}
	lines := strings.Split(current, "\n")

	insertAt := classEnd
	if block.InsertAfter != nil || block.InsertBefore != nil {
		pos, err := findPatternLine(lines[classStart:classEnd], block, indent)
		if err != nil {
			return "", err
		}
		insertAt = classStart + pos
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, block.Source)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n"), nil
}

// resolveInsertPosition finds where an AddClass/AddFunction block should
// land: after block.InsertAfter's matching line, before block.InsertBefore's,
// or at end-of-file when neither is given.
func resolveInsertPosition(current string, block *codeblock.CodeBlock) (int, error) {
	lines := strings.Split(current, "\n")
	if block.InsertAfter == nil && block.InsertBefore == nil {
		return len(lines), nil
	}
	pos, err := findPatternLine(lines, block, "")
	if err != nil {
		return 0, err
	}
	return pos, nil
}

func findPatternLine(lines []string, block *codeblock.CodeBlock, _ string) (int, error) {
	var pattern string
	var after bool
	switch {
	case block.InsertAfter != nil:
		pattern, after = *block.InsertAfter, true
	case block.InsertBefore != nil:
		pattern, after = *block.InsertBefore, false
	default:
		return len(lines), nil
	}

	for i, l := range lines {
		if strings.Contains(l, pattern) {
			if after {
				return i + 1, nil
			}
			return i, nil
		}
	}
	return 0, &StagingError{
		Type:     InsertPatternNotFound,
		FilePath: block.FilePath,
		Targets:  map[string]string{"pattern": pattern},
	}
}

func insertAtLinePosition(current, source string, pos int) string {
	lines := strings.Split(current, "\n")
	if pos > len(lines) {
		pos = len(lines)
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:pos]...)
	out = append(out, source)
	out = append(out, lines[pos:]...)
	return strings.Join(out, "\n")
}

var _ = fmt.Sprintf // keep fmt import available for future error formatting
