package codeblock

import (
	"fmt"
	"strings"
)

// headerFields maps the uppercase header key to the CodeBlock field it sets.
var headerKeys = map[string]bool{
	"FILE": true, "MODE": true, "TARGET_CLASS": true, "TARGET_METHOD": true,
	"TARGET_FUNCTION": true, "INSERT_AFTER": true, "INSERT_BEFORE": true,
}

// ParseError reports a malformed block at a 1-indexed line within the larger
// orchestrator response the block was extracted from.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("code block parse error at line %d: %s", e.Line, e.Message)
}

// ParseAll extracts every CodeBlock from a generator response. Blocks are
// separated by blank lines between a fenced body's closing ``` and the next
// header's FILE: line; text outside any header/fence pair is ignored, so a
// generator may interleave prose commentary between blocks.
func ParseAll(response string) ([]*CodeBlock, error) {
	lines := strings.Split(response, "\n")
	var blocks []*CodeBlock

	i := 0
	for i < len(lines) {
		if !looksLikeHeaderStart(lines[i]) {
			i++
			continue
		}

		block, consumed, err := parseOne(lines, i)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		i += consumed
	}

	return blocks, nil
}

func looksLikeHeaderStart(line string) bool {
	key, _, ok := splitHeaderLine(line)
	return ok && key == "FILE"
}

// parseOne parses a single header+fenced-body block starting at lines[start],
// returning the block and the number of lines consumed.
func parseOne(lines []string, start int) (*CodeBlock, int, error) {
	block := &CodeBlock{}
	i := start

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if strings.HasPrefix(line, "```") {
			break
		}

		key, value, ok := splitHeaderLine(lines[i])
		if !ok {
			return nil, 0, &ParseError{Line: i + 1, Message: "expected HEADER: value or fenced body, got: " + lines[i]}
		}
		if !headerKeys[key] {
			return nil, 0, &ParseError{Line: i + 1, Message: "unrecognized header key: " + key}
		}

		switch key {
		case "FILE":
			block.FilePath = value
		case "MODE":
			block.Mode = BlockMode(value)
		case "TARGET_CLASS":
			block.TargetClass = &value
		case "TARGET_METHOD":
			block.TargetMethod = &value
		case "TARGET_FUNCTION":
			block.TargetFunction = &value
		case "INSERT_AFTER":
			block.InsertAfter = &value
		case "INSERT_BEFORE":
			block.InsertBefore = &value
		}
		i++
	}

	if i >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
		return nil, 0, &ParseError{Line: start + 1, Message: "header block not followed by a fenced body"}
	}
	fenceStart := i
	i++ // past opening fence

	bodyStart := i
	for i < len(lines) && strings.TrimSpace(lines[i]) != "```" {
		i++
	}
	if i >= len(lines) {
		return nil, 0, &ParseError{Line: fenceStart + 1, Message: "unterminated fenced body"}
	}
	body := strings.Join(lines[bodyStart:i], "\n")
	i++ // past closing fence

	block.Source = body
	block.IndentHint = detectIndent(lines[bodyStart:i])

	return block, i - start, nil
}

// splitHeaderLine splits "KEY: value" into its parts. Returns ok=false if the
// line isn't of that shape (e.g. it's blank, prose, or a fence).
func splitHeaderLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(trimmed[:idx])
	value = strings.TrimSpace(trimmed[idx+1:])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, value, true
}

// detectIndent returns the leading whitespace of the first non-blank body
// line, used by the staging engine to re-indent inserted blocks to match
// their destination (spec.md §3 IndentHint).
func detectIndent(bodyLines []string) string {
	for _, l := range bodyLines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		trimmed := strings.TrimLeft(l, " \t")
		return l[:len(l)-len(trimmed)]
	}
	return ""
}
