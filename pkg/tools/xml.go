package tools

import (
	"fmt"
	"strings"
)

// formatError renders the uniform <error> block spec.md §4.2 requires of
// every tool handler.
func formatError(message string) string {
	return fmt.Sprintf("<!-- ERROR -->\n<error>\n  <message>%s</message>\n</error>", escapeXML(message))
}

// formatErrorWithSuggestion matches the richer shape some of the original
// Python tools render (read_file, grep_search, file_relations).
func formatErrorWithSuggestion(message, suggestion string) string {
	return fmt.Sprintf(
		"<!-- ERROR -->\n<error>\n  <message>%s</message>\n  <suggestion>%s</suggestion>\n</error>",
		escapeXML(message), escapeXML(suggestion),
	)
}

func escapeXML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(text)
}

func addLineNumbers(content string) string {
	lines := strings.Split(content, "\n")
	width := len(fmt.Sprintf("%d", len(lines)))
	numbered := make([]string, len(lines))
	for i, line := range lines {
		numbered[i] = fmt.Sprintf("%*d | %s", width, i+1, line)
	}
	return strings.Join(numbered, "\n")
}

// approxTokens mirrors the original tools' rough chars/4 estimate; pkg/llm
// and pkg/context use the same heuristic for anything that isn't billed
// through a provider's own usage counters.
func approxTokens(content string) int {
	return len(content) / 4
}
