// Package tools exposes the fixed tool registry orchestrator agents call
// during a session: read_file, read_code_chunk, search_code, grep_search,
// show_file_relations, run_project_tests, list_installed_packages,
// install_dependency, search_pypi, web_search and get_advice (spec.md §4.2).
// Every handler is VFS-first where the tool touches project files, so the
// orchestrator always sees the latest staged edit rather than stale disk
// content.
package tools

import "context"

// Schema describes one tool's name, description and JSON argument schema,
// forwarded near-verbatim into pkg/llm.ToolDef for tool-calling requests.
type Schema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Handler executes one tool call and renders its result as the XML-like
// structured text spec.md requires. Expected failures (missing file, bad
// pattern, disallowed path) are rendered as an <error> block rather than
// returned as a Go error, so the orchestrator reads them like any other tool
// output. A non-nil error means the call could not be attempted at all
// (context cancelled, dependency not wired for this session).
type Handler func(ctx context.Context, args map[string]any) (string, error)

type registration struct {
	schema  Schema
	handler Handler
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}
