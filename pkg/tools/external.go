package tools

import (
	"context"
	"fmt"
	"strings"
)

// ExternalClient dispatches tool calls this package has no business
// implementing itself: open-ended web search and the advice/methodology
// loader (spec.md §4.2 Non-goals — "we only provide the tool-calling
// contract, not a search engine implementation"). Backed by pkg/mcp's
// Client.CallTool against a configured external MCP server in the full
// pipeline, following the same server.tool routing pkg/mcp/router.go uses
// for the in-cluster tool servers. A nil ExternalClient degrades both
// handlers to an <error> block instead of reaching out to the network.
type ExternalClient interface {
	Call(ctx context.Context, toolName string, args map[string]any) (string, error)
}

func (e *Executor) webSearch(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return formatError("query is required"), nil
	}
	if e.external == nil {
		return formatError("web_search is not available for this session."), nil
	}

	maxResults := intArg(args, "max_results", 10)
	region := stringArg(args, "region")
	if region == "" {
		region = "wt-wt"
	}

	content, err := e.external.Call(ctx, "web_search", map[string]any{
		"query":       query,
		"max_results": maxResults,
		"region":      region,
	})
	if err != nil {
		return formatError(fmt.Sprintf("web_search failed: %s", err)), nil
	}
	return content, nil
}

func (e *Executor) getAdvice(ctx context.Context, args map[string]any) (string, error) {
	adviceIDs := stringArg(args, "advice_ids")
	if adviceIDs == "" {
		return formatError("advice_ids parameter is required"), nil
	}
	if e.external == nil {
		return formatError("get_advice is not available for this session."), nil
	}

	content, err := e.external.Call(ctx, "get_advice", map[string]any{
		"advice_ids": strings.TrimSpace(adviceIDs),
	})
	if err != nil {
		return formatError(fmt.Sprintf("get_advice failed: %s", err)), nil
	}
	return content, nil
}
