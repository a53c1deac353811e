package projectindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/tools"
)

var _ tools.CodeIndex = (*Client)(nil)

// Search implements tools.CodeIndex. It matches query, case-insensitively,
// against a symbol's name and description, optionally restricted to
// searchType ("class", "function", "method", or "all").
func (c *Client) Search(ctx context.Context, query string, searchType string) ([]tools.CodeSearchResult, error) {
	snap := c.current()
	query = strings.ToLower(query)

	var results []tools.CodeSearchResult
	for _, sym := range snap.symbols {
		if searchType != "" && searchType != "all" && sym.Kind != searchType {
			continue
		}
		if !strings.Contains(strings.ToLower(sym.Name), query) &&
			!strings.Contains(strings.ToLower(sym.Description), query) {
			continue
		}

		results = append(results, tools.CodeSearchResult{
			FilePath:    sym.FilePath,
			Name:        sym.Name,
			ResultType:  sym.Kind,
			LineStart:   sym.LineStart,
			LineEnd:     sym.LineEnd,
			Context:     sym.Context,
			Parent:      sym.Parent,
			Description: sym.Description,
			Methods:     sym.Methods,
		})
	}
	return results, nil
}

// Overview returns a compact, file-grouped listing of every symbol in the
// current snapshot, capped at maxEntries lines. The Agent Pipeline's first
// step (spec.md §4.7 step 1, "load compact project index") seeds the router
// and orchestrator prompts with this rather than the full snapshot.
func (c *Client) Overview(maxEntries int) string {
	snap := c.current()
	if len(snap.symbols) == 0 {
		return "(no project index available)"
	}

	var b strings.Builder
	n := 0
	for _, sym := range snap.symbols {
		if n >= maxEntries {
			fmt.Fprintf(&b, "... (%d more symbols omitted)\n", len(snap.symbols)-n)
			break
		}
		fmt.Fprintf(&b, "%s: %s %s (lines %d-%d)\n", sym.FilePath, sym.Kind, sym.Name, sym.LineStart, sym.LineEnd)
		n++
	}
	return b.String()
}
