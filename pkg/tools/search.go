package tools

import (
	"context"
	"fmt"
	"strings"
)

// CodeSearchResult is one class/function/method match from CodeIndex.Search.
type CodeSearchResult struct {
	FilePath    string
	Name        string
	ResultType  string // "class", "function", "method"
	LineStart   int
	LineEnd     int
	Context     string
	Parent      string // set for methods
	Description string
	Methods     []string // set for classes
}

// CodeIndex is the seam to the external semantic indexing collaborator
// (spec.md §1 Non-goals: indexing itself is out of scope here). Backed by
// pkg/projectindex's client in the full pipeline; a nil CodeIndex makes
// search_code report "no index available", matching the original tool's
// behavior when it is handed an empty index.
type CodeIndex interface {
	Search(ctx context.Context, query string, searchType string) ([]CodeSearchResult, error)
}

var searchTypes = map[string]bool{"all": true, "class": true, "function": true, "method": true}

func (e *Executor) searchCode(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	searchType := stringArg(args, "search_type")
	if searchType == "" {
		searchType = "all"
	}
	maxResults := intArg(args, "max_results", 20)

	if query == "" {
		return formatError("query is required"), nil
	}
	if !searchTypes[searchType] {
		return formatError(fmt.Sprintf("invalid search_type: %s", searchType)), nil
	}
	if e.index == nil {
		return formatError("No index available. Please index the project first."), nil
	}

	results, err := e.index.Search(ctx, strings.ToLower(query), searchType)
	if err != nil {
		return formatError(fmt.Sprintf("search_code failed: %s", err)), nil
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if len(results) == 0 {
		return formatNoSearchResults(query), nil
	}
	return formatSearchResultsXML(query, results), nil
}

func formatSearchResultsXML(query string, results []CodeSearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- Search results for: %q -->\n", query)
	fmt.Fprintf(&b, "<!-- Found: %d matches -->\n\n", len(results))
	fmt.Fprintf(&b, "<search_results query=%q count=\"%d\">\n", escapeXML(query), len(results))

	byFile := make(map[string][]CodeSearchResult)
	var order []string
	for _, r := range results {
		if _, seen := byFile[r.FilePath]; !seen {
			order = append(order, r.FilePath)
		}
		byFile[r.FilePath] = append(byFile[r.FilePath], r)
	}

	for _, file := range order {
		fmt.Fprintf(&b, "  <file path=%q>\n", escapeXML(file))
		for _, r := range byFile[file] {
			attrs := fmt.Sprintf("type=%q name=%q lines=\"%d-%d\"", r.ResultType, escapeXML(r.Name), r.LineStart, r.LineEnd)
			if r.Parent != "" {
				attrs += fmt.Sprintf(" parent=%q", escapeXML(r.Parent))
			}
			fmt.Fprintf(&b, "    <result %s>\n", attrs)
			fmt.Fprintf(&b, "      <context>%s</context>\n", escapeXML(r.Context))
			if r.Description != "" {
				fmt.Fprintf(&b, "      <description>%s</description>\n", escapeXML(r.Description))
			}
			if r.ResultType == "class" && len(r.Methods) > 0 {
				shown := r.Methods
				suffix := ""
				if len(shown) > 5 {
					suffix = fmt.Sprintf(" ... (+%d more)", len(shown)-5)
					shown = shown[:5]
				}
				fmt.Fprintf(&b, "      <methods>%s%s</methods>\n", escapeXML(strings.Join(shown, ", ")), suffix)
			}
			b.WriteString("    </result>\n")
		}
		b.WriteString("  </file>\n")
	}
	b.WriteString("</search_results>")
	return b.String()
}

func formatNoSearchResults(query string) string {
	return fmt.Sprintf(`<!-- Search results for: %q -->
<!-- Found: 0 matches -->

<search_results query=%q count="0">
  <message>No results found for %q</message>
  <suggestions>
    <suggestion>Try a partial name (e.g., "auth" instead of "authenticate")</suggestion>
    <suggestion>Check spelling</suggestion>
    <suggestion>Use search_type="all" to search classes, functions, and methods</suggestion>
    <suggestion>The index might be out of date</suggestion>
  </suggestions>
</search_results>`, query, escapeXML(query), escapeXML(query))
}
