package tools

import (
	"context"
	"fmt"
	"strings"
)

// InstalledPackage is one entry returned by PackageManager.ListInstalled.
type InstalledPackage struct {
	Name    string
	Version string
}

// PackageSearchResult is one PyPI (or equivalent registry) hit.
type PackageSearchResult struct {
	Name    string
	Version string
	Summary string
}

// PackageManager scopes dependency management to the project's own
// interpreter/runtime (spec.md §4.2): listing what's installed, installing a
// missing import, and resolving an import name to a registry package name.
// Backed by a project-local pip/npm/go-mod-aware implementation wired in by
// the agent pipeline; a nil PackageManager degrades each handler to a
// "not available" error rather than shelling out with no project context.
type PackageManager interface {
	ListInstalled(ctx context.Context) ([]InstalledPackage, error)
	Install(ctx context.Context, importName, version string) error
	SearchRegistry(ctx context.Context, query string) ([]PackageSearchResult, error)
}

func (e *Executor) listInstalledPackages(ctx context.Context, _ map[string]any) (string, error) {
	if e.packages == nil {
		return formatError("Dependency management is not available for this session."), nil
	}
	packages, err := e.packages.ListInstalled(ctx)
	if err != nil {
		return formatError(fmt.Sprintf("Failed to list installed packages: %s", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<installed_packages count=\"%d\">\n", len(packages))
	for _, p := range packages {
		fmt.Fprintf(&b, "  <package name=%q version=%q />\n", escapeXML(p.Name), escapeXML(p.Version))
	}
	b.WriteString("</installed_packages>")
	return b.String(), nil
}

func (e *Executor) installDependency(ctx context.Context, args map[string]any) (string, error) {
	importName := stringArg(args, "import_name")
	if importName == "" {
		return formatError("Missing required argument: import_name"), nil
	}
	if e.packages == nil {
		return formatError("Dependency management is not available for this session."), nil
	}
	version := stringArg(args, "version")

	if err := e.packages.Install(ctx, importName, version); err != nil {
		return formatError(fmt.Sprintf("Failed to install %s: %s", importName, err)), nil
	}
	return fmt.Sprintf("<install_result import_name=%q version=%q status=\"installed\" />", importName, version), nil
}

func (e *Executor) searchPypi(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return formatError("query is required"), nil
	}
	if e.packages == nil {
		return formatError("Dependency management is not available for this session."), nil
	}

	results, err := e.packages.SearchRegistry(ctx, query)
	if err != nil {
		return formatError(fmt.Sprintf("search_pypi failed: %s", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<pypi_results query=%q count=\"%d\">\n", escapeXML(query), len(results))
	for _, r := range results {
		fmt.Fprintf(&b, "  <package name=%q version=%q>\n    <summary>%s</summary>\n  </package>\n",
			escapeXML(r.Name), escapeXML(r.Version), escapeXML(r.Summary))
	}
	b.WriteString("</pypi_results>")
	return b.String(), nil
}
