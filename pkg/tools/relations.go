package tools

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	importLineRe = regexp.MustCompile(`(?m)^import\s+([\w.]+)`)
	fromImportRe = regexp.MustCompile(`(?m)^from\s+([\w.]+)\s+import`)
)

func (e *Executor) showFileRelations(ctx context.Context, args map[string]any) (string, error) {
	filePath := stringArg(args, "file_path")
	if filePath == "" {
		return formatErrorWithSuggestion("file_path is required", "Provide a project-relative path."), nil
	}
	rel, safe := safeRelPath(filePath)
	if !safe {
		return formatErrorWithSuggestion(fmt.Sprintf("Access denied: path outside project directory: %s", filePath), "Use a project-relative path."), nil
	}

	includeTests := boolArg(args, "include_tests", true)
	includeSiblings := boolArg(args, "include_siblings", true)
	maxRelations := intArg(args, "max_relations", 20)

	content, _, ok := e.readProjectFile(rel)
	if !ok {
		return formatErrorWithSuggestion(fmt.Sprintf("File not found: %s", rel), "Check the file path and ensure it exists in the project."), nil
	}

	imports := extractImports(content)
	if len(imports) > maxRelations {
		imports = imports[:maxRelations]
	}

	var importedBy, tests, siblings []string
	if e.resolver != nil {
		deps, err := e.resolver.Dependents(ctx, []string{rel})
		if err == nil {
			importedBy = deps
		}
	}
	if len(importedBy) > maxRelations {
		importedBy = importedBy[:maxRelations]
	}

	if includeTests {
		tests = e.findTestFiles(rel)
		if len(tests) > maxRelations {
			tests = tests[:maxRelations]
		}
	}

	if includeSiblings {
		siblings = e.findSiblings(ctx, rel)
		if len(siblings) > maxRelations {
			siblings = siblings[:maxRelations]
		}
	}

	return formatRelations(rel, imports, importedBy, tests, siblings), nil
}

func extractImports(content string) []string {
	var out []string
	for _, m := range importLineRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	for _, m := range fromImportRe.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

func (e *Executor) findTestFiles(rel string) []string {
	ext := path.Ext(rel)
	if ext == "" {
		return nil
	}
	stem := strings.TrimSuffix(path.Base(rel), ext)
	dir := path.Dir(rel)
	candidates := []string{
		path.Join(dir, "test_"+stem+ext),
		path.Join(dir, stem+"_test"+ext),
		path.Join(dir, "tests", "test_"+stem+ext),
		path.Join(dir, "test", "test_"+stem+ext),
	}
	var out []string
	for _, c := range candidates {
		if _, _, ok := e.readProjectFile(c); ok {
			out = append(out, c)
		}
	}
	return out
}

func (e *Executor) findSiblings(ctx context.Context, rel string) []string {
	dir := path.Dir(rel)
	base := path.Base(rel)
	seen := make(map[string]bool)
	var out []string

	add := func(p string) {
		if path.Dir(p) != dir || path.Base(p) == base || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	if e.vfs != nil {
		for _, p := range e.vfs.StagedFiles() {
			if _, ok := e.vfs.Read(p); ok {
				add(p)
			}
		}
	}
	if e.disk != nil {
		if all, err := e.disk.WalkTextFiles(ctx); err == nil {
			for _, p := range all {
				add(p)
			}
		}
	}
	sort.Strings(out)
	if len(out) > 50 {
		out = out[:50]
	}
	return out
}

func formatRelations(filePath string, imports, importedBy, tests, siblings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- FILE RELATIONS: %s -->\n", filePath)
	fmt.Fprintf(&b, "<!-- Total imports: %d | Imported by: %d -->\n", len(imports), len(importedBy))
	fmt.Fprintf(&b, "<!-- Test files: %d | Sibling files: %d -->\n\n", len(tests), len(siblings))

	fmt.Fprintf(&b, "<file_relations path=%q>\n", escapeXML(filePath))
	writeRelationGroup(&b, "imports", "import", imports)
	writeRelationGroup(&b, "imported_by", "importer", importedBy)
	writeRelationGroup(&b, "tests", "test", tests)
	writeRelationGroup(&b, "siblings", "sibling", siblings)
	b.WriteString("</file_relations>")
	return b.String()
}

func writeRelationGroup(b *strings.Builder, group, item string, values []string) {
	if len(values) == 0 {
		fmt.Fprintf(b, "  <%s count=\"0\" />\n", group)
		return
	}
	fmt.Fprintf(b, "  <%s count=\"%d\">\n", group, len(values))
	for _, v := range values {
		fmt.Fprintf(b, "    <%s>%s</%s>\n", item, escapeXML(v), item)
	}
	fmt.Fprintf(b, "  </%s>\n", group)
}
