package validator

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

type integrationChecker struct {
	strictness config.IntegrationStrictness
}

func (c *integrationChecker) Level() config.ValidationLevel { return config.LevelIntegration }

// Check re-parses every file in dependents and confirms each symbol it
// imports from a changed file still exists with a compatible signature:
// name match always, parameter arity too when IntegrationNameAndArity is
// configured and an arity is derivable at both ends (spec.md §4.4 level 4,
// resolving spec.md §9 Open Question 1).
func (c *integrationChecker) Check(ctx context.Context, v *vfs.VFS, changed, dependents []string) ([]Issue, error) {
	if len(dependents) == 0 {
		return nil, nil
	}

	changedSymbols := make(map[string]map[string]symbol, len(changed))
	for _, f := range changed {
		content, ok := v.Read(f)
		if !ok {
			changedSymbols[f] = nil // staged delete: any importer of it is broken below
			continue
		}
		changedSymbols[f] = extractSymbols(f, content)
	}

	var issues []Issue
	for _, dep := range dependents {
		content, ok := v.Read(dep)
		if !ok {
			continue
		}
		for module, names := range extractFromImports(content) {
			rel := modulePathToRel(module)
			symbols, isChanged := changedSymbols[rel]
			if !isChanged {
				continue
			}
			for _, name := range names {
				issues = append(issues, c.checkSymbol(dep, rel, name, symbols, content)...)
			}
		}
	}
	return issues, nil
}

func (c *integrationChecker) checkSymbol(dependent, module, name string, symbols map[string]symbol, dependentContent string) []Issue {
	sym, exists := symbols[name]
	if !exists {
		return []Issue{{
			Level:    config.LevelIntegration,
			Severity: SeverityError,
			File:     dependent,
			Message:  fmt.Sprintf("%s no longer defines %q, imported here", module, name),
		}}
	}

	if c.strictness != config.IntegrationNameAndArity || !sym.HasArity {
		return nil
	}

	callArity, found := firstCallArgCount(dependentContent, name)
	if !found || callArity == sym.Arity {
		return nil
	}
	return []Issue{{
		Level:    config.LevelIntegration,
		Severity: SeverityError,
		File:     dependent,
		Message: fmt.Sprintf("%s.%s now takes %d argument(s), call site here passes %d",
			module, name, sym.Arity, callArity),
	}}
}

type symbol struct {
	Name     string
	Arity    int
	HasArity bool
}

func extractSymbols(path, content string) map[string]symbol {
	if languageFor(path) == "go" {
		return extractGoSymbols(content)
	}
	return extractPythonSymbols(content)
}

var (
	pyDefRe   = regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)`)
	pyClassRe = regexp.MustCompile(`^\s*class\s+(\w+)`)
)

func extractPythonSymbols(content string) map[string]symbol {
	out := make(map[string]symbol)
	for _, line := range strings.Split(content, "\n") {
		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			params := splitTopLevelArgs(m[2])
			arity := len(params)
			if arity > 0 && (params[0] == "self" || params[0] == "cls") {
				arity--
			}
			out[m[1]] = symbol{Name: m[1], Arity: arity, HasArity: true}
			continue
		}
		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			out[m[1]] = symbol{Name: m[1]}
		}
	}
	return out
}

func extractGoSymbols(content string) map[string]symbol {
	out := make(map[string]symbol)
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", content, 0)
	if err != nil {
		return out
	}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		arity := 0
		if fn.Type.Params != nil {
			for _, field := range fn.Type.Params.List {
				n := len(field.Names)
				if n == 0 {
					n = 1
				}
				arity += n
			}
		}
		out[fn.Name.Name] = symbol{Name: fn.Name.Name, Arity: arity, HasArity: true}
	}
	return out
}

// splitTopLevelArgs splits a parameter list on commas that are not nested
// inside brackets, ignoring default-value/type-annotation text entirely.
func splitTopLevelArgs(params string) []string {
	params = strings.TrimSpace(params)
	if params == "" {
		return nil
	}

	var out []string
	depth := 0
	start := 0
	for i, r := range params {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(paramName(params[start:i])))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(paramName(params[start:])))
	return out
}

func paramName(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexAny(raw, ":="); idx >= 0 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(raw, "*"), "*"))
}

var fromImportDetailRe = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+(.+)$`)

// extractFromImports maps each "from module import a, b as c" line to the
// module it names and the list of names pulled in under their local alias
// stripped (the call-site name is what matters for the arity check).
func extractFromImports(content string) map[string][]string {
	out := make(map[string][]string)
	for _, line := range strings.Split(content, "\n") {
		m := fromImportDetailRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		module := m[1]
		for _, part := range strings.Split(m[2], ",") {
			name := strings.TrimSpace(part)
			if idx := strings.Index(name, " as "); idx >= 0 {
				name = name[:idx]
			}
			name = strings.TrimSpace(name)
			if name == "" || name == "*" {
				continue
			}
			out[module] = append(out[module], name)
		}
	}
	return out
}

func modulePathToRel(module string) string {
	return strings.ReplaceAll(module, ".", "/") + ".py"
}

// firstCallArgCount finds the first `name(...)` call in content and counts
// its top-level arguments. Returns found=false if name never appears as a
// call (only imported but unused, or this is a Go dependent where the same
// heuristic still degrades gracefully).
func firstCallArgCount(content, name string) (count int, found bool) {
	needle := name + "("
	idx := strings.Index(content, needle)
	if idx < 0 {
		return 0, false
	}

	depth := 0
	start := idx + len(needle)
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				args := splitTopLevelArgs(content[start:i])
				return len(args), true
			}
			depth--
		}
	}
	return 0, false
}
