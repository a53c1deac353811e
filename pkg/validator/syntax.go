package validator

import (
	"context"
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// Fixer is the advisory external collaborator spec.md §4.4 level 1 calls an
// auxiliary "syntax checker": it may attempt indent/import/formatter fixes.
// Its output is adopted only if it re-parses clean, is never chained across
// tools, and never silently overrides the generator's intent.
type Fixer interface {
	Fix(ctx context.Context, path, content string) (fixed string, ok bool, err error)
}

type syntaxChecker struct {
	fixer Fixer
}

func (c *syntaxChecker) Level() config.ValidationLevel { return config.LevelSyntax }

func (c *syntaxChecker) Check(ctx context.Context, v *vfs.VFS, changed, _ []string) ([]Issue, error) {
	var issues []Issue
	for _, path := range changed {
		content, ok := v.Read(path)
		if !ok {
			continue // staged delete: nothing to parse
		}

		fileIssues := c.checkFile(ctx, path, content)
		if len(fileIssues) > 0 && c.fixer != nil {
			if fixed, fixOK, err := c.fixer.Fix(ctx, path, content); err == nil && fixOK {
				if reparsed := c.checkFile(ctx, path, fixed); len(reparsed) == 0 {
					v.Stage(path, fixed)
					continue
				}
			}
		}
		issues = append(issues, fileIssues...)
	}
	return issues, nil
}

func (c *syntaxChecker) checkFile(ctx context.Context, path, content string) []Issue {
	if languageFor(path) == "go" {
		return checkGoSyntax(path, content)
	}
	return checkTreeSitterSyntax(ctx, path, content)
}

func languageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	default:
		return ""
	}
}

// checkGoSyntax uses the strict go/parser, which is precise enough that
// the host language never needs the tree-sitter fallback.
func checkGoSyntax(path, content string) []Issue {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, path, content, parser.AllErrors)
	if err == nil {
		return nil
	}

	if list, ok := err.(scanner.ErrorList); ok {
		issues := make([]Issue, 0, len(list))
		for _, e := range list {
			issues = append(issues, Issue{
				Level:    config.LevelSyntax,
				Severity: SeverityCritical,
				File:     path,
				Line:     e.Pos.Line,
				Column:   e.Pos.Column,
				Message:  e.Msg,
			})
		}
		return issues
	}
	return []Issue{{Level: config.LevelSyntax, Severity: SeverityCritical, File: path, Message: err.Error()}}
}

// checkTreeSitterSyntax is the fault-tolerant fallback for every non-Go
// language: tree-sitter keeps producing a tree around malformed input, so
// ERROR/missing nodes become structural diagnostics instead of one opaque
// parse failure.
func checkTreeSitterSyntax(ctx context.Context, path, content string) []Issue {
	lang := treeSitterLanguage(languageFor(path))
	if lang == nil {
		return nil // extension this level doesn't know how to parse
	}

	p := sitter.NewParser()
	p.SetLanguage(lang)
	tree, err := p.ParseCtx(ctx, nil, []byte(content))
	if err != nil {
		return []Issue{{Level: config.LevelSyntax, Severity: SeverityCritical, File: path, Message: err.Error()}}
	}
	defer tree.Close()

	var issues []Issue
	walkErrorNodes(tree.RootNode(), func(n *sitter.Node) {
		point := n.StartPoint()
		issues = append(issues, Issue{
			Level:    config.LevelSyntax,
			Severity: SeverityCritical,
			File:     path,
			Line:     int(point.Row) + 1,
			Column:   int(point.Column) + 1,
			Message:  fmt.Sprintf("syntax error near %q", n.Type()),
		})
	})
	return issues
}

func treeSitterLanguage(lang string) *sitter.Language {
	switch lang {
	case "python":
		return python.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	default:
		return nil
	}
}

func walkErrorNodes(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	if n.IsMissing() || n.Type() == "ERROR" {
		visit(n)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkErrorNodes(n.Child(i), visit)
	}
}
