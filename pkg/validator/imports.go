package validator

import (
	"context"
	"regexp"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// PackageIndex answers whether an import name resolves to a package already
// present in the project's interpreter (spec.md §4.4 level 2: "third-party
// (package exists in the project interpreter)"). Backed by the same
// PackageManager the tool executor uses for list_installed_packages in the
// full pipeline; a nil PackageIndex makes every non-stdlib, non-internal
// import report as missing rather than silently passing.
type PackageIndex interface {
	Installed(ctx context.Context, importName string) (bool, error)
}

type importsChecker struct {
	index PackageIndex
}

func (c *importsChecker) Level() config.ValidationLevel { return config.LevelImports }

func (c *importsChecker) Check(ctx context.Context, v *vfs.VFS, changed, _ []string) ([]Issue, error) {
	var issues []Issue
	for _, path := range changed {
		content, ok := v.Read(path)
		if !ok {
			continue
		}
		for _, imp := range extractImportNames(content) {
			issue, ok := c.classify(ctx, v, path, imp)
			if ok {
				issues = append(issues, issue)
			}
		}
	}
	return issues, nil
}

// classify returns an Issue and true only when the import is a problem;
// stdlib and resolvable project-internal imports never produce one.
func (c *importsChecker) classify(ctx context.Context, v *vfs.VFS, file, imp string) (Issue, bool) {
	root := strings.SplitN(imp, ".", 2)[0]
	if pythonStdlib[root] {
		return Issue{}, false
	}
	if resolvesInternally(v, imp) {
		return Issue{}, false
	}

	if c.index == nil {
		return Issue{
			Level:    config.LevelImports,
			Severity: SeverityError,
			File:     file,
			Message:  "import '" + imp + "' could not be classified: no package index available",
			Package:  packageForImport(root),
		}, true
	}

	installed, err := c.index.Installed(ctx, root)
	if err != nil {
		return Issue{
			Level:    config.LevelImports,
			Severity: SeverityWarning,
			File:     file,
			Message:  "could not verify import '" + imp + "': " + err.Error(),
		}, true
	}
	if installed {
		return Issue{}, false
	}
	return Issue{
		Level:    config.LevelImports,
		Severity: SeverityError,
		File:     file,
		Message:  "missing third-party import '" + imp + "'",
		Package:  packageForImport(root),
	}, true
}

// resolvesInternally treats a dotted import as project-internal if any
// plausible file path it could name exists in the VFS view.
func resolvesInternally(v *vfs.VFS, imp string) bool {
	rel := strings.ReplaceAll(imp, ".", "/")
	for _, candidate := range []string{rel + ".py", rel + "/__init__.py"} {
		if v.FileExists(candidate) {
			return true
		}
	}
	return false
}

var (
	importLineRe     = regexp.MustCompile(`^\s*import\s+([\w.]+)`)
	fromImportLineRe = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`)
)

// extractImportNames pulls every "import x" / "from x import ..." target
// out of a Python source file, same shape as pkg/tools' relations.go.
func extractImportNames(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if m := importLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1])
			continue
		}
		if m := fromImportLineRe.FindStringSubmatch(line); m != nil {
			out = append(out, m[1])
		}
	}
	return out
}

// packageForImport is the static import-name-to-registry-package map
// spec.md §4.4 level 2 calls for: most imports already match their PyPI
// name, this only covers the common exceptions.
func packageForImport(importName string) string {
	if pkg, ok := importToPackage[importName]; ok {
		return pkg
	}
	return importName
}

var importToPackage = map[string]string{
	"yaml":      "PyYAML",
	"bs4":       "beautifulsoup4",
	"PIL":       "Pillow",
	"cv2":       "opencv-python",
	"sklearn":   "scikit-learn",
	"dotenv":    "python-dotenv",
	"jwt":       "PyJWT",
	"dateutil":  "python-dateutil",
	"google":    "google-api-python-client",
	"Crypto":    "pycryptodome",
	"OpenSSL":   "pyOpenSSL",
	"redis":     "redis",
	"psycopg2":  "psycopg2-binary",
	"attr":      "attrs",
	"toml":      "toml",
	"docutils":  "docutils",
	"markdown":  "Markdown",
}

// pythonStdlib covers the module roots never flagged as missing.
var pythonStdlib = func() map[string]bool {
	names := []string{
		"os", "sys", "re", "json", "io", "time", "math", "random", "itertools",
		"functools", "collections", "typing", "dataclasses", "enum", "abc",
		"asyncio", "threading", "multiprocessing", "subprocess", "pathlib",
		"shutil", "tempfile", "glob", "fnmatch", "logging", "argparse",
		"unittest", "datetime", "copy", "pickle", "hashlib", "hmac", "base64",
		"uuid", "socket", "ssl", "http", "urllib", "email", "csv", "sqlite3",
		"contextlib", "traceback", "inspect", "textwrap", "string", "struct",
		"array", "heapq", "bisect", "queue", "weakref", "gc", "signal",
		"platform", "getpass", "configparser", "importlib", "warnings",
		"decimal", "fractions", "statistics", "zlib", "gzip", "tarfile",
		"zipfile", "xml", "html", "difflib", "pprint", "operator", "types",
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}()
