package tools

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// globMatch reports whether rel (or its base name) matches a shell glob,
// e.g. "*.py" or "tests/*.go".
func globMatch(glob, rel string) bool {
	if ok, _ := filepath.Match(glob, path.Base(rel)); ok {
		return true
	}
	ok, _ := filepath.Match(glob, rel)
	return ok
}

type grepMatch struct {
	filePath      string
	lineNumber    int
	line          string
	matchesInFile int
	before        []string
	after         []string
}

func (e *Executor) grepSearch(ctx context.Context, args map[string]any) (string, error) {
	pattern := stringArg(args, "pattern")
	if pattern == "" {
		return formatErrorWithSuggestion("pattern is required", "Check your search pattern and file filters."), nil
	}
	useRegex := boolArg(args, "use_regex", false)
	caseSensitive := boolArg(args, "case_sensitive", false)
	filePattern := stringArg(args, "file_pattern")
	subPath := stringArg(args, "path")
	maxFiles := intArg(args, "max_files", 100)
	maxMatchesPerFile := intArg(args, "max_matches_per_file", 20)
	maxTotalMatches := intArg(args, "max_total_matches", 50)
	contextLines := intArg(args, "context_lines", 2)

	expr := pattern
	if !useRegex {
		expr = regexp.QuoteMeta(pattern)
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return formatErrorWithSuggestion(fmt.Sprintf("Invalid regex pattern: %s", err), "Check your search pattern and file filters."), nil
	}

	// 1. Staged (VFS) files first, so edits made earlier in the session win
	// over the on-disk copy for the same path.
	vfsFiles := make(map[string]string)
	if e.vfs != nil {
		for _, p := range e.vfs.StagedFiles() {
			if subPath != "" && !strings.HasPrefix(p, strings.TrimSuffix(subPath, "/")+"/") {
				continue
			}
			if content, ok := e.vfs.Read(p); ok {
				vfsFiles[p] = content
			}
		}
	}

	// 2. Disk files, excluding anything already covered by the VFS.
	var diskFiles []string
	if e.disk != nil {
		all, err := e.disk.WalkTextFiles(ctx)
		if err != nil {
			return formatErrorWithSuggestion(fmt.Sprintf("Error collecting files: %s", err), "Check your search pattern and file filters."), nil
		}
		for _, p := range all {
			if _, staged := vfsFiles[p]; staged {
				continue
			}
			if subPath != "" && !strings.HasPrefix(p, strings.TrimSuffix(subPath, "/")+"/") {
				continue
			}
			if filePattern != "" && !globMatch(filePattern, p) {
				continue
			}
			diskFiles = append(diskFiles, p)
			if len(diskFiles) >= maxFiles {
				break
			}
		}
	}

	var matches []grepMatch
	filesMatched := 0
	totalMatches := 0

	searchOne := func(path, content string) {
		if totalMatches >= maxTotalMatches {
			return
		}
		found := searchInContent(content, re, path, contextLines, maxMatchesPerFile)
		if len(found) == 0 {
			return
		}
		for i := range found {
			found[i].matchesInFile = len(found)
		}
		matches = append(matches, found...)
		totalMatches += len(found)
		filesMatched++
	}

	for path, content := range vfsFiles {
		searchOne(path, content)
	}
	for _, path := range diskFiles {
		if totalMatches >= maxTotalMatches {
			break
		}
		content, ok, err := e.disk.ReadFile(path)
		if err != nil || !ok {
			continue
		}
		searchOne(path, content)
	}

	return formatGrepResults(pattern, useRegex, caseSensitive, len(diskFiles)+len(vfsFiles), filesMatched, totalMatches, matches, contextLines, len(vfsFiles)), nil
}

func searchInContent(content string, re *regexp.Regexp, filePath string, contextLines, maxMatches int) []grepMatch {
	lines := strings.Split(content, "\n")
	var out []grepMatch
	for i, line := range lines {
		if !re.MatchString(line) {
			continue
		}
		start := max0(i - contextLines)
		end := minInt(len(lines), i+1+contextLines)
		m := grepMatch{
			filePath:   filePath,
			lineNumber: i + 1,
			line:       line,
			before:     append([]string{}, lines[start:i]...),
			after:      append([]string{}, lines[i+1:end]...),
		}
		out = append(out, m)
		if len(out) >= maxMatches {
			break
		}
	}
	return out
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func formatGrepResults(pattern string, isRegex, caseSensitive bool, filesSearched, filesMatched, totalMatches int, matches []grepMatch, contextLines, vfsCount int) string {
	var body strings.Builder
	fmt.Fprintf(&body, `<grep_results pattern=%q regex="%t" case_sensitive="%t" files_searched="%d" files_matched="%d" total_matches="%d" context_lines="%d" vfs_files="%d">`+"\n",
		escapeXML(pattern), isRegex, caseSensitive, filesSearched, filesMatched, totalMatches, contextLines, vfsCount)

	byFile := make(map[string][]grepMatch)
	var order []string
	for _, m := range matches {
		if _, seen := byFile[m.filePath]; !seen {
			order = append(order, m.filePath)
		}
		byFile[m.filePath] = append(byFile[m.filePath], m)
	}

	for _, file := range order {
		fileMatches := byFile[file]
		fmt.Fprintf(&body, "  <file path=%q matches=\"%d\">\n", escapeXML(file), len(fileMatches))
		for _, m := range fileMatches {
			fmt.Fprintf(&body, "    <match line=\"%d\" file_matches=\"%d\">\n", m.lineNumber, m.matchesInFile)
			for i, ctx := range m.before {
				fmt.Fprintf(&body, "      <context_before line=\"%d\">%s</context_before>\n", m.lineNumber-len(m.before)+i, escapeXML(ctx))
			}
			fmt.Fprintf(&body, "      <line>%s</line>\n", escapeXML(m.line))
			for i, ctx := range m.after {
				fmt.Fprintf(&body, "      <context_after line=\"%d\">%s</context_after>\n", m.lineNumber+i+1, escapeXML(ctx))
			}
			body.WriteString("    </match>\n")
		}
		body.WriteString("  </file>\n")
	}
	body.WriteString("</grep_results>")

	mode := "text"
	if isRegex {
		mode = "regex"
	}
	sensitivity := "case-insensitive"
	if caseSensitive {
		sensitivity = "case-sensitive"
	}

	summary := fmt.Sprintf("<!-- GREP SEARCH RESULTS -->\n<!-- Pattern: %s (%s, %s) -->\n<!-- Searched %d files (%d from VFS), found %d matches in %d files -->\n\n",
		pattern, mode, sensitivity, filesSearched, vfsCount, totalMatches, filesMatched)
	return summary + body.String()
}
