// Package projectindex is a read-only client for the external semantic code
// index (spec.md §1 Non-goals: building the index is out of scope here). The
// indexer runs out-of-process and atomically replaces a single JSON snapshot
// file on disk whenever it finishes a re-index; this package watches that
// file and keeps an in-memory copy current, serving pkg/tools.CodeIndex and
// pkg/vfs.DependentsResolver off of it.
package projectindex

// indexFile is the on-disk snapshot format written by the external indexer.
type indexFile struct {
	Symbols    []symbolEntry       `json:"symbols"`
	Dependents map[string][]string `json:"dependents"`
}

// symbolEntry is one class/function/method record in the snapshot.
type symbolEntry struct {
	Name        string   `json:"name"`
	FilePath    string   `json:"file_path"`
	Kind        string   `json:"kind"` // "class", "function", "method"
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end"`
	Parent      string   `json:"parent,omitempty"`
	Description string   `json:"description,omitempty"`
	Context     string   `json:"context,omitempty"`
	Methods     []string `json:"methods,omitempty"`
}

// snapshot is the parsed, query-ready form of an indexFile.
type snapshot struct {
	symbols    []symbolEntry
	dependents map[string][]string // file -> files that import it
}

func emptySnapshot() *snapshot {
	return &snapshot{dependents: map[string][]string{}}
}
