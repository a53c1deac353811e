// Package vfs implements the staged-overlay file view every tool, the
// validator, and the runtime tester read through during a session: edits are
// staged in memory, never touch disk until Commit, and Discard drops them
// without a trace (spec.md §4.3, invariants P1-P3, L1-L2).
package vfs

import (
	"sync"
)

// Change is one staged mutation to a path. A nil Content with Deleted set
// models a staged delete; Content non-nil models a staged create/modify.
type Change struct {
	Content *string
	Deleted bool
}

// Disk is the real filesystem VFS falls back to for paths with no staged
// change. Kept as an interface so tests can run without touching disk.
type Disk interface {
	ReadFile(path string) (content string, ok bool, err error)
	WriteFile(path string, content string) error
	Remove(path string) error
}

// VFS is the staged overlay for one session. Not safe for use after Commit
// or Discard without re-staging; a fresh VFS is created per session.
type VFS struct {
	mu      sync.RWMutex
	staged  map[string]Change
	trail   []TrailEntry
	disk    Disk
	backups BackupManager
}

// TrailEntry records one Stage call for session history/debugging. Not
// required for correctness (spec.md §4.3).
type TrailEntry struct {
	Path   string
	Change Change
}

// New constructs a VFS backed by disk for fallback reads and backups for
// pre-write snapshots taken during Commit.
func New(disk Disk, backups BackupManager) *VFS {
	return &VFS{
		staged:  make(map[string]Change),
		disk:    disk,
		backups: backups,
	}
}

// Stage records content as the new pending value for path, idempotently
// replacing any prior staged value, and returns that prior value if one
// existed.
func (v *VFS) Stage(path string, content string) (prev *Change) {
	return v.stage(path, Change{Content: &content})
}

// StageDelete records path as staged for deletion.
func (v *VFS) StageDelete(path string) (prev *Change) {
	return v.stage(path, Change{Deleted: true})
}

func (v *VFS) stage(path string, change Change) *Change {
	v.mu.Lock()
	defer v.mu.Unlock()

	var prev *Change
	if existing, ok := v.staged[path]; ok {
		existing := existing
		prev = &existing
	}
	v.staged[path] = change
	v.trail = append(v.trail, TrailEntry{Path: path, Change: change})
	return prev
}

// Read returns the staged content for path if any, otherwise falls through
// to disk. A staged delete reports not-found regardless of disk state (I1).
func (v *VFS) Read(path string) (content string, ok bool) {
	v.mu.RLock()
	change, staged := v.staged[path]
	v.mu.RUnlock()

	if staged {
		if change.Deleted {
			return "", false
		}
		return *change.Content, true
	}

	diskContent, diskOK, err := v.disk.ReadFile(path)
	if err != nil || !diskOK {
		return "", false
	}
	return diskContent, true
}

// FileExists reports whether path exists in the staged view: a staged create
// counts as existing, a staged delete counts as not existing, otherwise disk
// is consulted.
func (v *VFS) FileExists(path string) bool {
	_, ok := v.Read(path)
	return ok
}

// StagedFiles returns every path with an active staged change.
func (v *VFS) StagedFiles() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]string, 0, len(v.staged))
	for p := range v.staged {
		out = append(out, p)
	}
	return out
}

// Discard drops all staged state without touching disk (L2: combined with no
// prior Commit, disk ends bit-identical to pre-session).
func (v *VFS) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.staged = make(map[string]Change)
	v.trail = nil
}
