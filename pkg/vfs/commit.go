package vfs

import (
	"context"
	"fmt"
)

// BackupManager snapshots a file's pre-change content so Commit can roll a
// partial failure back. Implementations persist backups keyed by session so
// a crash mid-commit can still be recovered from (adapted into
// internal/store, ent-backed, in the final wiring pass).
type BackupManager interface {
	Backup(ctx context.Context, path string, content string, existed bool) error
	Restore(ctx context.Context, path string) (content string, existed bool, err error)
}

// CommitResult reports what Commit actually did.
type CommitResult struct {
	Written    []string
	Deleted    []string
	Skipped    []string
	RolledBack []string
	Err        error
}

// Commit writes every staged change to disk, backing up the prior content of
// each path first. If any write fails, every file already written in this
// commit is restored from its backup, and the remaining staged paths are
// reported as Skipped (I3: Commit is all-or-mostly-nothing).
func (v *VFS) Commit(ctx context.Context) (*CommitResult, error) {
	v.mu.Lock()
	staged := v.staged
	v.staged = make(map[string]Change)
	v.mu.Unlock()

	result := &CommitResult{}
	written := make([]string, 0, len(staged))

	for path, change := range staged {
		priorContent, priorExisted, _ := v.disk.ReadFile(path)

		if err := v.backups.Backup(ctx, path, priorContent, priorExisted); err != nil {
			result.Err = fmt.Errorf("vfs: backup %s: %w", path, err)
			v.rollback(ctx, written, result)
			result.Skipped = remaining(staged, written)
			return result, result.Err
		}

		var writeErr error
		if change.Deleted {
			writeErr = v.disk.Remove(path)
		} else {
			writeErr = v.disk.WriteFile(path, *change.Content)
		}

		if writeErr != nil {
			result.Err = fmt.Errorf("vfs: write %s: %w", path, writeErr)
			v.rollback(ctx, written, result)
			result.Skipped = remaining(staged, written)
			return result, result.Err
		}

		written = append(written, path)
		if change.Deleted {
			result.Deleted = append(result.Deleted, path)
		} else {
			result.Written = append(result.Written, path)
		}
	}

	return result, nil
}

func (v *VFS) rollback(ctx context.Context, written []string, result *CommitResult) {
	for _, path := range written {
		content, existed, err := v.backups.Restore(ctx, path)
		if err != nil {
			continue
		}
		if existed {
			_ = v.disk.WriteFile(path, content)
		} else {
			_ = v.disk.Remove(path)
		}
		result.RolledBack = append(result.RolledBack, path)
	}
}

// remaining returns every staged path other than those already committed in
// `written`. The path that just failed is included here too: it did not end
// up committed, so it is reported skipped alongside the untouched rest.
func remaining(staged map[string]Change, written []string) []string {
	done := make(map[string]bool, len(written))
	for _, p := range written {
		done[p] = true
	}

	out := make([]string, 0, len(staged))
	for p := range staged {
		if done[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}
