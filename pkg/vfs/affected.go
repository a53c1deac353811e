package vfs

import "context"

// DependentsResolver finds files that import any of the given changed
// modules, transitively to one level by default (spec.md §4.3). Backed by
// pkg/projectindex's semantic index client in the full pipeline; a VFS with
// a nil resolver reports no dependents, which is correct for sessions that
// only ever touch a single file.
type DependentsResolver interface {
	Dependents(ctx context.Context, changed []string) ([]string, error)
}

// AffectedFiles returns the staged set (changed) plus every file that
// imports one of them (dependents), per spec.md §4.3.
func (v *VFS) AffectedFiles(ctx context.Context, resolver DependentsResolver) (changed, dependents []string, err error) {
	changed = v.StagedFiles()
	if resolver == nil || len(changed) == 0 {
		return changed, nil, nil
	}

	dependents, err = resolver.Dependents(ctx, changed)
	if err != nil {
		return changed, nil, err
	}
	return changed, dependents, nil
}
