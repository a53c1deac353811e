package vfs

import (
	"context"
	"errors"
	"sync"
)

// memDisk is an in-memory Disk for tests.
type memDisk struct {
	mu    sync.Mutex
	files map[string]string
	// failWrite, if set, makes WriteFile fail for this path.
	failWrite map[string]bool
}

func newMemDisk(initial map[string]string) *memDisk {
	files := make(map[string]string, len(initial))
	for k, v := range initial {
		files[k] = v
	}
	return &memDisk{files: files, failWrite: make(map[string]bool)}
}

func (d *memDisk) ReadFile(path string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	content, ok := d.files[path]
	return content, ok, nil
}

func (d *memDisk) WriteFile(path string, content string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWrite[path] {
		return errors.New("simulated write failure")
	}
	d.files[path] = content
	return nil
}

func (d *memDisk) Remove(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.files, path)
	return nil
}

// memBackups is an in-memory BackupManager for tests.
type memBackups struct {
	mu   sync.Mutex
	data map[string]struct {
		content string
		existed bool
	}
}

func newMemBackups() *memBackups {
	return &memBackups{data: make(map[string]struct {
		content string
		existed bool
	})}
}

func (b *memBackups) Backup(_ context.Context, path string, content string, existed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[path] = struct {
		content string
		existed bool
	}{content, existed}
	return nil
}

func (b *memBackups) Restore(_ context.Context, path string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.data[path]
	if !ok {
		return "", false, errors.New("no backup for path")
	}
	return entry.content, entry.existed, nil
}
