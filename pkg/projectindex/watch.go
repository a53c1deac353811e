package projectindex

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watcher detects an atomic replace of the snapshot file (the indexer writes
// a temp file then renames it into place) and triggers a reload. Grounded on
// the gateway plugin loader's hot-reload watcher: watch the containing
// directory rather than the file itself, since a rename-based replace does
// not keep the original file's inode/watch alive, and filter events down to
// the one filename we care about.
type watcher struct {
	fsw    *fsnotify.Watcher
	target string
	client *Client
	done   chan struct{}
}

// Watch starts a background goroutine that reloads the snapshot whenever the
// indexer replaces it on disk. Stop it with Client.Close or by cancelling
// ctx. Calling Watch more than once on the same Client is an error.
func (c *Client) Watch(ctx context.Context) error {
	if c.watcher != nil {
		return fmt.Errorf("projectindex: Watch already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("projectindex: creating watcher: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("projectindex: watching %s: %w", dir, err)
	}

	w := &watcher{
		fsw:    fsw,
		target: filepath.Clean(c.path),
		client: c,
		done:   make(chan struct{}),
	}
	c.watcher = w

	go w.run(ctx)
	return nil
}

func (w *watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.client.logger.Warn("projectindex: watcher error", "error", err)
		}
	}
}

func (w *watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.target {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if err := w.client.reload(); err != nil {
		w.client.logger.Warn("projectindex: reload failed, keeping previous snapshot", "path", w.target, "error", err)
	}
}

func (w *watcher) close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
