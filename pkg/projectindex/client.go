package projectindex

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Client is a read-only view over the external indexer's snapshot file. The
// zero value is not usable; construct with NewClient.
type Client struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	snap *snapshot

	watcher *watcher
}

// NewClient loads the snapshot at path, if present, and returns a Client
// ready to serve queries. A missing file is not an error: the indexer may
// not have produced its first snapshot yet, and the client starts out
// reporting empty results until Watch observes one appear.
func NewClient(path string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		path:   path,
		logger: logger,
		snap:   emptySnapshot(),
	}

	if err := c.reload(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("projectindex: loading initial snapshot: %w", err)
	}
	return c, nil
}

func (c *Client) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		c.logger.Warn("projectindex: snapshot file is not valid JSON, keeping previous snapshot", "path", c.path, "error", err)
		return nil
	}

	deps := file.Dependents
	if deps == nil {
		deps = map[string][]string{}
	}

	c.mu.Lock()
	c.snap = &snapshot{symbols: file.Symbols, dependents: deps}
	c.mu.Unlock()

	c.logger.Info("projectindex: loaded snapshot", "path", c.path, "symbols", len(file.Symbols), "dependents", len(deps))
	return nil
}

func (c *Client) current() *snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Close stops the background watcher, if one was started with Watch. Safe to
// call on a Client that never started watching.
func (c *Client) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.close()
}
