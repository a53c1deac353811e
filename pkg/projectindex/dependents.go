package projectindex

import (
	"context"
	"sort"

	"github.com/codeagent-run/codeagent/pkg/vfs"
)

var _ vfs.DependentsResolver = (*Client)(nil)

// Dependents implements vfs.DependentsResolver: one level of files that
// import any file in changed, deduplicated against changed itself.
func (c *Client) Dependents(ctx context.Context, changed []string) ([]string, error) {
	snap := c.current()

	inChanged := make(map[string]bool, len(changed))
	for _, f := range changed {
		inChanged[f] = true
	}

	seen := make(map[string]bool)
	var dependents []string
	for _, f := range changed {
		for _, dep := range snap.dependents[f] {
			if inChanged[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			dependents = append(dependents, dep)
		}
	}

	sort.Strings(dependents)
	return dependents, nil
}
