// Package ids centralizes the uuid-based identifiers scattered through the
// teacher as inline uuid.New().String() calls (pkg/services/session_service.go,
// pkg/agent/controller/helpers.go) into one place, adding the short
// type-prefix convention itsneelabh-gomind's orchestration package uses for
// its checkpoint and step ids (e.g. "cp-<uuid prefix>").
package ids

import "github.com/google/uuid"

// New returns a bare random identifier, unprefixed. Equivalent to the
// teacher's uuid.New().String() call sites.
func New() string {
	return uuid.New().String()
}

// Session returns a new RequestSession identifier.
func Session() string { return prefixed("sess") }

// Block returns a new CodeBlock identifier.
func Block() string { return prefixed("blk") }

// Backup returns a new vfs backup identifier.
func Backup() string { return prefixed("bak") }

func prefixed(prefix string) string {
	return prefix + "_" + New()
}
