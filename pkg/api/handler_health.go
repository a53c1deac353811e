package api

import (
	"context"

	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/database"
	"github.com/codeagent-run/codeagent/pkg/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string                 `json:"status"`
	Version       string                 `json:"version"`
	Database      *database.HealthStatus `json:"database,omitempty"`
	Configuration ConfigurationStats     `json:"configuration"`
	Manager       ManagerHealth          `json:"manager"`
}

// ConfigurationStats summarizes loaded configuration for the health check.
type ConfigurationStats struct {
	Models      int `json:"models"`
	ToolServers int `json:"tool_servers"`
}

// ManagerHealth summarizes internal/session.Manager's current load.
type ManagerHealth struct {
	ActiveSessions int `json:"active_sessions"`
	MaxConcurrent  int `json:"max_concurrent"`
}

func dbHealthCheck(ctx context.Context, st *store.Store) (*database.HealthStatus, error) {
	return database.Health(ctx, st.DB())
}

func versionFull() string {
	return version.Full()
}
