package mcp

import (
	"context"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/redact"
)

// ClientFactory creates Client instances for sessions.
type ClientFactory struct {
	registry *config.ToolServerRegistry
	redactor *redact.Service

	// createClientFn, when set, replaces CreateClient's real-transport
	// construction path. Only NewTestClientFactory sets this, to inject
	// in-memory MCP sessions.
	createClientFn func(ctx context.Context, serverIDs []string) (*Client, error)
}

// NewClientFactory creates a new factory. redactor may be nil (masking
// disabled).
func NewClientFactory(registry *config.ToolServerRegistry, redactor *redact.Service) *ClientFactory {
	return &ClientFactory{registry: registry, redactor: redactor}
}

// CreateClient creates a new Client connected to the specified servers.
// The caller is responsible for calling Close() when done.
func (f *ClientFactory) CreateClient(ctx context.Context, serverIDs []string) (*Client, error) {
	if f.createClientFn != nil {
		return f.createClientFn(ctx, serverIDs)
	}

	client := newClient(f.registry)
	if err := client.Initialize(ctx, serverIDs); err != nil {
		_ = client.Close() // Clean up partial initialization
		return nil, err
	}
	return client, nil
}

// CreateExternalClient creates a fully-wired pkg/tools.ExternalClient for a
// session, backing pkg/tools' web_search/get_advice handlers with these MCP
// servers. This is the primary entry point used by internal/session.Manager.
func (f *ClientFactory) CreateExternalClient(
	ctx context.Context,
	serverIDs []string,
) (*ExternalClient, *Client, error) {
	client, err := f.CreateClient(ctx, serverIDs)
	if err != nil {
		return nil, nil, err
	}
	return NewExternalClient(client, serverIDs, f.redactor), client, nil
}
