package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// TestIntegration_E2E_ToolExecution tests the full tool execution pipeline:
// ExternalClient.Call → resolveServer (ListTools scan) → Client.CallTool → result.
func TestIntegration_E2E_ToolExecution(t *testing.T) {
	// Create an in-memory MCP server with a tool that echoes its arguments
	ts := startTestServer(t, "kubernetes", map[string]mcpsdk.ToolHandler{
		"get_pods": func(_ context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			args := req.Params.Arguments
			var parsed map[string]any
			if err := json.Unmarshal(args, &parsed); err != nil {
				return &mcpsdk.CallToolResult{
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "parse error: " + err.Error()}},
					IsError: true,
				}, nil
			}

			ns, _ := parsed["namespace"].(string)
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{
					Text: "pods in namespace " + ns + ": pod-1, pod-2",
				}},
			}, nil
		},
	})

	external := newTestExternalClient(t, "kubernetes", ts.clientTransport)

	result, err := external.Call(context.Background(), "get_pods", map[string]any{"namespace": "default"})
	require.NoError(t, err)
	assert.Contains(t, result, "pods in namespace default")
	assert.Contains(t, result, "pod-1, pod-2")
}

// TestIntegration_MultiServer_Routing tests tool discovery and routing across multiple servers.
func TestIntegration_MultiServer_Routing(t *testing.T) {
	k8sServer := startTestServer(t, "kubernetes", map[string]mcpsdk.ToolHandler{
		"get_pods": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "k8s: pods"}},
			}, nil
		},
	})

	ghServer := startTestServer(t, "github", map[string]mcpsdk.ToolHandler{
		"list_repos": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "gh: repos"}},
			}, nil
		},
	})

	registry := config.NewToolServerRegistry(nil)
	client := newClient(registry)
	wireSession(t, client, "kubernetes", k8sServer.clientTransport)
	wireSession(t, client, "github", ghServer.clientTransport)
	t.Cleanup(func() { _ = client.Close() })

	external := NewExternalClient(client, []string{"kubernetes", "github"}, nil)

	tools, err := client.ListAllTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)

	r1, err := external.Call(context.Background(), "get_pods", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "k8s: pods", r1)

	r2, err := external.Call(context.Background(), "list_repos", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "gh: repos", r2)
}

// TestIntegration_PerSessionIsolation tests that two concurrent external
// clients from the same factory operate independently.
func TestIntegration_PerSessionIsolation(t *testing.T) {
	ts1 := startTestServer(t, "server1", map[string]mcpsdk.ToolHandler{
		"tool": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "from session 1"}},
			}, nil
		},
	})

	ts2 := startTestServer(t, "server2", map[string]mcpsdk.ToolHandler{
		"tool": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "from session 2"}},
			}, nil
		},
	})

	registry := config.NewToolServerRegistry(nil)

	client1 := newClient(registry)
	wireSession(t, client1, "server1", ts1.clientTransport)
	t.Cleanup(func() { _ = client1.Close() })
	ext1 := NewExternalClient(client1, []string{"server1"}, nil)

	client2 := newClient(registry)
	wireSession(t, client2, "server2", ts2.clientTransport)
	t.Cleanup(func() { _ = client2.Close() })
	ext2 := NewExternalClient(client2, []string{"server2"}, nil)

	r1, err := ext1.Call(context.Background(), "tool", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "from session 1", r1)

	r2, err := ext2.Call(context.Background(), "tool", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "from session 2", r2)
}

// TestIntegration_HealthMonitor_Lifecycle tests healthy → failure → recovery lifecycle.
func TestIntegration_HealthMonitor_Lifecycle(t *testing.T) {
	ts := startTestServer(t, "test-server", map[string]mcpsdk.ToolHandler{
		"ping": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "pong"}}}, nil
		},
	})

	registry := config.NewToolServerRegistry(nil)
	factory := NewClientFactory(registry, nil)
	monitor := NewHealthMonitor(factory, registry)

	client := newClient(registry)
	wireSession(t, client, "test-server", ts.clientTransport)
	t.Cleanup(func() { _ = client.Close() })
	monitor.client = client

	// Phase 1: Healthy
	monitor.checkServer(context.Background(), "test-server")
	assert.True(t, monitor.IsHealthy())
	status := monitor.GetStatuses()["test-server"]
	require.NotNil(t, status)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Error)
	assert.Equal(t, 1, status.ToolCount)

	// Phase 2: Simulate failure (close the session)
	client.mu.Lock()
	if session, exists := client.sessions["test-server"]; exists {
		_ = session.Close()
		delete(client.sessions, "test-server")
		delete(client.clients, "test-server")
	}
	client.mu.Unlock()

	monitor.checkServer(context.Background(), "test-server")
	assert.False(t, monitor.IsHealthy())
	status = monitor.GetStatuses()["test-server"]
	require.NotNil(t, status)
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)

	// Phase 3: Simulate recovery (reconnect with new server)
	ts2 := startTestServer(t, "test-server", map[string]mcpsdk.ToolHandler{
		"ping": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "pong"}}}, nil
		},
	})
	wireSession(t, client, "test-server", ts2.clientTransport)

	monitor.checkServer(context.Background(), "test-server")
	assert.True(t, monitor.IsHealthy())
	status = monitor.GetStatuses()["test-server"]
	require.NotNil(t, status)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Error)
}

// --- Test helpers ---

// newTestExternalClient wires a single-server ExternalClient for testing.
func newTestExternalClient(t *testing.T, serverID string, transport *mcpsdk.InMemoryTransport) *ExternalClient {
	t.Helper()

	registry := config.NewToolServerRegistry(nil)
	client := newClient(registry)
	wireSession(t, client, serverID, transport)
	t.Cleanup(func() { _ = client.Close() })

	return NewExternalClient(client, []string{serverID}, nil)
}

// wireSession connects a client to an in-memory transport and registers the session.
func wireSession(t *testing.T, client *Client, serverID string, transport *mcpsdk.InMemoryTransport) {
	t.Helper()

	sdkClient := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name: "codeagent-test", Version: "test",
	}, nil)
	session, err := sdkClient.Connect(context.Background(), transport, nil)
	require.NoError(t, err)

	client.mu.Lock()
	client.sessions[serverID] = session
	client.clients[serverID] = sdkClient
	client.mu.Unlock()
}

// TestIntegration_FailedServers tests failed server tracking through the pipeline.
func TestIntegration_FailedServers(t *testing.T) {
	registry := config.NewToolServerRegistry(nil)
	client := newClient(registry)

	// Initialize with a non-existent server (failures recorded, not returned)
	_ = client.Initialize(context.Background(), []string{"broken-server"})

	failed := client.FailedServers()
	assert.Contains(t, failed, "broken-server")
	assert.NotEmpty(t, failed["broken-server"])
}

// TestIntegration_HealthMonitor_ToolCaching tests that the health monitor populates tool cache.
func TestIntegration_HealthMonitor_ToolCaching(t *testing.T) {
	ts := startTestServer(t, "test-server", map[string]mcpsdk.ToolHandler{
		"tool_a": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "a"}}}, nil
		},
		"tool_b": func(_ context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			return &mcpsdk.CallToolResult{Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "b"}}}, nil
		},
	})

	registry := config.NewToolServerRegistry(map[string]*config.ToolServerConfig{
		"test-server": {Transport: config.TransportConfig{Type: config.TransportTypeStdio, Command: "echo"}},
	})
	factory := NewClientFactory(registry, nil)
	monitor := NewHealthMonitor(factory, registry)
	monitor.pingTimeout = 5 * time.Second

	client := newClient(registry)
	wireSession(t, client, "test-server", ts.clientTransport)
	t.Cleanup(func() { _ = client.Close() })
	monitor.client = client

	monitor.checkServer(context.Background(), "test-server")

	cached := monitor.GetCachedTools()
	require.Contains(t, cached, "test-server")
	assert.Len(t, cached["test-server"], 2)
}
