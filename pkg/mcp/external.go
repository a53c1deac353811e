package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codeagent-run/codeagent/pkg/redact"
)

// ExternalClient implements pkg/tools.ExternalClient, backing the
// web_search/get_advice built-in tool handlers with whichever configured
// MCP server actually hosts that tool. Tool names arrive bare (e.g.
// "web_search"), not server-prefixed, so Call resolves the hosting server
// with a ListTools scan over serverIDs before dispatching.
type ExternalClient struct {
	client    *Client
	serverIDs []string
	redactor  *redact.Service
}

// NewExternalClient binds a Client to the set of servers a session may call
// into.
func NewExternalClient(client *Client, serverIDs []string, redactor *redact.Service) *ExternalClient {
	return &ExternalClient{client: client, serverIDs: serverIDs, redactor: redactor}
}

// Call resolves toolName to a hosting server and invokes it there.
func (e *ExternalClient) Call(ctx context.Context, toolName string, args map[string]any) (string, error) {
	serverID, err := e.resolveServer(ctx, toolName)
	if err != nil {
		return "", err
	}

	result, err := e.client.CallTool(ctx, serverID, toolName, args)
	if err != nil {
		return "", fmt.Errorf("mcp: call %s.%s: %w", serverID, toolName, err)
	}

	text := extractTextContent(result)
	if e.redactor != nil {
		text = e.redactor.MaskToolResult(text, serverID)
	}
	return text, nil
}

// resolveServer finds which configured server currently exposes toolName.
func (e *ExternalClient) resolveServer(ctx context.Context, toolName string) (string, error) {
	for _, serverID := range e.serverIDs {
		tools, err := e.client.ListTools(ctx, serverID)
		if err != nil {
			continue
		}
		for _, t := range tools {
			if t.Name == toolName {
				return serverID, nil
			}
		}
	}
	return "", fmt.Errorf("mcp: no configured server exposes tool %q", toolName)
}

// extractTextContent flattens an MCP CallToolResult's content blocks into
// the plain text the tool handlers expect.
func extractTextContent(result *mcpsdk.CallToolResult) string {
	if result == nil {
		return ""
	}
	var b strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcpsdk.TextContent); ok {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(tc.Text)
		}
	}
	if result.IsError && b.Len() == 0 {
		return "tool call returned an error with no text content"
	}
	return b.String()
}
