package sidecar

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client implements runtimetest.ProcessRunner by delegating each procedure
// to a Server running in a sidecar process, for project languages the core
// binary cannot exec directly. Connection setup mirrors
// pkg/agent.NewGRPCLLMClient: insecure (plaintext) transport, since the
// sidecar is expected to run on localhost alongside the core binary.
type Client struct {
	conn *grpc.ClientConn
}

// NewClient dials addr. If the sidecar is ever deployed across a network
// boundary this must be upgraded to TLS.
func NewClient(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime-test sidecar client for %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Run(ctx context.Context, dir, command string, args []string) (string, int, bool, error) {
	req := &RunScriptRequest{ProjectDir: dir, Entrypoint: command, TimeoutMs: timeoutMillis(ctx)}
	resp := new(RunScriptResponse)
	if err := c.conn.Invoke(ctx, methodRunScript, req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return "", -1, false, err
	}
	return resp.Output, int(resp.ExitCode), resp.TimedOut, nil
}

func (c *Client) Probe(ctx context.Context, dir, command string, args []string) (bool, string, error) {
	req := &ProbeServiceRequest{ProjectDir: dir, Entrypoint: command, TimeoutMs: timeoutMillis(ctx)}
	resp := new(ProbeServiceResponse)
	if err := c.conn.Invoke(ctx, methodProbeService, req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return false, "", err
	}
	return resp.Ready, resp.Output, nil
}

func (c *Client) Import(ctx context.Context, dir, entrypoint string) (bool, string, error) {
	req := &CheckImportRequest{ProjectDir: dir, Module: entrypoint, TimeoutMs: timeoutMillis(ctx)}
	resp := new(CheckImportResponse)
	if err := c.conn.Invoke(ctx, methodCheckImport, req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return false, "", err
	}
	return resp.OK, resp.Output, nil
}

func timeoutMillis(ctx context.Context) int64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	ms := time.Until(deadline).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
