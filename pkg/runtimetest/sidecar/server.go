package sidecar

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
)

// Runner is the process-level implementation the gRPC server delegates to.
// It is satisfied by runtimetest.OSProcessRunner, but the sidecar talks to
// it through this narrower seam so the server doesn't need the parent
// package's other types.
type Runner interface {
	Run(ctx context.Context, dir, command string, args []string) (output string, exitCode int, timedOut bool, err error)
	Probe(ctx context.Context, dir, command string, args []string) (ready bool, output string, err error)
	Import(ctx context.Context, dir, entrypoint string) (ok bool, output string, err error)
}

// Server exposes a Runner over gRPC so a language-specific sidecar process
// (one that embeds the interpreter the core binary doesn't want to exec
// directly) can run smoke-test procedures on the core binary's behalf, per
// spec.md §4.5's "optional gRPC sidecar". Shaped after
// None9527-NGOClaw/gateway/internal/interfaces/agentgrpc.Server, down to
// the Start/Stop lifecycle and port-based listener.
type Server struct {
	runner Runner
	logger *slog.Logger
	server *grpc.Server
	port   int
	addr   string
}

// NewServer builds a Server. A nil logger falls back to slog.Default().
func NewServer(runner Runner, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{runner: runner, port: port, logger: logger.With("component", "runtimetest-sidecar")}
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listen port %d: %w", s.port, err)
	}
	s.addr = lis.Addr().String()

	s.server = grpc.NewServer()
	// No protoc-gen-go-grpc stubs exist for proto/runtimetest.proto in this
	// tree, so the three RPCs are registered by hand through a ServiceDesc
	// instead of a generated RegisterRuntimeSidecarServiceServer call.
	s.server.RegisterService(&serviceDesc, s)

	s.logger.Info("starting runtime-test sidecar server", "port", s.port)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			s.logger.Error("runtime-test sidecar server stopped", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listener address, valid after Start returns.
// Useful in tests where port 0 lets the OS pick a free port.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully drains in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		s.server.GracefulStop()
		s.logger.Info("runtime-test sidecar server stopped")
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "runtimetest.v1.RuntimeSidecarService",
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunScript", Handler: runScriptHandler},
		{MethodName: "ProbeService", Handler: probeServiceHandler},
		{MethodName: "CheckImport", Handler: checkImportHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "runtimetest.proto",
}

func runScriptHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(RunScriptRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).runScript(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRunScript}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).runScript(ctx, req.(*RunScriptRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func probeServiceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ProbeServiceRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).probeService(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodProbeService}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).probeService(ctx, req.(*ProbeServiceRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func checkImportHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CheckImportRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).checkImport(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCheckImport}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).checkImport(ctx, req.(*CheckImportRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func (s *Server) runScript(ctx context.Context, req *RunScriptRequest) (*RunScriptResponse, error) {
	ctx, cancel := withRequestTimeout(ctx, req.TimeoutMs)
	defer cancel()
	out, code, timedOut, err := s.runner.Run(ctx, req.ProjectDir, req.Entrypoint, nil)
	if err != nil {
		return nil, err
	}
	return &RunScriptResponse{Output: out, ExitCode: int32(code), TimedOut: timedOut}, nil
}

func (s *Server) probeService(ctx context.Context, req *ProbeServiceRequest) (*ProbeServiceResponse, error) {
	ctx, cancel := withRequestTimeout(ctx, req.TimeoutMs)
	defer cancel()
	ready, out, err := s.runner.Probe(ctx, req.ProjectDir, req.Entrypoint, nil)
	if err != nil {
		return nil, err
	}
	return &ProbeServiceResponse{Ready: ready, Output: out}, nil
}

func (s *Server) checkImport(ctx context.Context, req *CheckImportRequest) (*CheckImportResponse, error) {
	ctx, cancel := withRequestTimeout(ctx, req.TimeoutMs)
	defer cancel()
	ok, out, err := s.runner.Import(ctx, req.ProjectDir, req.Module)
	if err != nil {
		return nil, err
	}
	return &CheckImportResponse{OK: ok, Output: out}, nil
}

func withRequestTimeout(ctx context.Context, timeoutMs int64) (context.Context, context.CancelFunc) {
	if timeoutMs <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
}
