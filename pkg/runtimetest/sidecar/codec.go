// Package sidecar carries the Runtime Tester's smoke-test procedures out
// to a language-specific child process over gRPC, for the contract
// described in proto/runtimetest.proto. The wire contract's generated
// protoc-gen-go stubs aren't produced here — this module never invokes
// protoc — so the request/response structs below mirror the .proto
// messages field-for-field instead of embedding real proto.Message types;
// swap them for the generated package once CI can run protoc. A JSON
// subtype codec carries them over the same grpc.ClientConn/grpc.Server
// machinery untouched.
package sidecar

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// RunScriptRequest mirrors proto/runtimetest.proto's message of the same name.
type RunScriptRequest struct {
	ProjectDir string `json:"project_dir"`
	Entrypoint string `json:"entrypoint"`
	TimeoutMs  int64  `json:"timeout_ms"`
}

type RunScriptResponse struct {
	Output   string `json:"output"`
	ExitCode int32  `json:"exit_code"`
	TimedOut bool   `json:"timed_out"`
}

type ProbeServiceRequest struct {
	ProjectDir string `json:"project_dir"`
	Entrypoint string `json:"entrypoint"`
	HealthAddr string `json:"health_addr"`
	TimeoutMs  int64  `json:"timeout_ms"`
}

type ProbeServiceResponse struct {
	Ready  bool   `json:"ready"`
	Output string `json:"output"`
}

type CheckImportRequest struct {
	ProjectDir string `json:"project_dir"`
	Module     string `json:"module"`
	TimeoutMs  int64  `json:"timeout_ms"`
}

type CheckImportResponse struct {
	OK     bool   `json:"ok"`
	Output string `json:"output"`
}

const (
	methodRunScript    = "/runtimetest.v1.RuntimeSidecarService/RunScript"
	methodProbeService = "/runtimetest.v1.RuntimeSidecarService/ProbeService"
	methodCheckImport  = "/runtimetest.v1.RuntimeSidecarService/CheckImport"
)
