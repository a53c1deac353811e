package context

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
)

type stubCaller struct {
	resp *llm.Response
	err  error
}

func (s stubCaller) Call(_ context.Context, _ string, _ []llm.Message, _ llm.CallOptions) (*llm.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func manyMessages(n int) []llm.Message {
	out := make([]llm.Message, n)
	for i := range out {
		out[i] = llm.Message{Role: llm.RoleAssistant, Content: "message body text that is moderately long to accumulate tokens"}
	}
	return out
}

func TestMaybeCompressProactiveSkipsUnderThreshold(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.HistoryThresholdTokens = 1_000_000
	cfg.CompressorModel = "cheap-model"
	c := New(stubCaller{}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(2)}
	out, compressed, err := c.MaybeCompress(context.Background(), conv, ModeProactive, 0)
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, conv, out)
}

func TestMaybeCompressProactiveCompressesOverThreshold(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.HistoryThresholdTokens = 1
	cfg.CompressorModel = "cheap-model"
	cfg.KeepLastMessages = 2
	c := New(stubCaller{resp: &llm.Response{Message: llm.Message{Content: "abstract of earlier turns"}}}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(10), CodeBlocks: []string{"package main"}}
	out, compressed, err := c.MaybeCompress(context.Background(), conv, ModeProactive, 0)
	require.NoError(t, err)
	assert.True(t, compressed)
	require.Len(t, out.Messages, 3) // 1 summary + 2 kept
	assert.Contains(t, out.Messages[0].Content, "abstract of earlier turns")
	assert.Equal(t, []string{"package main"}, out.CodeBlocks)
	assert.Equal(t, "do thing", out.UserRequest)
}

func TestMaybeCompressReactiveAlwaysCompresses(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.CompressorModel = "cheap-model"
	c := New(stubCaller{resp: &llm.Response{Message: llm.Message{Content: "abstract"}}}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(10)}
	_, compressed, err := c.MaybeCompress(context.Background(), conv, ModeReactive, 0)
	require.NoError(t, err)
	assert.True(t, compressed)
}

func TestMaybeCompressFallsBackToTruncationOnFailure(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.CompressorModel = "cheap-model"
	cfg.KeepLastMessages = 3
	c := New(stubCaller{err: errors.New("model unavailable")}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(10), CodeBlocks: []string{"x"}}
	out, compressed, err := c.MaybeCompress(context.Background(), conv, ModeReactive, 0)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.Len(t, out.Messages, 3)
	assert.Equal(t, []string{"x"}, out.CodeBlocks)
}

func TestCompressNoModelConfiguredFallsBack(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.KeepLastMessages = 2
	c := New(stubCaller{}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(5)}
	out, compressed, err := c.MaybeCompress(context.Background(), conv, ModeReactive, 0)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.Len(t, out.Messages, 2)
}

func TestCompressWithFewerMessagesThanKeepReturnsClone(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.CompressorModel = "cheap-model"
	cfg.KeepLastMessages = 10
	c := New(stubCaller{resp: &llm.Response{Message: llm.Message{Content: "abstract"}}}, cfg, nil)

	conv := &Conversation{UserRequest: "do thing", Messages: manyMessages(2)}
	out, compressed, err := c.MaybeCompress(context.Background(), conv, ModeReactive, 0)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.Len(t, out.Messages, 2)
}

func TestTriggerThresholdUsesWindowFraction(t *testing.T) {
	cfg := cfgpkg.DefaultCompressionConfig()
	cfg.TargetFraction = 0.5
	c := New(stubCaller{}, cfg, nil)
	assert.Equal(t, 5000, c.triggerThreshold(10000))
}
