package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
)

// routerSystemPrompt asks the router model for exactly one of the three
// complexity words, nothing else — the response is parsed by exact match,
// not JSON, to keep the router call itself cheap and fast.
const routerSystemPrompt = `You triage a code-modification request into exactly one complexity bucket:
simple, medium, or complex.
Reply with that single word and nothing else.`

// route runs spec.md §4.7 step 2: ask the Router LLM for a complexity
// bucket, fall back to simple on any failure, and resolve the orchestrator
// model to use from config.RouterConfig.
func route(ctx context.Context, dispatcher *llm.Dispatcher, cfg *config.Config, userRequest string, logger *slog.Logger) (config.Complexity, string) {
	if !cfg.Router.Enabled {
		return config.ComplexitySimple, cfg.Router.FixedModel
	}

	resp, err := dispatcher.Call(ctx, cfg.Router.RouterModel, []llm.Message{
		{Role: llm.RoleSystem, Content: routerSystemPrompt},
		{Role: llm.RoleUser, Content: userRequest},
	}, llm.CallOptions{MaxTokens: 8})
	if err != nil {
		logger.Warn("router call failed, falling back to simple", "error", err)
		return config.ComplexitySimple, cfg.Router.SimpleModel
	}

	complexity := parseComplexity(resp.Message.Content)
	return complexity, modelForComplexity(cfg.Router, complexity)
}

func parseComplexity(text string) config.Complexity {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case string(config.ComplexityMedium):
		return config.ComplexityMedium
	case string(config.ComplexityComplex):
		return config.ComplexityComplex
	case string(config.ComplexitySimple):
		return config.ComplexitySimple
	default:
		return config.ComplexitySimple
	}
}

func modelForComplexity(r config.RouterConfig, c config.Complexity) string {
	switch c {
	case config.ComplexityMedium:
		return r.MediumModel
	case config.ComplexityComplex:
		return r.ComplexModel
	default:
		return r.SimpleModel
	}
}
