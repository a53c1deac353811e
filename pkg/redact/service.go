package redact

import (
	"log/slog"

	"github.com/codeagent-run/codeagent/pkg/config"
)

// Service applies secret/PII masking to MCP tool results and escalation
// notifications. Created once at application startup; thread-safe and
// stateless aside from its eagerly compiled patterns.
type Service struct {
	toolServers          *config.ToolServerRegistry
	systemMasking        *config.MaskingConfig // fallback when a tool server carries no masking config of its own
	patterns             map[string]*CompiledPattern
	patternGroups        map[string][]string
	codeMaskers          map[string]Masker
	serverCustomPatterns map[string][]string
}

// NewService builds a Service with every built-in and custom pattern
// compiled eagerly. Invalid patterns are logged and skipped.
func NewService(toolServers *config.ToolServerRegistry, systemMasking *config.MaskingConfig) *Service {
	s := &Service{
		toolServers:          toolServers,
		systemMasking:        systemMasking,
		patterns:             make(map[string]*CompiledPattern),
		patternGroups:        config.GetBuiltinConfig().PatternGroups,
		codeMaskers:          make(map[string]Masker),
		serverCustomPatterns: make(map[string][]string),
	}

	s.compileBuiltinPatterns()
	s.compileCustomPatterns()
	s.registerMasker(&EnvFileSecretMasker{})

	slog.Info("redact service initialized",
		"builtin_patterns", len(config.GetBuiltinConfig().MaskingPatterns),
		"compiled_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers))

	return s
}

// MaskToolResult applies masking to one tool server's result content before
// it reaches the orchestrator's prompt. A server's own Masking config takes
// precedence; an unset one falls back to the system-wide config. Fails
// closed: a masking error redacts the whole result rather than risk leaking
// it unmasked.
func (s *Service) MaskToolResult(content string, serverID string) string {
	if content == "" {
		return content
	}

	cfg := s.systemMasking
	if serverCfg, err := s.toolServers.Get(serverID); err == nil && serverCfg.Masking != nil && serverCfg.Masking.Enabled {
		cfg = serverCfg.Masking
	}
	if cfg == nil || !cfg.Enabled {
		return content
	}

	resolved := s.resolvePatterns(cfg, serverID)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	masked, err := s.applyMasking(content, resolved)
	if err != nil {
		slog.Error("redact: masking failed, redacting whole result (fail-closed)",
			"server", serverID, "error", err)
		return "[REDACTED: data masking failure — tool result could not be safely processed]"
	}
	return masked
}

// MaskForNotification applies the system-wide masking config to text bound
// for an escalation notification (pkg/notify). Fails open: a notification
// that can't be masked still goes out, since a silent escalation is worse
// than an unmasked one — the same tradeoff the teacher made for alerts.
func (s *Service) MaskForNotification(content string) string {
	if content == "" || s.systemMasking == nil || !s.systemMasking.Enabled {
		return content
	}

	resolved := s.resolvePatterns(s.systemMasking, "")
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return content
	}

	masked, err := s.applyMasking(content, resolved)
	if err != nil {
		slog.Error("redact: notification masking failed, continuing unmasked (fail-open)", "error", err)
		return content
	}
	return masked
}

// applyMasking runs code-based maskers (structural, more specific) before
// regex patterns (a general sweep) over content.
func (s *Service) applyMasking(content string, resolved *resolvedPatterns) (string, error) {
	masked := content

	for _, name := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[name]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}

	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked, nil
}

func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
