package config

import (
	"fmt"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateModels(); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}

	if err := v.validateToolServers(); err != nil {
		return fmt.Errorf("tool server validation failed: %w", err)
	}

	if err := v.validateBudgets(); err != nil {
		return fmt.Errorf("budget validation failed: %w", err)
	}

	if err := v.validateDispatch(); err != nil {
		return fmt.Errorf("dispatch validation failed: %w", err)
	}

	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}

	if err := v.validateCompression(); err != nil {
		return fmt.Errorf("compression validation failed: %w", err)
	}

	if err := v.validateRouter(); err != nil {
		return fmt.Errorf("router validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateModels() error {
	models := v.cfg.Models.GetAll()
	if len(models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}

	for id, m := range models {
		if m.Model == "" {
			return NewValidationError("model", id, "model", ErrMissingRequiredField)
		}
		if m.BaseURL == "" {
			return NewValidationError("model", id, "base_url", ErrMissingRequiredField)
		}
		if !isKnownProviderType(m.Type) {
			return NewValidationError("model", id, "type", fmt.Errorf("%w: %s", ErrInvalidValue, m.Type))
		}
	}

	if v.cfg.Router.Enabled {
		for field, modelID := range map[string]string{
			"orchestrator_simple_model":  v.cfg.Router.SimpleModel,
			"orchestrator_medium_model":  v.cfg.Router.MediumModel,
			"orchestrator_complex_model": v.cfg.Router.ComplexModel,
			"router_model":               v.cfg.Router.RouterModel,
		} {
			if modelID != "" && !v.cfg.Models.Has(modelID) {
				return NewValidationError("router", field, "", fmt.Errorf("%w: %s", ErrLLMProviderNotFound, modelID))
			}
		}
	}

	if v.cfg.AIValidator.Enabled {
		for field, modelID := range map[string]string{
			"ai_validator_model_small": v.cfg.AIValidator.SmallModel,
			"ai_validator_model_large": v.cfg.AIValidator.LargeModel,
		} {
			if modelID != "" && !v.cfg.Models.Has(modelID) {
				return NewValidationError("ai_validator", field, "", fmt.Errorf("%w: %s", ErrLLMProviderNotFound, modelID))
			}
		}
	}

	return nil
}

func isKnownProviderType(t LLMProviderType) bool {
	switch t {
	case ProviderOpenAI, ProviderDeepSeek, ProviderOpenRouter, ProviderAnthropic, ProviderGemini:
		return true
	default:
		return false
	}
}

func (v *Validator) validateToolServers() error {
	for id, server := range v.cfg.ToolServers.GetAll() {
		if !server.Transport.Type.IsValid() {
			return NewValidationError("tool_server", id, "transport.type", ErrInvalidValue)
		}
		switch server.Transport.Type {
		case TransportStdio:
			if server.Transport.Command == "" {
				return NewValidationError("tool_server", id, "transport.command", ErrMissingRequiredField)
			}
		case TransportHTTP, TransportSSE:
			if server.Transport.URL == "" {
				return NewValidationError("tool_server", id, "transport.url", ErrMissingRequiredField)
			}
		}
	}
	return nil
}

func (v *Validator) validateBudgets() error {
	b := v.cfg.Budgets
	if b.MaxValidatorRetries < 1 {
		return fmt.Errorf("max_validator_retries must be at least 1, got %d", b.MaxValidatorRetries)
	}
	if b.MaxOrchestratorRevisions < 1 {
		return fmt.Errorf("max_orchestrator_revisions must be at least 1, got %d", b.MaxOrchestratorRevisions)
	}
	if b.MaxTestRunsPerSession < 1 {
		return fmt.Errorf("max_test_runs_per_session must be at least 1, got %d", b.MaxTestRunsPerSession)
	}
	if b.TestTimeoutSec < 1 || b.TestTimeoutSec > 60 {
		return fmt.Errorf("test_timeout_sec must be between 1 and 60, got %d", b.TestTimeoutSec)
	}
	if b.TestOutputLimit < 1 {
		return fmt.Errorf("test_output_limit must be at least 1, got %d", b.TestOutputLimit)
	}
	if b.MaxOrchestratorToolIterations < 1 {
		return fmt.Errorf("max_orchestrator_tool_iterations must be at least 1, got %d", b.MaxOrchestratorToolIterations)
	}
	if b.MaxGeneratorRetries < 1 {
		return fmt.Errorf("max_generator_retries must be at least 1, got %d", b.MaxGeneratorRetries)
	}
	if b.GeneratorRetryDelaySec < 1 {
		return fmt.Errorf("generator_retry_delay_sec must be at least 1, got %d", b.GeneratorRetryDelaySec)
	}

	pf := v.cfg.PreFilter
	if pf.MaxChunks < 1 {
		return fmt.Errorf("pre_filter_max_chunks must be at least 1, got %d", pf.MaxChunks)
	}
	if pf.MaxTokens < 1 {
		return fmt.Errorf("pre_filter_max_tokens must be at least 1, got %d", pf.MaxTokens)
	}

	return nil
}

func (v *Validator) validateDispatch() error {
	d := v.cfg.Dispatch
	if d.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max_concurrent_requests must be at least 1, got %d", d.MaxConcurrentRequests)
	}
	if d.RateLimitMaxAttempts < 1 {
		return fmt.Errorf("rate_limit_max_attempts must be at least 1, got %d", d.RateLimitMaxAttempts)
	}
	if d.GeneralMaxAttempts < 1 {
		return fmt.Errorf("general_max_attempts must be at least 1, got %d", d.GeneralMaxAttempts)
	}
	if d.CallTimeoutSec < 1 {
		return fmt.Errorf("call_timeout_sec must be at least 1, got %d", d.CallTimeoutSec)
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q == nil {
		return fmt.Errorf("queue configuration is nil")
	}

	if q.WorkerCount < 1 || q.WorkerCount > 50 {
		return fmt.Errorf("worker_count must be between 1 and 50, got %d", q.WorkerCount)
	}
	if q.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be at least 1, got %d", q.MaxConcurrentSessions)
	}
	if q.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", q.PollInterval)
	}
	if q.PollIntervalJitter < 0 {
		return fmt.Errorf("poll_interval_jitter must be non-negative, got %v", q.PollIntervalJitter)
	}
	if q.PollIntervalJitter >= q.PollInterval {
		return fmt.Errorf("poll_interval_jitter must be less than poll_interval, got jitter=%v interval=%v", q.PollIntervalJitter, q.PollInterval)
	}
	if q.SessionTimeout <= 0 {
		return fmt.Errorf("session_timeout must be positive, got %v", q.SessionTimeout)
	}
	if q.GracefulShutdownTimeout <= 0 {
		return fmt.Errorf("graceful_shutdown_timeout must be positive, got %v", q.GracefulShutdownTimeout)
	}
	if q.OrphanDetectionInterval <= 0 {
		return fmt.Errorf("orphan_detection_interval must be positive, got %v", q.OrphanDetectionInterval)
	}
	if q.OrphanThreshold <= 0 {
		return fmt.Errorf("orphan_threshold must be positive, got %v", q.OrphanThreshold)
	}

	return nil
}

func (v *Validator) validateCompression() error {
	c := v.cfg.Compression
	if c.HistoryThresholdTokens < 0 {
		return fmt.Errorf("history_threshold_tokens must be non-negative, got %d", c.HistoryThresholdTokens)
	}
	if c.TargetFraction <= 0 || c.TargetFraction > 1 {
		return fmt.Errorf("target_fraction must be in (0, 1], got %f", c.TargetFraction)
	}
	if c.KeepLastMessages < 0 {
		return fmt.Errorf("keep_last_messages must be non-negative, got %d", c.KeepLastMessages)
	}
	return nil
}

func (v *Validator) validateRouter() error {
	r := v.cfg.Router
	if !r.Enabled {
		return nil
	}
	if r.SimpleModel == "" && r.MediumModel == "" && r.ComplexModel == "" && r.FixedModel == "" {
		return fmt.Errorf("router is enabled but no model tiers are configured")
	}
	return nil
}
