package config

// Budgets holds every retry/revision cap named in spec.md §4.6/§6. Zero
// values are never valid config — Validate() rejects them — so callers can
// rely on these being positive once a Config has loaded successfully.
type Budgets struct {
	// MaxValidatorRetries bounds syntax/validator-driven revisions.
	MaxValidatorRetries int `yaml:"max_validator_retries" validate:"required,min=1"`

	// MaxOrchestratorRevisions bounds orchestrator instruction revisions.
	// Staging errors do NOT consume this budget (spec.md P5).
	MaxOrchestratorRevisions int `yaml:"max_orchestrator_revisions" validate:"required,min=1"`

	// MaxTestRunsPerSession bounds run_project_tests tool invocations.
	MaxTestRunsPerSession int `yaml:"max_test_runs_per_session" validate:"required,min=1"`

	// TestTimeoutSec caps a single test run; spec.md caps this at 60s.
	TestTimeoutSec int `yaml:"test_timeout_sec" validate:"required,min=1,max=60"`

	// TestOutputLimit caps captured stdout/stderr bytes from a test run.
	TestOutputLimit int `yaml:"test_output_limit" validate:"required,min=1"`

	// MaxOrchestratorToolIterations bounds the orchestrator's own tool-call loop.
	MaxOrchestratorToolIterations int `yaml:"max_orchestrator_tool_iterations" validate:"required,min=1"`

	// MaxGeneratorRetries bounds generator retries on network-class errors.
	MaxGeneratorRetries int `yaml:"max_generator_retries" validate:"required,min=1"`

	// GeneratorRetryDelaySec is the fixed delay between generator retries.
	GeneratorRetryDelaySec int `yaml:"generator_retry_delay_sec" validate:"required,min=1"`
}

// DefaultBudgets returns the numeric defaults called out in spec.md §4.6/§7.
func DefaultBudgets() Budgets {
	return Budgets{
		MaxValidatorRetries:           3,
		MaxOrchestratorRevisions:      3,
		MaxTestRunsPerSession:         5,
		TestTimeoutSec:                60,
		TestOutputLimit:               2000,
		MaxOrchestratorToolIterations: 15,
		MaxGeneratorRetries:           3,
		GeneratorRetryDelaySec:        5,
	}
}

// PreFilterBudget bounds the pre-filter agent's chunk selection (spec.md §4.7 step 3).
type PreFilterBudget struct {
	MaxChunks int `yaml:"pre_filter_max_chunks" validate:"required,min=1"`
	MaxTokens int `yaml:"pre_filter_max_tokens" validate:"required,min=1"`
}

// DefaultPreFilterBudget returns the defaults named in spec.md §4.7.
func DefaultPreFilterBudget() PreFilterBudget {
	return PreFilterBudget{MaxChunks: 5, MaxTokens: 75_000}
}

// DispatchDefaults controls the LLM Dispatch Layer's concurrency and retry
// knobs (spec.md §4.1/§5).
type DispatchDefaults struct {
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" validate:"required,min=1"`
	RateLimitMaxAttempts  int `yaml:"rate_limit_max_attempts" validate:"required,min=1"`
	GeneralMaxAttempts    int `yaml:"general_max_attempts" validate:"required,min=1"`
	CallTimeoutSec        int `yaml:"call_timeout_sec" validate:"required,min=1"`
}

// DefaultDispatchDefaults returns the defaults named in spec.md §4.1/§5.
func DefaultDispatchDefaults() DispatchDefaults {
	return DispatchDefaults{
		MaxConcurrentRequests: 5,
		RateLimitMaxAttempts:  5,
		GeneralMaxAttempts:    8,
		CallTimeoutSec:        120,
	}
}

// AIValidatorConfig routes the AI Validator to a cheap or expensive model
// based on the size of the diff under review (spec.md §6).
type AIValidatorConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TokenThreshold int    `yaml:"ai_validator_token_threshold" validate:"omitempty,min=0"`
	SmallModel    string `yaml:"ai_validator_model_small,omitempty"`
	LargeModel    string `yaml:"ai_validator_model_large,omitempty"`
}

// RouterConfig controls step 2 of the Agent Pipeline (spec.md §4.7/§6).
type RouterConfig struct {
	Enabled            bool   `yaml:"router_enabled"`
	FixedModel         string `yaml:"orchestrator_fixed_model,omitempty"`
	SimpleModel        string `yaml:"orchestrator_simple_model,omitempty"`
	MediumModel        string `yaml:"orchestrator_medium_model,omitempty"`
	ComplexModel       string `yaml:"orchestrator_complex_model,omitempty"`
	RouterModel        string `yaml:"router_model,omitempty"`
}

// BackupConfig controls the Backup Manager (spec.md §6).
type BackupConfig struct {
	Enabled        bool   `yaml:"backup_enabled"`
	RetentionDays  int    `yaml:"backup_retention_days" validate:"omitempty,min=0"`
	Dir            string `yaml:"backup_dir,omitempty"`
}

// CompressionConfig controls the Context Compressor (spec.md §4.8/§6).
type CompressionConfig struct {
	HistoryThresholdTokens int     `yaml:"history_threshold_tokens" validate:"omitempty,min=0"`
	CompressorModel        string  `yaml:"compressor_model,omitempty"`
	TargetFraction         float64 `yaml:"target_fraction,omitempty" validate:"omitempty,gt=0,lte=1"`
	KeepLastMessages       int     `yaml:"keep_last_messages,omitempty" validate:"omitempty,min=0"`
}

// DefaultCompressionConfig returns the defaults named in spec.md §4.8.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{TargetFraction: 0.5, KeepLastMessages: 4}
}
