package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// CodeAgentYAMLConfig represents the complete codeagent.yaml file structure.
type CodeAgentYAMLConfig struct {
	System      *SystemYAMLConfig           `yaml:"system"`
	ToolServers map[string]ToolServerConfig `yaml:"tool_servers"`
	Budgets     *Budgets                    `yaml:"budgets"`
	PreFilter   *PreFilterBudget            `yaml:"pre_filter"`
	Dispatch    *DispatchDefaults           `yaml:"dispatch"`
	AIValidator *AIValidatorConfig          `yaml:"ai_validator"`
	Router      *RouterConfig               `yaml:"router"`
	Backup      *BackupConfig               `yaml:"backup"`
	Compression *CompressionConfig          `yaml:"compression"`
	Queue       *QueueConfig                `yaml:"queue"`
}

// SystemYAMLConfig groups system-wide infrastructure settings.
type SystemYAMLConfig struct {
	DashboardURL          string                  `yaml:"dashboard_url"`
	AllowedWSOrigins      []string                `yaml:"allowed_ws_origins"`
	Masking               *MaskingConfig          `yaml:"masking"`
	OutputCap             *OutputCapConfig        `yaml:"output_cap"`
	IntegrationStrictness IntegrationStrictness   `yaml:"integration_strictness"`
	DisabledValidators    []ValidationLevel       `yaml:"disabled_validators"`
	Retention             *RetentionConfig        `yaml:"retention"`
}

// ModelsYAMLConfig represents the complete models.yaml file structure.
type ModelsYAMLConfig struct {
	Models map[string]ModelConfig `yaml:"models"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load YAML files from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined configuration
//  5. Build in-memory registries
//  6. Apply default values
//  7. Validate all configuration
//  8. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"models", stats.Models,
		"tool_servers", stats.ToolServers)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	agentConfig, err := loader.loadCodeAgentYAML()
	if err != nil {
		return nil, NewLoadError("codeagent.yaml", err)
	}

	models, err := loader.loadModelsYAML()
	if err != nil {
		return nil, NewLoadError("models.yaml", err)
	}

	builtin := GetBuiltinConfig()

	mergedModels := mergeModels(builtin.Models, models)
	mergedToolServers := mergeToolServers(builtin.ToolServers, agentConfig.ToolServers)

	modelRegistry := NewModelRegistry(mergedModels)
	toolServerRegistry := NewToolServerRegistry(mergedToolServers)

	budgets := DefaultBudgets()
	if agentConfig.Budgets != nil {
		if err := mergo.Merge(&budgets, *agentConfig.Budgets, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge budgets: %w", err)
		}
	}

	preFilter := DefaultPreFilterBudget()
	if agentConfig.PreFilter != nil {
		if err := mergo.Merge(&preFilter, *agentConfig.PreFilter, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge pre_filter budget: %w", err)
		}
	}

	dispatch := DefaultDispatchDefaults()
	if agentConfig.Dispatch != nil {
		if err := mergo.Merge(&dispatch, *agentConfig.Dispatch, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge dispatch defaults: %w", err)
		}
	}

	var aiValidator AIValidatorConfig
	if agentConfig.AIValidator != nil {
		aiValidator = *agentConfig.AIValidator
	}

	var router RouterConfig
	if agentConfig.Router != nil {
		router = *agentConfig.Router
	}

	var backup BackupConfig
	if agentConfig.Backup != nil {
		backup = *agentConfig.Backup
	}

	compression := DefaultCompressionConfig()
	if agentConfig.Compression != nil {
		if err := mergo.Merge(&compression, *agentConfig.Compression, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge compression config: %w", err)
		}
	}

	queueConfig := DefaultQueueConfig()
	if agentConfig.Queue != nil {
		if err := mergo.Merge(queueConfig, agentConfig.Queue, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge queue config: %w", err)
		}
	}

	masking := resolveMaskingConfig(agentConfig.System)
	outputCap := resolveOutputCapConfig(agentConfig.System)
	integration := resolveIntegrationStrictness(agentConfig.System)
	disabledLevels := resolveDisabledLevels(agentConfig.System)
	retentionCfg := resolveRetentionConfig(agentConfig.System)
	dashboardURL := resolveDashboardURL(agentConfig.System)
	allowedWSOrigins := resolveAllowedWSOrigins(agentConfig.System)

	return &Config{
		configDir:        configDir,
		Models:           modelRegistry,
		ToolServers:      toolServerRegistry,
		Budgets:          budgets,
		PreFilter:        preFilter,
		Dispatch:         dispatch,
		AIValidator:      aiValidator,
		Router:           router,
		Backup:           backup,
		Compression:      compression,
		Masking:          masking,
		OutputCap:        outputCap,
		Integration:      integration,
		DisabledLevels:   disabledLevels,
		Queue:            queueConfig,
		Retention:        retentionCfg,
		DashboardURL:     dashboardURL,
		AllowedWSOrigins: allowedWSOrigins,
	}, nil
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadCodeAgentYAML() (*CodeAgentYAMLConfig, error) {
	var cfg CodeAgentYAMLConfig
	cfg.ToolServers = make(map[string]ToolServerConfig)

	if err := l.loadYAML("codeagent.yaml", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *configLoader) loadModelsYAML() (map[string]ModelConfig, error) {
	var cfg ModelsYAMLConfig
	cfg.Models = make(map[string]ModelConfig)

	if err := l.loadYAML("models.yaml", &cfg); err != nil {
		return nil, err
	}

	return cfg.Models, nil
}

func resolveMaskingConfig(sys *SystemYAMLConfig) *MaskingConfig {
	if sys != nil && sys.Masking != nil {
		return sys.Masking
	}
	return &MaskingConfig{Enabled: true, PatternGroups: []string{"security"}}
}

func resolveOutputCapConfig(sys *SystemYAMLConfig) OutputCapConfig {
	if sys != nil && sys.OutputCap != nil && sys.OutputCap.MaxBytes > 0 {
		return *sys.OutputCap
	}
	return OutputCapConfig{MaxBytes: 16_384}
}

// resolveIntegrationStrictness resolves Open Question 1 from spec.md §9.
// Defaults to name_and_arity: a call site with the wrong argument count is
// caught before a runtime check would otherwise find it.
func resolveIntegrationStrictness(sys *SystemYAMLConfig) IntegrationStrictness {
	if sys != nil && sys.IntegrationStrictness.IsValid() {
		return sys.IntegrationStrictness
	}
	return IntegrationNameAndArity
}

func resolveDisabledLevels(sys *SystemYAMLConfig) map[ValidationLevel]bool {
	disabled := make(map[ValidationLevel]bool)
	if sys == nil {
		return disabled
	}
	for _, lvl := range sys.DisabledValidators {
		if lvl != LevelSyntax {
			disabled[lvl] = true
		}
	}
	return disabled
}

func resolveDashboardURL(sys *SystemYAMLConfig) string {
	if sys != nil && sys.DashboardURL != "" {
		return sys.DashboardURL
	}
	return "http://localhost:5173"
}

func resolveAllowedWSOrigins(sys *SystemYAMLConfig) []string {
	if sys != nil {
		return sys.AllowedWSOrigins
	}
	return nil
}

func resolveRetentionConfig(sys *SystemYAMLConfig) *RetentionConfig {
	cfg := DefaultRetentionConfig()
	if sys == nil || sys.Retention == nil {
		return cfg
	}

	r := sys.Retention
	if r.SessionRetentionDays > 0 {
		cfg.SessionRetentionDays = r.SessionRetentionDays
	}
	if r.EventTTL > 0 {
		cfg.EventTTL = r.EventTTL
	}
	if r.CleanupInterval > 0 {
		cfg.CleanupInterval = r.CleanupInterval
	}

	return cfg
}
