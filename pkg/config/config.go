package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through every component: the model registry, the tool server
// registry, and every budget/knob named in SPEC_FULL.md §6.
type Config struct {
	configDir string

	Models      *ModelRegistry
	ToolServers *ToolServerRegistry

	Budgets          Budgets
	PreFilter        PreFilterBudget
	Dispatch         DispatchDefaults
	AIValidator      AIValidatorConfig
	Router           RouterConfig
	Backup           BackupConfig
	Compression      CompressionConfig
	Masking          *MaskingConfig
	OutputCap        OutputCapConfig
	Integration      IntegrationStrictness
	DisabledLevels   map[ValidationLevel]bool
	Queue            *QueueConfig
	Retention        *RetentionConfig
	DashboardURL     string
	AllowedWSOrigins []string
}

// Initialize is defined in loader.go.

// ConfigStats summarizes loaded configuration for startup logging.
type ConfigStats struct {
	Models      int
	ToolServers int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		Models:      c.Models.Len(),
		ToolServers: c.ToolServers.Len(),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetModel retrieves a model configuration by id. Convenience wrapper around
// Models.Get().
func (c *Config) GetModel(modelID string) (*ModelConfig, error) {
	return c.Models.Get(modelID)
}

// GetToolServer retrieves a tool server configuration by id. Convenience
// wrapper around ToolServers.Get().
func (c *Config) GetToolServer(serverID string) (*ToolServerConfig, error) {
	return c.ToolServers.Get(serverID)
}

// LevelEnabled reports whether a validation level should run. Syntax can
// never be disabled — it is the blocking gate every other level depends on.
func (c *Config) LevelEnabled(lvl ValidationLevel) bool {
	if lvl == LevelSyntax {
		return true
	}
	return !c.DisabledLevels[lvl]
}
