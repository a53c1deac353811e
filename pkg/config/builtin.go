package config

import (
	"sync"
)

// BuiltinConfig holds all built-in configuration data: default models, tool
// servers, and masking patterns shipped with the binary.
type BuiltinConfig struct {
	Models          map[string]ModelConfig
	ToolServers     map[string]ToolServerConfig
	MaskingPatterns map[string]MaskingPattern
	PatternGroups   map[string][]string
	CodeMaskers     []string
}

var (
	builtinConfig     *BuiltinConfig
	builtinConfigOnce sync.Once
)

// GetBuiltinConfig returns the singleton built-in configuration (thread-safe, lazy-initialized).
func GetBuiltinConfig() *BuiltinConfig {
	builtinConfigOnce.Do(initBuiltinConfig)
	return builtinConfig
}

func initBuiltinConfig() {
	builtinConfig = &BuiltinConfig{
		Models:          initBuiltinModels(),
		ToolServers:     initBuiltinToolServers(),
		MaskingPatterns: initBuiltinMaskingPatterns(),
		PatternGroups:   initBuiltinPatternGroups(),
		CodeMaskers:     initBuiltinCodeMaskers(),
	}
}

func initBuiltinModels() map[string]ModelConfig {
	return map[string]ModelConfig{
		"deepseek-chat": {
			Type:      ProviderDeepSeek,
			Model:     "deepseek-chat",
			BaseURL:   "https://api.deepseek.com/v1",
			APIKeyEnv: "DEEPSEEK_API_KEY",
		},
		"deepseek-reasoner": {
			Type:            ProviderDeepSeek,
			Model:           "deepseek-reasoner",
			BaseURL:         "https://api.deepseek.com/v1",
			APIKeyEnv:       "DEEPSEEK_API_KEY",
			ReasoningEffort: "high",
		},
	}
}

// initBuiltinToolServers returns the MCP servers the tool catalog ships with
// out of the box. Empty by default — deployments add their own via
// codeagent.yaml's tool_servers map.
func initBuiltinToolServers() map[string]ToolServerConfig {
	return map[string]ToolServerConfig{}
}

// initBuiltinMaskingPatterns returns regex-based secret patterns scrubbed
// from tool arguments/results and staged file contents before anything
// reaches a prompt or a log line.
func initBuiltinMaskingPatterns() map[string]MaskingPattern {
	return map[string]MaskingPattern{
		"api_key": {
			Pattern:     `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`,
			Replacement: `"api_key": "[MASKED_API_KEY]"`,
			Description: "API keys",
		},
		"password": {
			Pattern:     `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`,
			Replacement: `"password": "[MASKED_PASSWORD]"`,
			Description: "Passwords",
		},
		"certificate": {
			Pattern:     `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`,
			Replacement: `[MASKED_CERTIFICATE]`,
			Description: "SSL/TLS certificates",
		},
		"token": {
			Pattern:     `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"token": "[MASKED_TOKEN]"`,
			Description: "Access tokens",
		},
		"email": {
			Pattern:     `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`,
			Replacement: `[MASKED_EMAIL]`,
			Description: "Email addresses",
		},
		"ssh_key": {
			Pattern:     `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`,
			Replacement: `[MASKED_SSH_KEY]`,
			Description: "SSH public keys",
		},
		"private_key": {
			Pattern:     `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"private_key": "[MASKED_PRIVATE_KEY]"`,
			Description: "Private keys",
		},
		"secret_key": {
			Pattern:     `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`,
			Replacement: `"secret_key": "[MASKED_SECRET_KEY]"`,
			Description: "Secret keys",
		},
		"aws_access_key": {
			Pattern:     `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`,
			Replacement: `"aws_access_key_id": "[MASKED_AWS_KEY]"`,
			Description: "AWS access keys",
		},
		"aws_secret_key": {
			Pattern:     `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`,
			Replacement: `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`,
			Description: "AWS secret keys",
		},
		"github_token": {
			Pattern:     `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`,
			Replacement: `[MASKED_GITHUB_TOKEN]`,
			Description: "GitHub tokens",
		},
	}
}

// initBuiltinPatternGroups returns predefined groups of masking patterns.
// Pattern group members can reference either MaskingPatterns (regex-based)
// or CodeMaskers (structural, for formats a regex can't safely parse).
func initBuiltinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":   {"api_key", "password"},
		"secrets": {"api_key", "password", "token", "private_key", "secret_key"},
		"security": {
			"api_key", "password", "token", "certificate", "email", "ssh_key",
		},
		"cloud": {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"all": {
			"api_key", "password", "certificate", "email", "token", "ssh_key",
			"private_key", "secret_key", "aws_access_key", "aws_secret_key", "github_token",
			"env_file_secret",
		},
	}
}

// initBuiltinCodeMaskers returns names of code-based maskers for masking
// scenarios a regex cannot safely express. Each name must match a Masker
// registered in pkg/redact (see each masker's Name() method).
func initBuiltinCodeMaskers() []string {
	return []string{
		"env_file_secret", // pkg/redact/envfile.go
	}
}
