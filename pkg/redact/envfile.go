package redact

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaskedEnvValue is the replacement string for masked environment variable
// values.
const MaskedEnvValue = "[MASKED_ENV_SECRET]"

// sensitiveEnvKey matches environment variable names that conventionally
// carry secrets: *_KEY, *_SECRET, *_TOKEN, *_PASSWORD, *_CREDENTIAL, *_DSN,
// or a bare API_KEY/PASSWORD/SECRET/TOKEN.
var sensitiveEnvKey = regexp.MustCompile(`(?i)^(.*_)?(KEY|SECRET|TOKEN|PASSWORD|PASSWD|CREDENTIAL|DSN|CONNECTION_STRING)(_.*)?$`)

var envLinePattern = regexp.MustCompile(`(?m)^\s*[A-Za-z_][A-Za-z0-9_]*\s*=`)

// EnvFileSecretMasker masks values of sensitive keys in staged .env files,
// docker-compose-style "environment" blocks, and JSON/YAML config objects
// carrying an "env"/"environment" map — without touching unrelated keys.
type EnvFileSecretMasker struct{}

// Name returns the unique identifier for this masker.
func (m *EnvFileSecretMasker) Name() string { return "env_file_secret" }

// AppliesTo performs a lightweight check for env-file or environment-block
// shaped content.
func (m *EnvFileSecretMasker) AppliesTo(data string) bool {
	if envLinePattern.MatchString(data) {
		return true
	}
	return strings.Contains(data, "environment:") || strings.Contains(data, `"environment"`) || strings.Contains(data, `"env"`)
}

// Mask detects the shape of the content (plain KEY=VALUE lines, or a
// YAML/JSON document with an environment map) and masks sensitive values.
// Returns the original data on parse errors (defensive).
func (m *EnvFileSecretMasker) Mask(data string) string {
	trimmed := strings.TrimSpace(data)

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if masked := m.maskJSON(data); masked != data {
			return masked
		}
	}

	if masked := m.maskYAML(data); masked != data {
		return masked
	}

	return m.maskDotEnv(data)
}

// maskDotEnv masks KEY=VALUE lines directly, preserving comments, blank
// lines, and quoting style.
func (m *EnvFileSecretMasker) maskDotEnv(data string) string {
	lines := strings.Split(data, "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if !sensitiveEnvKey.MatchString(key) {
			continue
		}
		quote := ""
		value := strings.TrimSpace(line[idx+1:])
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			quote = string(value[0])
		}
		lines[i] = line[:idx+1] + quote + MaskedEnvValue + quote
		changed = true
	}
	if !changed {
		return data
	}
	return strings.Join(lines, "\n")
}

// maskYAML parses multi-document YAML looking for "environment"/"env" maps
// (docker-compose service blocks, Kubernetes-style config) and masks
// sensitive entries in both map and "KEY=VALUE" list-item form.
func (m *EnvFileSecretMasker) maskYAML(data string) string {
	decoder := yaml.NewDecoder(strings.NewReader(data))
	var documents []map[string]any
	anyMasked := false

	for {
		var doc map[string]any
		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return data
		}
		if doc == nil {
			continue
		}
		if maskEnvBlocksRecursive(doc) {
			anyMasked = true
		}
		documents = append(documents, doc)
	}

	if !anyMasked || len(documents) == 0 {
		return data
	}

	var sb strings.Builder
	encoder := yaml.NewEncoder(&sb)
	encoder.SetIndent(2)
	for _, doc := range documents {
		if err := encoder.Encode(doc); err != nil {
			return data
		}
	}
	if err := encoder.Close(); err != nil {
		return data
	}

	result := strings.TrimRight(sb.String(), "\n")
	if strings.HasSuffix(data, "\n") {
		result += "\n"
	}
	return result
}

// maskJSON parses a JSON object looking for "env"/"environment" maps.
func (m *EnvFileSecretMasker) maskJSON(data string) string {
	var obj map[string]any
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return data
	}

	if !maskEnvBlocksRecursive(obj) {
		return data
	}

	result, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return data
	}
	output := string(result)
	if strings.HasSuffix(data, "\n") {
		output += "\n"
	}
	return output
}

// maskEnvBlocksRecursive walks a decoded document for "env"/"environment"
// fields and masks them in place, descending into nested services/containers
// maps (docker-compose's "services: {name: {environment: ...}}" shape).
func maskEnvBlocksRecursive(node map[string]any) bool {
	anyMasked := false
	for key, val := range node {
		lower := strings.ToLower(key)
		if lower == "env" || lower == "environment" {
			if maskEnvValue(node, key, val) {
				anyMasked = true
			}
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			if maskEnvBlocksRecursive(nested) {
				anyMasked = true
			}
		}
	}
	return anyMasked
}

func maskEnvValue(parent map[string]any, key string, val any) bool {
	switch v := val.(type) {
	case map[string]any:
		masked := false
		for envKey := range v {
			if sensitiveEnvKey.MatchString(envKey) {
				v[envKey] = MaskedEnvValue
				masked = true
			}
		}
		return masked
	case []any:
		masked := false
		for i, item := range v {
			entry, ok := item.(string)
			if !ok {
				continue
			}
			idx := strings.Index(entry, "=")
			if idx < 0 {
				continue
			}
			if sensitiveEnvKey.MatchString(strings.TrimSpace(entry[:idx])) {
				v[i] = entry[:idx+1] + MaskedEnvValue
				masked = true
			}
		}
		if masked {
			parent[key] = v
		}
		return masked
	default:
		return false
	}
}
