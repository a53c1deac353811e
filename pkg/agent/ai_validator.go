package agent

import (
	"context"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/validator"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// levelAIValidator is an ad-hoc ValidationLevel for the AI Validator step
// (spec.md §4.7 step 7's "then AI Validator if enabled"). It never
// participates in validator.Pipeline's six-level run or AllValidationLevels
// ordering; it is appended to a ValidationResult only as a second,
// LLM-sourced opinion after the deterministic levels already passed.
const levelAIValidator config.ValidationLevel = "ai_validator"

const aiValidatorSystemPrompt = `Review this diff for correctness and safety. Reply with either "OK" on its
own, or one issue per line starting with "ISSUE:" describing a concrete
problem. Do not restate what the deterministic validator already checked —
focus on logic, intent, and whether the change matches the request.`

// runAIValidator runs spec.md §4.7 step 7's optional second pass: routed to
// cfg.AIValidator.SmallModel or LargeModel based on the diff's estimated
// size against cfg.AIValidator.TokenThreshold, mirroring the Router's
// size-based model selection (spec.md §6).
func runAIValidator(ctx context.Context, dispatcher *llm.Dispatcher, cfg config.AIValidatorConfig, v *vfs.VFS) (*validator.ValidationResult, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var diff strings.Builder
	for _, path := range v.StagedFiles() {
		content, _ := v.Read(path)
		diff.WriteString("--- " + path + " ---\n")
		diff.WriteString(content)
		diff.WriteString("\n\n")
	}

	modelID := cfg.SmallModel
	if diff.Len()/4 > cfg.TokenThreshold {
		modelID = cfg.LargeModel
	}

	resp, err := dispatcher.Call(ctx, modelID, []llm.Message{
		{Role: llm.RoleSystem, Content: aiValidatorSystemPrompt},
		{Role: llm.RoleUser, Content: diff.String()},
	}, llm.CallOptions{})
	if err != nil {
		return nil, err
	}

	result := &validator.ValidationResult{LevelsPassed: []config.ValidationLevel{levelAIValidator}}
	for _, line := range strings.Split(resp.Message.Content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "ISSUE:") {
			continue
		}
		result.Issues = append(result.Issues, validator.Issue{
			Level:    levelAIValidator,
			Severity: validator.SeverityWarning,
			Message:  strings.TrimSpace(strings.TrimPrefix(line, "ISSUE:")),
		})
	}
	return result, nil
}
