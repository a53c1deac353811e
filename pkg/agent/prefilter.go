package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
	"github.com/codeagent-run/codeagent/pkg/tools"
)

// chunkRef is one pre-filter selection: a named symbol the LLM believes is
// relevant, resolved against the project index via read_code_chunk.
type chunkRef struct {
	FilePath  string `json:"file_path"`
	ChunkName string `json:"chunk_name"`
}

const preFilterSystemPromptTmpl = `You select the minimum set of code chunks relevant to a change request.
Given a compact project index and a user request, respond with a JSON array
of objects {"file_path": "...", "chunk_name": "..."}. Pick at most %d
entries. Respond with JSON only, no prose.`

// preFilterChunk is one resolved, read chunk handed to the orchestrator.
type preFilterChunk struct {
	chunkRef
	Content string
}

// preFilter runs spec.md §4.7 step 3: ask the Pre-filter LLM to select at
// most cfg.PreFilter.MaxChunks atomic chunks, then resolve each through
// read_code_chunk, stopping once the running size would exceed
// cfg.PreFilter.MaxTokens (estimated at four bytes per token, the same
// rough estimator pkg/context.Compressor uses for its window check).
func preFilter(ctx context.Context, dispatcher *llm.Dispatcher, modelID string, budget config.PreFilterBudget, indexOverview string, userRequest string, executor *tools.Executor, logger *slog.Logger) ([]preFilterChunk, error) {
	prompt := fmt.Sprintf(preFilterSystemPromptTmpl, budget.MaxChunks)
	resp, err := dispatcher.Call(ctx, modelID, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: "Project index:\n" + indexOverview + "\n\nRequest:\n" + userRequest},
	}, llm.CallOptions{})
	if err != nil {
		return nil, err
	}

	var refs []chunkRef
	if jsonErr := json.Unmarshal([]byte(extractJSONArray(resp.Message.Content)), &refs); jsonErr != nil {
		logger.Warn("pre-filter response was not valid JSON, proceeding with no chunks", "error", jsonErr)
		return nil, nil
	}
	if len(refs) > budget.MaxChunks {
		refs = refs[:budget.MaxChunks]
	}

	var chunks []preFilterChunk
	usedBytes := 0
	maxBytes := budget.MaxTokens * 4
	for _, ref := range refs {
		argMap := map[string]any{"file_path": ref.FilePath, "chunk_name": ref.ChunkName}
		content, execErr := executor.Execute(ctx, "read_code_chunk", argMap)
		if execErr != nil {
			logger.Warn("pre-filter chunk resolution failed", "file_path", ref.FilePath, "chunk_name", ref.ChunkName, "error", execErr)
			continue
		}
		if usedBytes+len(content) > maxBytes {
			logger.Info("pre-filter token budget reached, dropping remaining chunks", "resolved", len(chunks), "requested", len(refs))
			break
		}
		usedBytes += len(content)
		chunks = append(chunks, preFilterChunk{chunkRef: ref, Content: content})
	}
	return chunks, nil
}

// extractJSONArray trims any prose wrapping a model response down to the
// first top-level JSON array, tolerating a fenced ```json block.
func extractJSONArray(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return "[]"
	}
	return s[start : end+1]
}
