package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/codeagent-run/codeagent/pkg/codeblock"
	"github.com/codeagent-run/codeagent/pkg/config"
	"github.com/codeagent-run/codeagent/pkg/llm"
)

const generatorSystemPrompt = `You are the code generator. Turn the instruction below into one or more
CodeBlocks using this exact wire format, repeated as needed:

FILE: <path>
MODE: <one of REPLACE_FILE|REPLACE_CLASS|REPLACE_METHOD|REPLACE_FUNCTION|ADD_METHOD|ADD_FUNCTION|ADD_CLASS|INSERT_IMPORT|APPEND_FILE>
TARGET_CLASS: <class name, when the mode needs it>
TARGET_METHOD: <method name, when the mode needs it>
TARGET_FUNCTION: <function name, when the mode needs it>
INSERT_AFTER: <anchor text, when the mode needs it>
INSERT_BEFORE: <anchor text, when the mode needs it>
` + "```" + `
<code>
` + "```" + `

Emit only what the target mode requires. No prose outside the blocks.`

// generate runs spec.md §4.7 step 5: turn a PipelineInstruction into a list
// of CodeBlocks. The dispatcher already retries network-class failures
// internally (pkg/llm.Dispatcher's backoff), but step 5 additionally
// budgets a small outer retry specific to the generator call — a fixed
// delay instead of the dispatcher's exponential backoff, because a
// generator failure this far into the pipeline should not reuse the
// dispatch layer's more aggressive retry curve for what is already a
// narrowed, cheap follow-up call.
func generate(ctx context.Context, dispatcher *llm.Dispatcher, modelID string, budgets config.Budgets, instr *PipelineInstruction) ([]*codeblock.CodeBlock, error) {
	var lastErr error
	for attempt := 0; attempt <= budgets.MaxGeneratorRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(budgets.GeneratorRetryDelaySec) * time.Second):
			}
		}

		resp, err := dispatcher.Call(ctx, modelID, []llm.Message{
			{Role: llm.RoleSystem, Content: generatorSystemPrompt},
			{Role: llm.RoleUser, Content: instr.Instruction},
		}, llm.CallOptions{})
		if err != nil {
			lastErr = err
			if llm.ClassifyError(err, "") == llm.ErrorFatal {
				return nil, fmt.Errorf("code generator call failed: %w", err)
			}
			continue
		}

		blocks, parseErr := codeblock.ParseAll(resp.Message.Content)
		if parseErr != nil {
			return nil, fmt.Errorf("code generator produced unparsable output: %w", parseErr)
		}
		for _, b := range blocks {
			if valErr := b.Validate(); valErr != nil {
				return nil, fmt.Errorf("code generator produced an invalid block for %s: %w", b.FilePath, valErr)
			}
		}
		return blocks, nil
	}
	return nil, fmt.Errorf("code generator exhausted %d retries: %w", budgets.MaxGeneratorRetries, lastErr)
}
