package agent

import (
	"errors"
	"fmt"

	"github.com/codeagent-run/codeagent/pkg/codeblock"
	"github.com/codeagent-run/codeagent/pkg/feedback"
	"github.com/codeagent-run/codeagent/pkg/stage"
	"github.com/codeagent-run/codeagent/pkg/vfs"
)

// stageBlocks runs spec.md §4.7 step 6: attempt to stage every CodeBlock in
// order. The first StagingError aborts the batch — staging errors are free
// (spec.md §4.6 P5: no revision-budget cost), so the caller folds it
// straight back into the feedback loop via
// feedback.Controller.NextAfterStaging without calling BeginRevision.
func stageBlocks(v *vfs.VFS, engine *stage.Engine, blocks []*codeblock.CodeBlock) (*feedback.StagingErrorFeedback, error) {
	for _, block := range blocks {
		current, _ := v.Read(block.FilePath)
		newContent, err := engine.Apply(block, current)
		if err != nil {
			var stagingErr *stage.StagingError
			if errors.As(err, &stagingErr) {
				return &feedback.StagingErrorFeedback{Err: stagingErr}, nil
			}
			return nil, fmt.Errorf("unexpected staging failure on %s: %w", block.FilePath, err)
		}
		v.Stage(block.FilePath, newContent)
	}
	return nil, nil
}
