// Package stage implements the structural staging engine: it applies a
// codeblock.CodeBlock to a file's current source text and reports a
// StagingError when the block's target can't be located or the result
// doesn't parse.
package stage

// StagingErrorType classifies why a CodeBlock could not be staged. Each
// variant carries AI-facing guidance so the orchestrator can self-correct
// without a human in the loop.
type StagingErrorType string

const (
	ClassNotFound          StagingErrorType = "class_not_found"
	MethodNotFound         StagingErrorType = "method_not_found"
	FunctionNotFound       StagingErrorType = "function_not_found"
	InsertPatternNotFound  StagingErrorType = "insert_pattern_not_found"
	MissingTargetClass     StagingErrorType = "missing_target_class"
	MissingTargetMethod    StagingErrorType = "missing_target_method"
	MissingTargetFunction  StagingErrorType = "missing_target_function"
	InvalidMode            StagingErrorType = "invalid_mode"
	ParserUnavailable      StagingErrorType = "parser_unavailable"
	SyntaxValidationFailed StagingErrorType = "syntax_validation_failed"
	InvalidCodeFormat      StagingErrorType = "invalid_code_format"
	UnknownStagingError    StagingErrorType = "unknown"
)

// StagingError is returned by the staging engine when a CodeBlock cannot be
// applied. It is consumed by the Feedback Loop Controller as a
// StagingErrorFeedback, not counted against the orchestrator revision budget
// (spec.md P5).
type StagingError struct {
	Type StagingErrorType

	// Targets echoes back the block's target fields so the orchestrator's
	// retry prompt can quote exactly what it sent.
	Targets map[string]string

	FilePath string
}

// Error implements the error interface.
func (e *StagingError) Error() string {
	g := GuidanceFor(e.Type)
	return e.Type.String() + " in " + e.FilePath + ": " + g.Description
}

// String returns the wire-format name of the error type.
func (t StagingErrorType) String() string { return string(t) }

// Guidance is the AI-facing description, likely cause, and fix algorithm for
// a staging error, plus a short hint at an alternative mode.
type Guidance struct {
	Description string
	Cause       string
	Solution    string
	ModeHint    string
}
