package stage

// guidanceTable is ported from the original staging error guidance map:
// one entry per StagingErrorType giving the orchestrator enough to retry
// without a human in the loop.
var guidanceTable = map[StagingErrorType]Guidance{
	ClassNotFound: {
		Description: "The class specified in TARGET_CLASS does not exist in the file.",
		Cause:       "Typo in class name, wrong file, or class was renamed/removed.",
		Solution:    "1. Use read_file to verify the exact class name. 2. Check for typos (case-sensitive). 3. If the class doesn't exist, use ADD_CLASS instead of REPLACE_CLASS. 4. If the class is in a different file, update FILE.",
		ModeHint:    "Consider ADD_CLASS if creating a new class",
	},
	MethodNotFound: {
		Description: "The method specified in TARGET_METHOD does not exist in the target class.",
		Cause:       "Typo in method name, method is in a different class, or it doesn't exist yet.",
		Solution:    "1. Verify method name spelling (case-sensitive). 2. Check the method is in the correct class. 3. If it doesn't exist, use ADD_METHOD instead of REPLACE_METHOD. 4. If it's a standalone function, use REPLACE_FUNCTION with TARGET_FUNCTION.",
		ModeHint:    "Use ADD_METHOD to add a new method, or REPLACE_FUNCTION if it isn't in a class",
	},
	FunctionNotFound: {
		Description: "The function specified in TARGET_FUNCTION does not exist at module level.",
		Cause:       "Typo in function name, the function is actually a method inside a class, or it doesn't exist.",
		Solution:    "1. Verify function name spelling. 2. Check whether it's actually a method inside a class. 3. If so, use REPLACE_METHOD with TARGET_CLASS and TARGET_METHOD. 4. If it doesn't exist, use ADD_FUNCTION.",
		ModeHint:    "Use REPLACE_METHOD if the target is inside a class",
	},
	InsertPatternNotFound: {
		Description: "The pattern specified in INSERT_AFTER or INSERT_BEFORE was not found in the target.",
		Cause:       "Pattern text doesn't match exactly, or the target code structure changed.",
		Solution:    "1. Read the current file content. 2. Find the exact text to insert after/before. 3. Use a unique substring that exists in the file. 4. Consider APPEND_FILE instead.",
		ModeHint:    "Use APPEND_FILE to add at the end, or specify an exact matching line",
	},
	MissingTargetClass: {
		Description: "MODE requires TARGET_CLASS but it was not provided.",
		Cause:       "REPLACE_METHOD or REPLACE_CLASS issued without TARGET_CLASS.",
		Solution:    "1. Add TARGET_CLASS with the class name. 2. If modifying a standalone function, use REPLACE_FUNCTION instead. 3. Verify the class exists in the file.",
		ModeHint:    "Add TARGET_CLASS or switch to REPLACE_FUNCTION",
	},
	MissingTargetMethod: {
		Description: "MODE requires TARGET_METHOD but it was not provided.",
		Cause:       "REPLACE_METHOD issued without TARGET_METHOD.",
		Solution:    "1. Add TARGET_METHOD with the method name. 2. Verify the method exists in the target class.",
		ModeHint:    "Add TARGET_METHOD",
	},
	MissingTargetFunction: {
		Description: "MODE requires TARGET_FUNCTION but it was not provided.",
		Cause:       "REPLACE_FUNCTION issued without TARGET_FUNCTION.",
		Solution:    "1. Add TARGET_FUNCTION with the function name. 2. Verify the function exists at module level.",
		ModeHint:    "Add TARGET_FUNCTION",
	},
	InvalidMode: {
		Description: "The specified MODE is not recognized.",
		Cause:       "Typo in mode name or an unsupported mode.",
		Solution:    "1. Use one of: REPLACE_FILE, REPLACE_CLASS, REPLACE_METHOD, REPLACE_FUNCTION, ADD_METHOD, ADD_FUNCTION, ADD_CLASS, INSERT_IMPORT, APPEND_FILE. 2. Check spelling and case.",
		ModeHint:    "Valid modes: REPLACE_FILE, REPLACE_METHOD, ADD_METHOD, etc.",
	},
	ParserUnavailable: {
		Description: "The code parser could not analyze the file's structure.",
		Cause:       "The language parser failed to initialize for this file type.",
		Solution:    "1. Use REPLACE_FILE to replace the entire file content instead. 2. This is a system condition, not an instruction error.",
		ModeHint:    "Use REPLACE_FILE as a fallback",
	},
	SyntaxValidationFailed: {
		Description: "The applied change breaks the file's syntax, making classes/functions unparseable.",
		Cause:       "Wrong indentation level, an incomplete block (unbalanced brackets/quotes), an earlier block in the same file already broke syntax, or code inserted at the wrong position.",
		Solution:    "1. Check indentation matches the destination scope. 2. Verify all brackets/quotes are balanced and complete. 3. If multiple blocks target the same file, fix the earliest broken one first. 4. Use read_file to see the exact current structure. 5. If a complex insertion keeps failing, try REPLACE_METHOD or REPLACE_CLASS instead.",
		ModeHint:    "Check indentation, ensure the block is complete, consider REPLACE_METHOD instead of an insert mode",
	},
	InvalidCodeFormat: {
		Description: "The code block for ADD_FUNCTION/ADD_METHOD does not start with a function/method definition.",
		Cause:       "The source text doesn't start with a def-like declaration or has a syntax error.",
		Solution:    "1. Ensure the block starts with a complete function/method definition. 2. Check for syntax errors. 3. Provide the full definition, not a fragment.",
		ModeHint:    "ADD_FUNCTION/ADD_METHOD requires a complete definition",
	},
	UnknownStagingError: {
		Description: "An unexpected staging error occurred.",
		Cause:       "Unknown cause.",
		Solution:    "1. Read the error message carefully. 2. Verify the file path exists. 3. Check the code syntax is valid. 4. Try a simpler modification mode.",
		ModeHint:    "Try REPLACE_FILE as a fallback",
	},
}

// GuidanceFor returns the AI-facing guidance for a staging error type,
// falling back to UnknownStagingError's guidance for anything not in the table.
func GuidanceFor(t StagingErrorType) Guidance {
	if g, ok := guidanceTable[t]; ok {
		return g
	}
	return guidanceTable[UnknownStagingError]
}
