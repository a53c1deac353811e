package tools

// Schemas for the eleven built-in tools (spec.md §4.2). Parameters are a
// plain JSON-schema-shaped map, forwarded into pkg/llm.ToolDef by whatever
// caller assembles a CallWithTools request from Executor.Schemas().

func strParam(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func boolParam(description string) map[string]any {
	return map[string]any{"type": "boolean", "description": description}
}

func intParam(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func objectSchema(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var readFileSchema = Schema{
	Name:        "read_file",
	Description: "Read a project file, VFS-first. Returns content wrapped with path/type/token metadata.",
	Parameters: objectSchema([]string{"file_path"}, map[string]any{
		"file_path":            strParam("Path relative to the project root"),
		"include_line_numbers": boolParam("Prefix each line with its line number (default true)"),
	}),
}

var readCodeChunkSchema = Schema{
	Name:        "read_code_chunk",
	Description: "Read a single named class/function/method from a file, VFS-first.",
	Parameters: objectSchema([]string{"file_path", "chunk_name"}, map[string]any{
		"file_path":  strParam("Path relative to the project root"),
		"chunk_name": strParam("Name of the class, function, or method to extract"),
	}),
}

var searchCodeSchema = Schema{
	Name:        "search_code",
	Description: "Search the project's semantic index for classes, functions, or methods by name.",
	Parameters: objectSchema([]string{"query"}, map[string]any{
		"query":       strParam("Name (or partial name) to search for"),
		"search_type": strParam("One of: all, class, function, method (default all)"),
	}),
}

var grepSearchSchema = Schema{
	Name:        "grep_search",
	Description: "Full-text search across VFS-staged and on-disk project files.",
	Parameters: objectSchema([]string{"pattern"}, map[string]any{
		"pattern":              strParam("Text or regex pattern to search for"),
		"use_regex":            boolParam("Treat pattern as a regular expression (default false)"),
		"case_sensitive":       boolParam("Case-sensitive search (default false)"),
		"file_pattern":         strParam("Glob to restrict which files are searched"),
		"path":                 strParam("Subdirectory to search in"),
		"max_files":            intParam("Max files to scan (default 100)"),
		"max_matches_per_file": intParam("Max matches per file (default 20)"),
		"max_total_matches":    intParam("Max matches overall (default 50)"),
		"context_lines":        intParam("Context lines around each match (default 2)"),
	}),
}

var showFileRelationsSchema = Schema{
	Name:        "show_file_relations",
	Description: "Show a file's imports, importers, test files, and sibling files in its directory.",
	Parameters: objectSchema([]string{"file_path"}, map[string]any{
		"file_path":        strParam("Path relative to the project root"),
		"include_tests":    boolParam("Include discovered test files (default true)"),
		"include_siblings": boolParam("Include files in the same directory (default true)"),
		"max_relations":    intParam("Max entries per relation category (default 20)"),
	}),
}

var runProjectTestsSchema = Schema{
	Name:        "run_project_tests",
	Description: "Run tests against the session's staged view of the project. Limited to 5 calls per session.",
	Parameters: objectSchema([]string{"test_path"}, map[string]any{
		"test_path":   strParam("Path to the test file or module to run"),
		"chunk_name":  strParam("Restrict execution to a single test class/function"),
		"timeout_sec": intParam("Timeout in seconds, capped at 60 (default 30)"),
	}),
}

var listInstalledPackagesSchema = Schema{
	Name:        "list_installed_packages",
	Description: "List packages installed in the project's interpreter/runtime.",
	Parameters:  objectSchema(nil, map[string]any{}),
}

var installDependencySchema = Schema{
	Name:        "install_dependency",
	Description: "Install a missing dependency by its import name into the project's interpreter/runtime.",
	Parameters: objectSchema([]string{"import_name"}, map[string]any{
		"import_name": strParam("The name used to import the package in code"),
		"version":     strParam("Optional version constraint"),
	}),
}

var searchPypiSchema = Schema{
	Name:        "search_pypi",
	Description: "Search the package registry to find the correct package name for an import.",
	Parameters: objectSchema([]string{"query"}, map[string]any{
		"query": strParam("Import name or approximate package name"),
	}),
}

var webSearchSchema = Schema{
	Name:        "web_search",
	Description: "Search the internet for documentation, error messages, or API usage examples.",
	Parameters: objectSchema([]string{"query"}, map[string]any{
		"query":       strParam("Search query"),
		"max_results": intParam("Maximum pages to return (default 10)"),
		"region":      strParam("Search region code (default wt-wt)"),
	}),
}

var getAdviceSchema = Schema{
	Name:        "get_advice",
	Description: "Load a methodological thinking framework by id to guide a difficult step.",
	Parameters: objectSchema([]string{"advice_ids"}, map[string]any{
		"advice_ids": strParam("Comma-separated advice identifiers"),
	}),
}
