package config

// mergeModels merges built-in and user-defined model configurations.
// User-defined models override built-in models with the same id.
func mergeModels(builtinModels map[string]ModelConfig, userModels map[string]ModelConfig) map[string]*ModelConfig {
	result := make(map[string]*ModelConfig)

	for id, model := range builtinModels {
		modelCopy := model
		result[id] = &modelCopy
	}

	for id, userModel := range userModels {
		modelCopy := userModel
		result[id] = &modelCopy
	}

	return result
}

// mergeToolServers merges built-in and user-defined tool server configurations.
// User-defined servers override built-in servers with the same id.
func mergeToolServers(builtinServers map[string]ToolServerConfig, userServers map[string]ToolServerConfig) map[string]*ToolServerConfig {
	result := make(map[string]*ToolServerConfig)

	for id, server := range builtinServers {
		serverCopy := server
		result[id] = &serverCopy
	}

	for id, userServer := range userServers {
		serverCopy := userServer
		result[id] = &serverCopy
	}

	return result
}
