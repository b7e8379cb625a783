package config

import (
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultExecutable = "dotnet"
	DefaultMode       = "mcp"
	DefaultConfigFile = "Config/appsettings.json"

	DefaultShutdownTimeout = 3 * time.Second

	DefaultChatModel    = openai.GPT4o
	DefaultSystemPrompt = "You are an assistant helping migrate COBOL programs. " +
		"Answer using the migration run's analysis and generated code."

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// Default returns the configuration used when no config file exists. Values
// read from a file are layered on top of it.
func Default() *Config {
	return &Config{
		Helper: HelperConfig{
			Executable:      DefaultExecutable,
			Mode:            DefaultMode,
			ConfigFile:      DefaultConfigFile,
			ShutdownTimeout: DefaultShutdownTimeout.String(),
		},
		Chat: ChatConfig{
			Model:        DefaultChatModel,
			SystemPrompt: DefaultSystemPrompt,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
