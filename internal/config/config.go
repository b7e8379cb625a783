package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/joeshaw/envdecode"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/paths"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// envOverrides are applied after the file is parsed and expanded.
type envOverrides struct {
	Executable string `env:"MIGBRIDGE_HELPER_EXECUTABLE"`
	BaseDir    string `env:"MIGBRIDGE_BASE_DIR"`
	RunID      string `env:"MIGBRIDGE_RUN_ID"`
	ChatModel  string `env:"MIGBRIDGE_CHAT_MODEL"`
	LogLevel   string `env:"MIGBRIDGE_LOG_LEVEL"`
}

// Load reads the config file and returns the parsed Config.
// If the config file does not exist, it returns Default (no error).
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads and parses a config file at the given path, expands
// ${ENV_VAR} placeholders and applies MIGBRIDGE_* environment overrides.
func LoadFrom(path string) (*Config, error) {
	cfg, err := loadFrom(path)
	if err != nil {
		return nil, err
	}
	expandConfigEnvVars(cfg)
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadForEditFrom reads and parses a config file at the given path for edits.
// It skips env expansion and overrides so writes do not bake secrets.
func LoadForEditFrom(path string) (*Config, error) {
	return loadFrom(path)
}

func loadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ExampleConfigPath returns the default config file path (for help messages).
func ExampleConfigPath() string {
	return paths.ConfigFile()
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("reading MIGBRIDGE_* environment: %w", err)
	}

	if env.Executable != "" {
		cfg.Helper.Executable = env.Executable
	}
	if env.BaseDir != "" {
		cfg.Helper.BaseDir = env.BaseDir
	}
	if env.RunID != "" {
		cfg.Helper.RunID = env.RunID
	}
	if env.ChatModel != "" {
		cfg.Chat.Model = env.ChatModel
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	return nil
}

func expandConfigEnvVars(cfg *Config) {
	if cfg == nil {
		return
	}

	h := &cfg.Helper
	h.Executable = expandEnvVars(h.Executable)
	h.Assembly = expandEnvVars(h.Assembly)
	h.ConfigFile = expandEnvVars(h.ConfigFile)
	h.BaseDir = expandEnvVars(h.BaseDir)
	h.WorkingDir = expandEnvVars(h.WorkingDir)
	h.RunID = expandEnvVars(h.RunID)
	for i := range h.ExtraArgs {
		h.ExtraArgs[i] = expandEnvVars(h.ExtraArgs[i])
	}
	for k, v := range h.Env {
		h.Env[k] = expandEnvVars(v)
	}

	cfg.Chat.Model = expandEnvVars(cfg.Chat.Model)
	cfg.Log.File = expandEnvVars(cfg.Log.File)
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}
