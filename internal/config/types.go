package config

import "time"

// Config is the top-level migbridge configuration.
type Config struct {
	Helper HelperConfig `toml:"helper"`
	Chat   ChatConfig   `toml:"chat"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
}

// HelperConfig describes how to launch the migration helper process.
type HelperConfig struct {
	Executable string `toml:"executable"`
	Assembly   string `toml:"assembly"`
	Mode       string `toml:"mode"`
	ConfigFile string `toml:"config_file"`
	BaseDir    string `toml:"base_dir"`
	WorkingDir string `toml:"working_dir"`
	RunID      string `toml:"run_id"`

	// ExtraArgs are passed to the executable ahead of the assembly.
	ExtraArgs []string          `toml:"extra_args"`
	Env       map[string]string `toml:"env"`

	ShutdownTimeout string `toml:"shutdown_timeout"`
	IdleTimeout     string `toml:"idle_timeout"`
}

// ChatConfig holds the fixed parameters of messages/create.
type ChatConfig struct {
	Model        string `toml:"model"`
	SystemPrompt string `toml:"system_prompt"`
}

// CacheConfig controls the on-disk resource read cache.
type CacheConfig struct {
	ResourceTTL string `toml:"resource_ttl"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File switches output from stderr to a rotated log file.
	File string `toml:"file"`
}

// ShutdownGrace returns how long teardown waits for the helper to exit
// before killing it.
func (h HelperConfig) ShutdownGrace() time.Duration {
	if d, ok := positiveDuration(h.ShutdownTimeout); ok {
		return d
	}
	return DefaultShutdownTimeout
}

// IdleAfter returns the idle period after which the helper is stopped, or 0
// when idle teardown is disabled.
func (h HelperConfig) IdleAfter() time.Duration {
	d, _ := positiveDuration(h.IdleTimeout)
	return d
}

// TTL returns the resource cache lifetime, or 0 when caching is disabled.
func (c CacheConfig) TTL() time.Duration {
	d, _ := positiveDuration(c.ResourceTTL)
	return d
}

func positiveDuration(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
