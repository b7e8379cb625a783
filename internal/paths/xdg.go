package paths

import (
	"os"
	"path/filepath"
)

const appName = "migbridge"

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func xdgDir(envVar string, fallbackParts ...string) string {
	if v := os.Getenv(envVar); v != "" {
		return filepath.Join(v, appName)
	}
	parts := append([]string{homeDir()}, fallbackParts...)
	return filepath.Join(append(parts, appName)...)
}

// ConfigDir returns the migbridge config directory ($XDG_CONFIG_HOME/migbridge).
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// CacheDir returns the migbridge cache directory ($XDG_CACHE_HOME/migbridge).
func CacheDir() string {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StateDir returns the migbridge state directory ($XDG_STATE_HOME/migbridge).
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

// ConfigFile returns the path to config.toml.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ResourceCacheDir returns where cached resources/read results live.
func ResourceCacheDir() string {
	return filepath.Join(CacheDir(), "resources")
}

// LogFile returns the default log file used when logging to a file is
// requested without an explicit path.
func LogFile() string {
	return filepath.Join(StateDir(), "migbridge.log")
}

// EnsureDir creates a directory and parents if needed.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0700)
}
