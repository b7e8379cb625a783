package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	knownLogLevels  = []string{"debug", "info", "warn", "error"}
	knownLogFormats = []string{"console", "json"}
)

// Validate checks configuration invariants and returns actionable errors.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var errs []error

	if strings.TrimSpace(cfg.Helper.Executable) == "" {
		errs = append(errs, errors.New("helper.executable: required"))
	}
	if strings.TrimSpace(cfg.Helper.Mode) == "" {
		errs = append(errs, errors.New("helper.mode: required"))
	}
	if err := validateDuration("helper.shutdown_timeout", cfg.Helper.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}
	if err := validateDuration("helper.idle_timeout", cfg.Helper.IdleTimeout); err != nil {
		errs = append(errs, err)
	}
	for k := range cfg.Helper.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			errs = append(errs, fmt.Errorf("helper.env: invalid variable name %q", k))
		}
	}

	if strings.TrimSpace(cfg.Chat.Model) == "" {
		errs = append(errs, errors.New("chat.model: required"))
	}

	if err := validateDuration("cache.resource_ttl", cfg.Cache.ResourceTTL); err != nil {
		errs = append(errs, err)
	}

	if cfg.Log.Level != "" && !contains(knownLogLevels, cfg.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q, want one of %s", cfg.Log.Level, strings.Join(knownLogLevels, ", ")))
	}
	if cfg.Log.Format != "" && !contains(knownLogFormats, cfg.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q, want one of %s", cfg.Log.Format, strings.Join(knownLogFormats, ", ")))
	}

	return errors.Join(errs...)
}

// ValidateForCurrentEnv checks config invariants after expanding ${ENV_VAR}
// placeholders against the current process environment.
func ValidateForCurrentEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	expanded := cloneConfig(cfg)
	expandConfigEnvVars(expanded)
	return Validate(expanded)
}

func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q: %w", field, value, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be > 0, got %q", field, value)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func cloneConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}

	cloned := *cfg
	cloned.Helper.ExtraArgs = append([]string(nil), cfg.Helper.ExtraArgs...)
	cloned.Helper.Env = cloneStringMap(cfg.Helper.Env)
	return &cloned
}

func cloneStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
