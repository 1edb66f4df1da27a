// Package config loads pqkit configuration from YAML with environment
// overrides. Zero values in the file fall back to defaults, so a partial
// config is always valid input.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backend preference values accepted by Validate.
const (
	BackendNative   = "native"
	BackendFallback = "fallback"
)

// Config is the full pqkit configuration tree.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Log      LogConfig      `yaml:"log"`
	Keystore KeystoreConfig `yaml:"keystore"`
}

// BackendConfig controls backend selection.
type BackendConfig struct {
	// Preferred names the backend the provider loads first: "native" or
	// "fallback". Loading "fallback" directly skips the native attempt.
	Preferred string `yaml:"preferred"`

	// StretchIterations is the default passphrase stretching count used
	// when a caller does not specify one.
	StretchIterations uint32 `yaml:"stretchIterations"`
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// KeystoreConfig controls the encrypted seed store.
type KeystoreConfig struct {
	Dir     string `yaml:"dir"`
	ScryptN int    `yaml:"scryptN"`
	ScryptR int    `yaml:"scryptR"`
	ScryptP int    `yaml:"scryptP"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Preferred:         BackendNative,
			StretchIterations: 600,
		},
		Log: LogConfig{
			Level: "info",
		},
		Keystore: KeystoreConfig{
			Dir:     "keystore",
			ScryptN: 1 << 18,
			ScryptR: 8,
			ScryptP: 1,
		},
	}
}

// Load reads path, merges it over the defaults, applies environment
// overrides, and validates the result. An empty path tries the standard
// locations and silently falls back to defaults when none exists; a
// non-empty path that cannot be read or parsed is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	candidates := []string{"pqkit.yaml", "configs/pqkit.yaml"}
	explicit := path != ""
	if explicit {
		candidates = []string{path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if explicit {
				return Config{}, fmt.Errorf("config: read %s: %w", candidate, err)
			}
			continue
		}

		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", candidate, err)
		}
		merge(&cfg, parsed)
		break
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Backend.Preferred {
	case BackendNative, BackendFallback:
	default:
		return fmt.Errorf("config: unknown backend preference %q", c.Backend.Preferred)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	if c.Backend.StretchIterations == 0 {
		return fmt.Errorf("config: stretchIterations must be positive")
	}
	if n := c.Keystore.ScryptN; n < 2 || n&(n-1) != 0 {
		return fmt.Errorf("config: scryptN %d is not a power of two greater than one", n)
	}
	if c.Keystore.ScryptR <= 0 || c.Keystore.ScryptP <= 0 {
		return fmt.Errorf("config: scrypt r and p must be positive")
	}
	return nil
}

func merge(dst *Config, src Config) {
	if src.Backend.Preferred != "" {
		dst.Backend.Preferred = src.Backend.Preferred
	}
	if src.Backend.StretchIterations != 0 {
		dst.Backend.StretchIterations = src.Backend.StretchIterations
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Keystore.Dir != "" {
		dst.Keystore.Dir = src.Keystore.Dir
	}
	if src.Keystore.ScryptN != 0 {
		dst.Keystore.ScryptN = src.Keystore.ScryptN
	}
	if src.Keystore.ScryptR != 0 {
		dst.Keystore.ScryptR = src.Keystore.ScryptR
	}
	if src.Keystore.ScryptP != 0 {
		dst.Keystore.ScryptP = src.Keystore.ScryptP
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PQKIT_BACKEND")); v != "" {
		cfg.Backend.Preferred = v
	}
	if v := strings.TrimSpace(os.Getenv("PQKIT_LOG_LEVEL")); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("PQKIT_STRETCH_ITERATIONS")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil && n > 0 {
			cfg.Backend.StretchIterations = uint32(n)
		}
	}
	if v := strings.TrimSpace(os.Getenv("PQKIT_KEYSTORE_DIR")); v != "" {
		cfg.Keystore.Dir = v
	}
}
