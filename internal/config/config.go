// Package config holds the viper-backed application configuration for the
// papercli host. The sync engine itself is configuration-free; everything
// here belongs to the command-line surface.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton. Call once at
// application startup.
//
// Config file precedence: project ./.papercli/config.yaml, then
// ~/.config/papercli/config.yaml, then ~/.papercli/config.yaml.
// Environment variables use the PAPERCLI prefix with hyphens and dots
// mapped to underscores (PAPERCLI_REMOTE_PATH => remote-path).
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	configFileSet := false
	if cwd, err := os.Getwd(); err == nil {
		path := filepath.Join(cwd, ".papercli", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			configFileSet = true
		}
	}
	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			path := filepath.Join(configDir, "papercli", "config.yaml")
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				configFileSet = true
			}
		}
	}
	if !configFileSet {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path := filepath.Join(homeDir, ".papercli", "config.yaml")
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("PAPERCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data-dir", defaultDataDir())
	v.SetDefault("remote-path", "")
	v.SetDefault("auto-sync", false)
	v.SetDefault("prefer", "")
	v.SetDefault("no-color", false)
	v.SetDefault("log-max-size-mb", 10)
	v.SetDefault("log-max-backups", 3)

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".papercli"
	}
	return filepath.Join(home, ".papercli")
}

// GetString retrieves a string configuration value.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// Set overrides a configuration value for this process.
func Set(key string, value any) {
	if v != nil {
		v.Set(key, value)
	}
}

// SetYamlConfig persists a key into the active config file, creating
// ~/.papercli/config.yaml if no file was found at startup. Existing keys
// are replaced; unrelated keys are preserved.
func SetYamlConfig(key string, value any) error {
	path := ""
	if v != nil {
		path = v.ConfigFileUsed()
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, ".papercli", "config.yaml")
	}

	settings := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	settings[key] = value

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if v != nil {
		v.Set(key, value)
	}
	return nil
}
