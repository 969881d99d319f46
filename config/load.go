package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/subgraph/errors"
)

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
	sources       map[string]SourceInfo
)

// Load returns the merged configuration, reading it on first use.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance so callers can bind flags before Load.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	v, _ := initViper()
	return v
}

// LoadWithViper decodes and validates configuration from v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// LoadFromFile loads configuration from a single file on top of the defaults.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	sources = nil
}

// initViper builds the Viper instance once. Callers hold mu.
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	sources = make(map[string]SourceInfo)
	if err := mergeConfigFiles(v, sources); err != nil {
		return v, err
	}

	viperInstance = v
	return v, nil
}

// UserConfigPath returns ~/.graph/config.toml, or "" when there is no home directory.
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigName)
}

// FindProjectConfig searches for graph.toml by walking up from dir.
// Returns the path to the first file found, or empty string if none found.
func FindProjectConfig(dir string) string {
	for {
		path := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// mergeConfigFiles merges the user and project files in precedence order.
// Files are merged as config layers, so environment variables and flags still win.
func mergeConfigFiles(v *viper.Viper, tracked map[string]SourceInfo) error {
	type layer struct {
		path   string
		source ConfigSource
	}
	var layers []layer
	if p := UserConfigPath(); p != "" {
		layers = append(layers, layer{p, SourceUser})
	}
	if wd, err := os.Getwd(); err == nil {
		if p := FindProjectConfig(wd); p != "" {
			layers = append(layers, layer{p, SourceProject})
		}
	}

	for _, l := range layers {
		if _, err := os.Stat(l.path); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(l.path)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			return errors.WithHint(
				errors.Wrapf(err, "failed to read config file %s", l.path),
				"fix the TOML syntax or remove the file")
		}

		if err := v.MergeConfigMap(fileViper.AllSettings()); err != nil {
			return errors.Wrapf(err, "failed to merge config file %s", l.path)
		}
		for _, key := range fileViper.AllKeys() {
			tracked[key] = SourceInfo{Source: l.source, Path: l.path}
		}
	}
	return nil
}
