package config

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.graph/config.toml
	SourceProject     ConfigSource = "project"     // graph.toml
	SourceEnvironment ConfigSource = "environment" // GRAPH_* env vars
	SourceFlag        ConfigSource = "flag"
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path, environment variable or flag name
}

// SettingInfo is one effective setting and its origin
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Introspect lists every effective setting with the source that supplied it.
// flags, when non-nil, are the CLI flags bound to the Viper instance.
func Introspect(flags *pflag.FlagSet, flagKeys map[string]string) ([]SettingInfo, error) {
	v := GetViper()
	if _, err := Load(); err != nil {
		return nil, err
	}

	mu.Lock()
	tracked := make(map[string]SourceInfo, len(sources))
	for k, s := range sources {
		tracked[k] = s
	}
	mu.Unlock()

	keys := v.AllKeys()
	sort.Strings(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := tracked[key]; ok {
			info = si
		}
		if env := envOverride(key); env != "" {
			info = SourceInfo{Source: SourceEnvironment, Path: env}
		}
		if name, ok := flagKeys[key]; ok && flags != nil && flags.Changed(name) {
			info = SourceInfo{Source: SourceFlag, Path: "--" + name}
		}

		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings, nil
}

// envOverride returns the environment variable supplying key, if any.
func envOverride(key string) string {
	candidates := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	switch key {
	case "log.verbosity":
		candidates = append(candidates, "LOG_LEVEL")
	case "ipfs.address":
		candidates = append(candidates, "IPFS_API")
	}
	for _, name := range candidates {
		if os.Getenv(name) != "" {
			return name
		}
	}
	return ""
}
