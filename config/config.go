// Package config loads graph's settings with Viper.
//
// Sources are merged in precedence order (lowest first):
//
//	built-in defaults
//	~/.graph/config.toml           user config
//	graph.toml                     project config, found by walking up from the working directory
//	GRAPH_* environment variables  (LOG_LEVEL for log.verbosity)
//	command-line flags             bound by the CLI through GetViper
package config

import (
	"fmt"
	"time"
)

// Config is the complete graph configuration.
type Config struct {
	Build    BuildConfig    `mapstructure:"build" toml:"build" yaml:"build" json:"build"`
	Compiler CompilerConfig `mapstructure:"compiler" toml:"compiler" yaml:"compiler" json:"compiler"`
	Watch    WatchConfig    `mapstructure:"watch" toml:"watch" yaml:"watch" json:"watch"`
	IPFS     IPFSConfig     `mapstructure:"ipfs" toml:"ipfs" yaml:"ipfs" json:"ipfs"`
	Log      LogConfig      `mapstructure:"log" toml:"log" yaml:"log" json:"log"`
}

// BuildConfig controls where and in which format artifacts are written.
type BuildConfig struct {
	OutputDir    string `mapstructure:"output_dir" toml:"output_dir" yaml:"output_dir" json:"output_dir"`
	OutputFormat string `mapstructure:"output_format" toml:"output_format" yaml:"output_format" json:"output_format"` // wasm or wast
}

// CompilerConfig configures the AssemblyScript compiler invocation.
type CompilerConfig struct {
	// AscCommand is split like a shell command line. Empty generates bindings only.
	AscCommand string `mapstructure:"asc_command" toml:"asc_command" yaml:"asc_command" json:"asc_command"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms" json:"debounce_ms"` // 0 = rebuild on every change
}

// IPFSConfig configures artifact upload.
type IPFSConfig struct {
	Address string `mapstructure:"address" toml:"address" yaml:"address" json:"address"` // empty = no upload
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity string `mapstructure:"verbosity" toml:"verbosity" yaml:"verbosity" json:"verbosity"` // info, verbose or debug
	JSON      bool   `mapstructure:"json" toml:"json" yaml:"json" json:"json"`
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// String returns a short summary of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Build: {OutputDir: %s, OutputFormat: %s}, IPFS: %s}",
		c.Build.OutputDir, c.Build.OutputFormat, c.IPFS.Address)
}
