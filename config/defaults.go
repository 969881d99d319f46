package config

import (
	"github.com/spf13/viper"
)

// File and directory names used for configuration
const (
	ProjectConfigName = "graph.toml"
	UserConfigDir     = ".graph"
	UserConfigName    = "config.toml"
	EnvPrefix         = "GRAPH"

	DefaultDirPermissions = 0o755
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("build.output_dir", "dist")
	v.SetDefault("build.output_format", "wasm")

	v.SetDefault("compiler.asc_command", "asc")

	v.SetDefault("watch.debounce_ms", 500) // coalesce editor save bursts

	v.SetDefault("ipfs.address", "")

	v.SetDefault("log.verbosity", "info")
	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings that are also read from unprefixed environment variables
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("log.verbosity", "GRAPH_LOG_VERBOSITY", "LOG_LEVEL")
	v.BindEnv("ipfs.address", "GRAPH_IPFS_ADDRESS", "IPFS_API")
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}
