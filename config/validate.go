package config

import (
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/ipfs"
	"github.com/teranos/subgraph/logger"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Build.OutputFormat {
	case "wasm", "wast":
	default:
		return errors.WithHint(
			errors.Newf("build.output_format must be wasm or wast, got %q", c.Build.OutputFormat),
			"pass -t wasm or -t wast")
	}

	if c.Build.OutputDir == "" {
		return errors.New("build.output_dir cannot be empty")
	}

	// 0 = no debounce, negative = invalid
	if c.Watch.DebounceMs < 0 {
		return errors.Newf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}

	if c.IPFS.Address != "" {
		if _, err := ipfs.ParseAddress(c.IPFS.Address); err != nil {
			return errors.Wrap(err, "ipfs.address")
		}
	}

	if _, err := logger.VerbosityToLevel(c.Log.Verbosity); err != nil {
		return errors.Wrap(err, "log.verbosity")
	}

	return nil
}
