package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/subgraph/config"
	"github.com/teranos/subgraph/display"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/logger"
)

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"output-dir":    "build.output_dir",
	"output-format": "build.output_format",
	"ipfs":          "ipfs.address",
	"asc":           "compiler.asc_command",
	"debounce":      "watch.debounce_ms",
	"verbosity":     "log.verbosity",
	"json":          "log.json",
}

// configKeyFlags is flagKeys inverted, for config introspection.
func configKeyFlags() map[string]string {
	out := make(map[string]string, len(flagKeys))
	for flag, key := range flagKeys {
		out[key] = flag
	}
	return out
}

// Setup binds the command's flags into the configuration cascade, loads it and
// initializes logging. It runs before every command.
func Setup(cmd *cobra.Command, args []string) error {
	v := config.GetViper()
	flags := cmd.Flags()
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return errors.Wrapf(err, "failed to bind --%s", name)
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	level, err := logger.VerbosityToLevel(cfg.Log.Verbosity)
	if err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.JSON, level); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	display.SetQuiet(cfg.Log.JSON)
	return nil
}
