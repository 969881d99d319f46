package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/subgraph/config"
	"github.com/teranos/subgraph/display"
	"github.com/teranos/subgraph/errors"
)

// ConfigCmd manages graph configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage graph configuration",
	Long: `Display and manage graph configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (GRAPH_* prefix, plus LOG_LEVEL and IPFS_API)
3. Project config (graph.toml, searched upwards from the working directory)
4. User config (~/.graph/config.toml)
5. Default values

Examples:
  graph config show                  # Show current configuration
  graph config show --format json    # Show configuration in JSON format
  graph config show --sources        # Show where every value comes from
  graph config get build.output_dir  # Get specific config value
  graph config init                  # Write a graph.toml with the defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., build.output_dir, watch.debounce_ms)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runConfigWhere,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration to a file",
	Long:  "Write the built-in defaults to path (default ./" + config.ProjectConfigName + ").",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var (
	configFormat  string
	configSources bool
	configForce   bool
)

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", config.FormatTOML, "Output format: toml, json, yaml")
	configShowCmd.Flags().BoolVar(&configSources, "sources", false, "List every setting with the source that supplied it")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configGetCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configSources {
		settings, err := config.Introspect(cmd.Flags(), configKeyFlags())
		if err != nil {
			return err
		}
		if display.ShouldOutputJSON(cmd) {
			return display.OutputJSON(settings)
		}
		for _, s := range settings {
			origin := string(s.Source)
			if s.SourcePath != "" {
				origin += " (" + s.SourcePath + ")"
			}
			fmt.Fprintf(out, "%-22s = %-12v %s\n", s.Key, s.Value, pterm.FgGray.Sprint(origin))
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = config.FormatJSON
	}
	data, err := config.Marshal(cfg, format)
	if err != nil {
		return err
	}
	if format != config.FormatJSON {
		fmt.Fprintln(out, "# graph configuration")
	}
	fmt.Fprint(out, string(data))
	if format == config.FormatJSON {
		fmt.Fprintln(out)
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	if _, err := config.Load(); err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	v := config.GetViper()
	if !v.IsSet(key) {
		return errors.WithHint(
			errors.Newf("configuration key %q not found", key),
			"run 'graph config show --sources' to list the available keys")
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Load already validates; a failure there is the answer.
	if _, err := config.Load(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	userPath := config.UserConfigPath()
	projectPath := ""
	if wd, err := os.Getwd(); err == nil {
		projectPath = config.FindProjectConfig(wd)
	}

	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(out, "  2. [USER]     %s %s\n", displayPath(userPath), presence(userPath))
	fmt.Fprintf(out, "  3. [PROJECT]  %s %s\n", displayPath(projectPath), presence(projectPath))
	fmt.Fprintln(out, "  4. [ENV]      GRAPH_* environment variables, LOG_LEVEL, IPFS_API")
	fmt.Fprintln(out, "  5. [FLAG]     command line flags")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ProjectConfigName
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefault(path, configForce); err != nil {
		return err
	}
	pterm.Success.Printfln("Wrote %s", path)
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "./" + config.ProjectConfigName
	}
	return path
}

func presence(path string) string {
	if path == "" {
		return pterm.FgGray.Sprint("(not found)")
	}
	if _, err := os.Stat(path); err != nil {
		return pterm.FgGray.Sprint("(missing)")
	}
	return pterm.FgGreen.Sprint("(loaded)")
}
