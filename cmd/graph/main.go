package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/subgraph/cmd/graph/commands"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "graph",
	Short: "graph - Build subgraphs",
	Long: `graph - Compile subgraph manifests into deployable artifacts.

A subgraph manifest (subgraph.yaml) names an entity schema, and for every data
source a mapping file and the contract ABIs it handles. graph generates typed
AssemblyScript bindings for the ABIs and entities, compiles the mappings to
WebAssembly, and can upload the results to IPFS.

Available commands:
  build   - Generate bindings and compile mappings (optionally watch and rebuild)
  codegen - Generate bindings only
  config  - Show and initialize configuration
  version - Show version information

Examples:
  graph build subgraph.yaml                 # Build into ./dist
  graph build -w subgraph.yaml              # Rebuild whenever an input changes
  graph build -i localhost:5001 subgraph.yaml
  graph codegen -o src/types subgraph.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: commands.Setup,
}

func init() {
	rootCmd.PersistentFlags().String("verbosity", "info", "The log level to use: info, verbose or debug (default: LOG_LEVEL or info)")
	rootCmd.PersistentFlags().Bool("json", false, "Output JSON logs and results")

	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.CodegenCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
