package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/subgraph/compiler"
	"github.com/teranos/subgraph/config"
	"github.com/teranos/subgraph/display"
)

// CodegenCmd generates bindings without compiling mappings
var CodegenCmd = &cobra.Command{
	Use:   "codegen <subgraph.yaml>",
	Short: "Generate AssemblyScript bindings",
	Long: `Generate typed AssemblyScript bindings for the manifest's ABIs and entity
schema into <output-dir>/generated, without compiling mappings.`,
	Args: cobra.ExactArgs(1),
	RunE: runCodegen,
}

func init() {
	CodegenCmd.Flags().StringP("output-dir", "o", "dist", "Output directory for generated bindings")
}

func runCodegen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var art *compiler.Artifacts
	err = display.WithSpinner("Generate bindings", "Failed to generate bindings", "Generated bindings with warnings", func(s *display.Spinner) error {
		comp, err := newCompiler(args[0], cfg, s)
		if err != nil {
			return err
		}
		art, err = comp.Generate(cmd.Context())
		return err
	})
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(BuildResult{
			Manifest:  args[0],
			OutputDir: art.OutputDir,
			Files:     art.Files(),
		})
	}
	pterm.Success.Printfln("Generated %d files in %s", len(art.Generated), art.OutputDir)
	return nil
}
