package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/subgraph/build"
	"github.com/teranos/subgraph/compiler"
	"github.com/teranos/subgraph/config"
	"github.com/teranos/subgraph/display"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/ipfs"
	"github.com/teranos/subgraph/logger"
	"github.com/teranos/subgraph/watch"
)

// BuildCmd compiles a subgraph
var BuildCmd = &cobra.Command{
	Use:   "build <subgraph.yaml>",
	Short: "Generate bindings and compile mappings",
	Long: `Build a subgraph from its manifest.

Writes generated bindings to <output-dir>/generated, one compiled module per
data source to <output-dir>/<data source>/<mapping>.<format>, and copies the
manifest, schema and ABIs next to them.

With --watch, every file the manifest references (and the manifest itself) is
watched and the subgraph is rebuilt when one changes. Changes that arrive while
a build runs are folded into a single follow-up build.

With --ipfs, the artifacts are uploaded to the given IPFS node after a
successful build and the manifest's content ID is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	BuildCmd.Flags().StringP("output-dir", "o", "dist", "Output directory for build artifacts")
	BuildCmd.Flags().StringP("output-format", "t", "wasm", "Output format (wasm, wast)")
	BuildCmd.Flags().StringP("ipfs", "i", "", "IPFS node to use for uploading files")
	BuildCmd.Flags().BoolP("watch", "w", false, "Rebuild when a file the subgraph depends on changes")
	BuildCmd.Flags().String("asc", "asc", "AssemblyScript compiler command (empty: bindings only)")
	BuildCmd.Flags().Int("debounce", 500, "Milliseconds to wait for more changes before rebuilding")
}

// BuildResult is the JSON output of a build
type BuildResult struct {
	Manifest   string            `json:"manifest"`
	OutputDir  string            `json:"output_dir"`
	Files      []string          `json:"files"`
	CIDs       map[string]string `json:"cids,omitempty"`
	SubgraphID string            `json:"subgraph_id,omitempty"`
	Warnings   []string          `json:"warnings,omitempty"`
}

func newCompiler(manifestPath string, cfg *config.Config, spinner *display.Spinner) (*compiler.Compiler, error) {
	return compiler.New(compiler.Options{
		ManifestPath: manifestPath,
		OutputDir:    cfg.Build.OutputDir,
		OutputFormat: cfg.Build.OutputFormat,
		AscCommand:   cfg.Compiler.AscCommand,
		Logger:       logger.Named("compiler"),
		Progress: func(subject, path string) {
			display.Step(spinner, subject, relative(path))
		},
		Warning: spinner.Warn,
	})
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	manifestPath := args[0]

	if watchMode, _ := cmd.Flags().GetBool("watch"); watchMode {
		return runWatch(cmd.Context(), manifestPath, cfg)
	}

	ctx := cmd.Context()
	var art *compiler.Artifacts
	err = display.WithSpinner("Compile subgraph", "Failed to compile subgraph", "Compiled subgraph with warnings", func(s *display.Spinner) error {
		comp, err := newCompiler(manifestPath, cfg, s)
		if err != nil {
			return err
		}
		art, err = comp.Compile(ctx)
		return err
	})
	if err != nil {
		return err
	}

	result := BuildResult{
		Manifest:  manifestPath,
		OutputDir: art.OutputDir,
		Files:     art.Files(),
		Warnings:  art.Warnings,
	}

	if cfg.IPFS.Address != "" {
		if err := upload(ctx, cfg.IPFS.Address, art, &result); err != nil {
			return err
		}
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(result)
	}

	pterm.Success.Printfln("Build completed: %d files in %s", len(result.Files), result.OutputDir)
	if result.SubgraphID != "" {
		pterm.Info.Printfln("Subgraph: %s", result.SubgraphID)
	}
	return nil
}

// upload adds every artifact to IPFS. The copied manifest's content ID
// identifies the subgraph.
func upload(ctx context.Context, addr string, art *compiler.Artifacts, result *BuildResult) error {
	client, err := ipfs.NewClient(addr, logger.Named("ipfs"))
	if err != nil {
		return err
	}

	return display.WithSpinner("Upload to IPFS", "Failed to upload to IPFS", "Uploaded to IPFS with warnings", func(s *display.Spinner) error {
		cids, err := client.UploadFiles(ctx, result.Files)
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			display.Step(s, cids[f], relative(f))
		}
		result.CIDs = cids
		if len(art.Copied) > 0 {
			result.SubgraphID = cids[art.Copied[0]]
		}
		return nil
	})
}

// runWatch builds once, then rebuilds on every dependency change until
// interrupted. Build failures are reported and watching continues.
func runWatch(parent context.Context, manifestPath string, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	comp, err := newCompiler(manifestPath, cfg, nil)
	if err != nil {
		return err
	}

	log := logger.Named("build")
	coordinator := build.NewCoordinator(func(ctx context.Context) error {
		art, err := comp.Compile(ctx)
		if err != nil {
			return err
		}
		log.Infow("Artifacts written",
			"output_dir", art.OutputDir,
			"files", len(art.Files()))
		return nil
	}, log)
	coordinator.Start(ctx)
	defer coordinator.Stop()

	w, err := watch.New(watch.Options{
		ManifestPath: manifestPath,
		Debounce:     cfg.Debounce(),
	}, coordinator, logger.Named("watch"))
	if err != nil {
		return err
	}
	defer w.Close()

	coordinator.Notify(build.Trigger{Path: w.ManifestPath(), Op: "initial", At: time.Now()})

	if err := w.Run(ctx); err != nil {
		return errors.Wrap(err, "watch failed")
	}
	log.Infow("Stopping, waiting for the running build to finish")
	return nil
}

// relative shortens path for display when it lies under the working directory.
func relative(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
