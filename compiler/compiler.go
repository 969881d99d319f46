// Package compiler is the build entry point: it loads the manifest, writes the
// generated bindings, compiles every mapping with the AssemblyScript compiler
// and copies the inputs next to the outputs.
package compiler

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/subgraph/abi"
	"github.com/teranos/subgraph/bindings"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/manifest"
	"github.com/teranos/subgraph/schema"
)

// Output formats for compiled mappings.
const (
	FormatWasm = "wasm"
	FormatWast = "wast"
)

// GeneratedDir is the directory under the output dir that holds bindings.
const GeneratedDir = "generated"

// Options configures a Compiler.
type Options struct {
	ManifestPath string
	OutputDir    string
	OutputFormat string

	// AscCommand is the AssemblyScript compiler command line, for example
	// "asc --optimize". Empty skips the binary compile.
	AscCommand string

	// Progress, when set, is called after each file is written.
	Progress func(subject, path string)

	// Warning, when set, receives conditions that do not fail the build.
	Warning func(msg string)

	Logger *zap.SugaredLogger
}

// Artifacts lists what a compile wrote.
type Artifacts struct {
	OutputDir string
	// Generated are the binding sources.
	Generated []string
	// Binaries are the compiled mappings.
	Binaries []string
	// Copied are the manifest, schema and ABI files copied into the output.
	Copied []string
	// Warnings did not fail the build but the user should see them.
	Warnings []string
}

// Files returns every written file, sorted.
func (a *Artifacts) Files() []string {
	files := make([]string, 0, len(a.Generated)+len(a.Binaries)+len(a.Copied))
	files = append(files, a.Generated...)
	files = append(files, a.Binaries...)
	files = append(files, a.Copied...)
	sort.Strings(files)
	return files
}

// runFunc executes one compiler process.
type runFunc func(ctx context.Context, argv []string, dir string) error

// Compiler produces build artifacts from a manifest. It holds no state between
// compiles.
type Compiler struct {
	opts   Options
	logger *zap.SugaredLogger
	run    runFunc
}

// New validates opts and creates a Compiler. The manifest path and output
// directory are made absolute against the working directory, because the
// AssemblyScript compiler runs in the manifest's directory.
func New(opts Options) (*Compiler, error) {
	if opts.ManifestPath == "" {
		return nil, errors.New("manifest path is required")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "dist"
	}
	var err error
	if opts.ManifestPath, err = filepath.Abs(opts.ManifestPath); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve manifest path %s", opts.ManifestPath)
	}
	if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
		return nil, errors.Wrapf(err, "failed to resolve output directory %s", opts.OutputDir)
	}
	switch opts.OutputFormat {
	case "":
		opts.OutputFormat = FormatWasm
	case FormatWasm, FormatWast:
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported output format %q", opts.OutputFormat),
			"use wasm or wast")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	c := &Compiler{opts: opts, logger: opts.Logger}
	c.run = c.execAsc
	return c, nil
}

func (c *Compiler) progress(subject, path string) {
	if c.opts.Progress != nil {
		c.opts.Progress(subject, path)
	}
}

func (c *Compiler) warn(art *Artifacts, msg string) {
	c.logger.Warnw(msg)
	art.Warnings = append(art.Warnings, msg)
	if c.opts.Warning != nil {
		c.opts.Warning(msg)
	}
}

// Options returns the effective options.
func (c *Compiler) Options() Options {
	return c.opts
}

// Compile runs a full build. Every failure is marked errors.ErrCompile; the
// underlying cause (for example errors.ErrManifest) stays matchable.
func (c *Compiler) Compile(ctx context.Context) (*Artifacts, error) {
	doc, baseDir, err := c.load()
	if err != nil {
		return nil, err
	}

	art := &Artifacts{OutputDir: c.opts.OutputDir}
	if err := c.generate(doc, baseDir, art); err != nil {
		return nil, err
	}
	if err := c.compileMappings(ctx, doc, baseDir, art); err != nil {
		return nil, err
	}
	if err := c.copyInputs(doc, baseDir, art); err != nil {
		return nil, err
	}

	c.logger.Infow("Subgraph compiled",
		"output_dir", c.opts.OutputDir,
		"generated", len(art.Generated),
		"binaries", len(art.Binaries))
	return art, nil
}

// Generate writes the bindings only.
func (c *Compiler) Generate(ctx context.Context) (*Artifacts, error) {
	doc, baseDir, err := c.load()
	if err != nil {
		return nil, err
	}
	art := &Artifacts{OutputDir: c.opts.OutputDir}
	if err := c.generate(doc, baseDir, art); err != nil {
		return nil, err
	}
	return art, nil
}

func (c *Compiler) load() (*manifest.Document, string, error) {
	doc, err := manifest.Load(c.opts.ManifestPath)
	if err != nil {
		return nil, "", errors.WrapCompile(err, "failed to load manifest")
	}
	abs, err := filepath.Abs(c.opts.ManifestPath)
	if err != nil {
		return nil, "", errors.WrapCompile(err, "failed to resolve manifest path")
	}
	return doc, filepath.Dir(abs), nil
}

// generate emits contract bindings per data source and ABI, then the schema.
func (c *Compiler) generate(doc *manifest.Document, baseDir string, art *Artifacts) error {
	genDir := filepath.Join(c.opts.OutputDir, GeneratedDir)

	for i, ds := range doc.DataSources {
		dsName := doc.DataSourceName(i)
		for _, ref := range ds.Mapping.ABIs {
			path, err := manifest.Resolve(baseDir, ref.File)
			if err != nil {
				return errors.WrapCompile(err, "failed to resolve ABI")
			}
			surface, err := abi.Load(path)
			if err != nil {
				return errors.WrapCompile(err, "failed to load ABI "+ref.Name)
			}
			gen, err := bindings.EmitContract(ref.Name, surface)
			if err != nil {
				return errors.WrapCompile(err, "failed to generate bindings for "+ref.Name)
			}
			source, err := gen.Render()
			if err != nil {
				return errors.WrapCompile(err, "failed to render bindings for "+ref.Name)
			}

			out := filepath.Join(genDir, dsName, ref.Name+".ts")
			if err := writeFile(out, []byte(source)); err != nil {
				return errors.WrapCompile(err, "failed to write bindings")
			}
			art.Generated = append(art.Generated, out)
			c.progress("Write bindings", out)
			c.logger.Debugw("Generated contract bindings",
				"data_source", dsName,
				"abi", ref.Name,
				"file", out)
		}
	}

	schemaPath, err := manifest.Resolve(baseDir, doc.Schema.File)
	if err != nil {
		return errors.WrapCompile(err, "failed to resolve schema")
	}
	surface, err := schema.Load(schemaPath)
	if err != nil {
		return errors.WrapCompile(err, "failed to load schema")
	}
	gen, err := bindings.EmitSchema(surface)
	if err != nil {
		return errors.WrapCompile(err, "failed to generate schema bindings")
	}
	source, err := gen.Render()
	if err != nil {
		return errors.WrapCompile(err, "failed to render schema bindings")
	}
	out := filepath.Join(genDir, "schema.ts")
	if err := writeFile(out, []byte(source)); err != nil {
		return errors.WrapCompile(err, "failed to write schema bindings")
	}
	art.Generated = append(art.Generated, out)
	c.progress("Write bindings", out)
	c.logger.Debugw("Generated schema bindings",
		"entities", len(surface.Entities),
		"file", out)
	return nil
}

// compileMappings runs the AssemblyScript compiler once per data source.
// Mappings of one build compile concurrently.
func (c *Compiler) compileMappings(ctx context.Context, doc *manifest.Document, baseDir string, art *Artifacts) error {
	if c.opts.AscCommand == "" {
		c.warn(art, "no AssemblyScript compiler configured, mappings were not compiled")
		return nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, ds := range doc.DataSources {
		dsName := doc.DataSourceName(i)
		mappingFile := ds.Mapping.File
		g.Go(func() error {
			src, err := manifest.Resolve(baseDir, mappingFile)
			if err != nil {
				return err
			}
			out := OutputPath(c.opts.OutputDir, dsName, src, c.opts.OutputFormat)
			if err := c.compileMapping(ctx, src, out, baseDir); err != nil {
				return errors.Wrapf(err, "data source %s", dsName)
			}
			mu.Lock()
			art.Binaries = append(art.Binaries, out)
			c.progress("Compile mapping", out)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.WrapCompile(err, "failed to compile mappings")
	}
	sort.Strings(art.Binaries)
	return nil
}

// OutputPath is where the compiled form of mapping src is written:
// <outputDir>/<dataSource>/<mapping basename>.<format>.
func OutputPath(outputDir, dataSource, src, format string) string {
	base := filepath.Base(src)
	base = base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(outputDir, dataSource, base+"."+format)
}
