package compiler

import (
	"io"
	"os"
	"path/filepath"

	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/manifest"
)

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(dst))
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dst)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "failed to copy %s", src)
	}
	return nil
}

// copyInputs places the manifest, schema and ABIs in the output directory so
// the artifact set is self-contained. ABIs go under their data source.
func (c *Compiler) copyInputs(doc *manifest.Document, baseDir string, art *Artifacts) error {
	type copyJob struct{ src, dst string }
	jobs := []copyJob{{
		src: c.opts.ManifestPath,
		dst: filepath.Join(c.opts.OutputDir, filepath.Base(c.opts.ManifestPath)),
	}}

	schemaPath, err := manifest.Resolve(baseDir, doc.Schema.File)
	if err != nil {
		return errors.WrapCompile(err, "failed to resolve schema")
	}
	jobs = append(jobs, copyJob{schemaPath, filepath.Join(c.opts.OutputDir, filepath.Base(schemaPath))})

	for i, ds := range doc.DataSources {
		dsName := doc.DataSourceName(i)
		for _, ref := range ds.Mapping.ABIs {
			path, err := manifest.Resolve(baseDir, ref.File)
			if err != nil {
				return errors.WrapCompile(err, "failed to resolve ABI")
			}
			jobs = append(jobs, copyJob{path, filepath.Join(c.opts.OutputDir, dsName, filepath.Base(path))})
		}
	}

	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if seen[j.dst] {
			continue
		}
		seen[j.dst] = true
		if err := copyFile(j.src, j.dst); err != nil {
			return errors.WrapCompile(err, "failed to copy build inputs")
		}
		art.Copied = append(art.Copied, j.dst)
		c.progress("Copy", j.dst)
	}
	return nil
}
