// Package manifest loads subgraph manifests (subgraph.yaml).
//
// Only the structure needed to find build inputs is validated: the schema file,
// and for every data source its mapping file and ABI references. Everything else
// is carried through as written.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/teranos/subgraph/errors"
)

// Document is a parsed subgraph manifest.
type Document struct {
	SpecVersion string       `yaml:"specVersion,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Schema      Schema       `yaml:"schema"`
	DataSources []DataSource `yaml:"dataSources"`
}

// Schema points at the GraphQL entity schema.
type Schema struct {
	File string `yaml:"file"`
}

// DataSource is one contract the subgraph indexes.
type DataSource struct {
	Kind    string  `yaml:"kind,omitempty"`
	Name    string  `yaml:"name,omitempty"`
	Network string  `yaml:"network,omitempty"`
	Source  Source  `yaml:"source,omitempty"`
	Mapping Mapping `yaml:"mapping"`
}

// Source identifies the indexed contract.
type Source struct {
	Address string `yaml:"address,omitempty"`
	ABI     string `yaml:"abi,omitempty"`
}

// Mapping describes the handler code for a data source.
type Mapping struct {
	Kind          string         `yaml:"kind,omitempty"`
	APIVersion    string         `yaml:"apiVersion,omitempty"`
	Language      string         `yaml:"language,omitempty"`
	File          string         `yaml:"file"`
	Entities      []string       `yaml:"entities,omitempty"`
	ABIs          []ABI          `yaml:"abis"`
	EventHandlers []EventHandler `yaml:"eventHandlers,omitempty"`
}

// ABI is a named contract ABI file.
type ABI struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// EventHandler binds an event signature to a mapping function.
type EventHandler struct {
	Event   string `yaml:"event"`
	Handler string `yaml:"handler"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to read manifest %s", path),
			"pass the path to subgraph.yaml as the first argument")
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return doc, nil
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "malformed YAML"), errors.ErrManifest)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks that every field needed to locate build inputs is present.
// The error names the first missing field.
func (d *Document) Validate() error {
	if d.SpecVersion != "" {
		if _, err := semver.NewVersion(d.SpecVersion); err != nil {
			return errors.NewManifestError("specVersion %q is not a version", d.SpecVersion)
		}
	}
	if d.Schema.File == "" {
		return missing("schema.file")
	}
	if len(d.DataSources) == 0 {
		return missing("dataSources")
	}
	for i, ds := range d.DataSources {
		prefix := fmt.Sprintf("dataSources[%d].mapping", i)
		if ds.Mapping.File == "" {
			return missing(prefix + ".file")
		}
		if len(ds.Mapping.ABIs) == 0 {
			return missing(prefix + ".abis")
		}
		for j, abi := range ds.Mapping.ABIs {
			if abi.Name == "" {
				return missing(fmt.Sprintf("%s.abis[%d].name", prefix, j))
			}
			if abi.File == "" {
				return missing(fmt.Sprintf("%s.abis[%d].file", prefix, j))
			}
		}
	}
	return nil
}

func missing(field string) error {
	return errors.WithHint(
		errors.NewManifestError("missing required field %s", field),
		"see the subgraph manifest reference for the required shape")
}

// DataSourceName returns the data source name, falling back to its position.
func (d *Document) DataSourceName(i int) string {
	if name := d.DataSources[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("DataSource%d", i)
}

// Resolve joins a manifest-relative path onto baseDir and makes it absolute.
func Resolve(baseDir, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel), nil
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, rel))
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", rel)
	}
	return abs, nil
}
