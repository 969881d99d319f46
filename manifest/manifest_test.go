package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/subgraph/errors"
)

const example = `specVersion: 0.0.1
schema:
  file: schema.graphql
dataSources:
  - kind: ethereum/contract
    name: ExampleSubgraph
    source:
      abi: ExampleContract
    mapping:
      kind: ethereum/events
      apiVersion: 0.0.1
      language: wasm/assemblyscript
      file: mapping.ts
      entities:
        - ExampleEntity
      abis:
        - name: ExampleContract
          file: abi/Example.json
      eventHandlers:
        - event: ExampleEvent(string)
          handler: handleExampleEvent
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(example))
	require.NoError(t, err)

	assert.Equal(t, "schema.graphql", doc.Schema.File)
	require.Len(t, doc.DataSources, 1)
	ds := doc.DataSources[0]
	assert.Equal(t, "ExampleSubgraph", ds.Name)
	assert.Equal(t, "mapping.ts", ds.Mapping.File)
	assert.Equal(t, []ABI{{Name: "ExampleContract", File: "abi/Example.json"}}, ds.Mapping.ABIs)
	assert.Equal(t, "handleExampleEvent", ds.Mapping.EventHandlers[0].Handler)
	assert.Equal(t, "ExampleSubgraph", doc.DataSourceName(0))
}

func TestParse_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "schema file",
			yaml:  "dataSources: [{mapping: {file: m.ts, abis: [{name: A, file: a.json}]}}]",
			field: "schema.file",
		},
		{
			name:  "data sources",
			yaml:  "schema: {file: s.graphql}",
			field: "dataSources",
		},
		{
			name:  "mapping file",
			yaml:  "schema: {file: s.graphql}\ndataSources: [{mapping: {abis: [{name: A, file: a.json}]}}]",
			field: "dataSources[0].mapping.file",
		},
		{
			name:  "abis",
			yaml:  "schema: {file: s.graphql}\ndataSources: [{mapping: {file: m.ts}}]",
			field: "dataSources[0].mapping.abis",
		},
		{
			name:  "abi file in second source",
			yaml:  "schema: {file: s.graphql}\ndataSources: [{mapping: {file: m.ts, abis: [{name: A, file: a.json}]}}, {mapping: {file: n.ts, abis: [{name: A, file: a.json}, {name: B}]}}]",
			field: "dataSources[1].mapping.abis[1].file",
		},
		{
			name:  "abi name",
			yaml:  "schema: {file: s.graphql}\ndataSources: [{mapping: {file: m.ts, abis: [{file: a.json}]}}]",
			field: "dataSources[0].mapping.abis[0].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsManifestError(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("schema: [unclosed"))
	require.Error(t, err)
	assert.True(t, errors.IsManifestError(err))
}

func TestParse_SpecVersion(t *testing.T) {
	_, err := Parse([]byte("specVersion: not-a-version\nschema: {file: s.graphql}\ndataSources: [{mapping: {file: m.ts, abis: [{name: A, file: a.json}]}}]"))
	require.Error(t, err)
	assert.True(t, errors.IsManifestError(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(example), 0644))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", doc.SpecVersion)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.False(t, errors.IsManifestError(err))
}

func TestDataSourceName_Fallback(t *testing.T) {
	doc := &Document{DataSources: []DataSource{{}, {Name: "Named"}}}
	assert.Equal(t, "DataSource0", doc.DataSourceName(0))
	assert.Equal(t, "Named", doc.DataSourceName(1))
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	got, err := Resolve(base, "abi/../abi/Example.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "abi", "Example.json"), got)

	abs := filepath.Join(base, "x.ts")
	got, err = Resolve("/elsewhere", abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)
}
