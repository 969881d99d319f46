package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/subgraph/config"
)

// newRoot mirrors the graph root command for tests.
func newRoot(out *bytes.Buffer) *cobra.Command {
	root := &cobra.Command{
		Use:               "graph",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: Setup,
	}
	root.PersistentFlags().String("verbosity", "info", "")
	root.PersistentFlags().Bool("json", false, "")
	root.AddCommand(ConfigCmd)
	root.SetOut(out)
	root.SetErr(out)
	return root
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("IPFS_API", "")
	t.Chdir(dir)
	config.Reset()
	t.Cleanup(config.Reset)
	return dir
}

func TestConfigKeyFlags(t *testing.T) {
	inv := configKeyFlags()
	require.Len(t, inv, len(flagKeys))
	for flag, key := range flagKeys {
		assert.Equal(t, flag, inv[key])
	}
}

func TestRelative(t *testing.T) {
	dir := isolate(t)
	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("dist", "schema.graphql"), relative(filepath.Join(wd, "dist", "schema.graphql")))
	outside := filepath.Join(filepath.Dir(dir), "elsewhere", "x.ts")
	assert.Equal(t, outside, relative(outside))
}

func TestConfigInitAndGet(t *testing.T) {
	dir := isolate(t)

	var out bytes.Buffer
	root := newRoot(&out)
	root.SetArgs([]string{"config", "init"})
	require.NoError(t, root.Execute())
	assert.FileExists(t, filepath.Join(dir, config.ProjectConfigName))

	config.Reset()
	out.Reset()
	root.SetArgs([]string{"config", "get", "build.output_format"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "wasm", strings.TrimSpace(out.String()))

	config.Reset()
	root.SetArgs([]string{"config", "get", "build.nope"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.nope")
}

func TestConfigGetHonoursEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("IPFS_API", "localhost:5001")

	var out bytes.Buffer
	root := newRoot(&out)
	root.SetArgs([]string{"config", "get", "ipfs.address"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "localhost:5001", strings.TrimSpace(out.String()))
}

func TestConfigWhere(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectConfigName),
		[]byte("[build]\noutput_dir = \"out\"\n"), 0644))

	var out bytes.Buffer
	root := newRoot(&out)
	root.SetArgs([]string{"config", "where"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "[PROJECT]")
	assert.Contains(t, out.String(), config.ProjectConfigName)
}
