package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/subgraph/build"
)

type recordingNotifier struct {
	mu       sync.Mutex
	triggers []build.Trigger
}

func (r *recordingNotifier) Notify(t build.Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)
}

func (r *recordingNotifier) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.triggers))
	for i, t := range r.triggers {
		out[i] = t.Path
	}
	return out
}

func (r *recordingNotifier) count(path string) int {
	n := 0
	for _, p := range r.paths() {
		if p == path {
			n++
		}
	}
	return n
}

func (r *recordingNotifier) saw(path string) bool {
	for _, p := range r.paths() {
		if p == path {
			return true
		}
	}
	return false
}

const manifestTemplate = `specVersion: 0.0.1
schema:
  file: ./schema.graphql
dataSources:
  - name: Example
    mapping:
      file: ./src/mapping.ts
      abis:
        - name: ExampleContract
          file: %s
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeManifest(t *testing.T, dir, abiFile string) string {
	t.Helper()
	path := filepath.Join(dir, "subgraph.yaml")
	writeFile(t, path, fmt.Sprintf(manifestTemplate, abiFile))
	return path
}

func newTestWatcher(t *testing.T, manifestPath string) (*Watcher, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	w, err := New(Options{ManifestPath: manifestPath}, n, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, n
}

func TestWatcher_RegistersParentDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "mapping.ts"), "")
	writeFile(t, filepath.Join(dir, "abis", "Example.json"), "[]")
	manifestPath := writeManifest(t, dir, "./abis/Example.json")

	w, _ := newTestWatcher(t, manifestPath)

	assert.Equal(t, []string{
		filepath.Join(dir, "abis", "Example.json"),
		filepath.Join(dir, "schema.graphql"),
		filepath.Join(dir, "src", "mapping.ts"),
	}, w.Set().Paths())
	assert.Equal(t, []string{
		dir,
		filepath.Join(dir, "abis"),
		filepath.Join(dir, "src"),
	}, w.Directories())
	assert.ElementsMatch(t, w.Directories(), w.fs.WatchList())
}

func TestWatcher_ApplyIsIncremental(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"a", "b", "c"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, sub), 0o755))
	}
	manifestPath := writeManifest(t, dir, "./a/Example.json")
	w, _ := newTestWatcher(t, manifestPath)

	a := filepath.Join(dir, "a", "x.json")
	b := filepath.Join(dir, "b", "x.json")
	c := filepath.Join(dir, "c", "x.json")

	w.Apply([]string{a, b}, nil)
	bDir := w.registered[b]
	require.Equal(t, filepath.Join(dir, "b"), bDir)
	assert.Equal(t, 1, w.dirs[bDir])

	w.Apply([]string{c}, []string{a})
	assert.Equal(t, 1, w.dirs[bDir], "b's registration is untouched")
	assert.Equal(t, 1, w.dirs[filepath.Join(dir, "c")])
	// a/Example.json from the manifest still holds the a directory.
	assert.Equal(t, 1, w.dirs[filepath.Join(dir, "a")])
	assert.NotContains(t, w.registered, a)
}

func TestWatcher_ManifestAlwaysWatched(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./abis/Example.json")
	w, _ := newTestWatcher(t, manifestPath)

	w.release(manifestPath)
	assert.Contains(t, w.registered, manifestPath)
	assert.Contains(t, w.Directories(), dir)
}

func TestWatcher_MissingDirectoryRetried(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./abis/Example.json")
	abiPath := filepath.Join(dir, "abis", "Example.json")

	w, _ := newTestWatcher(t, manifestPath)
	assert.True(t, w.Set().Contains(abiPath), "missing files stay in the set")
	assert.True(t, w.failed[abiPath])
	assert.Equal(t, dir, w.awaiting[abiPath], "held by the nearest existing ancestor")
	assert.NotContains(t, w.Directories(), filepath.Join(dir, "abis"))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "abis"), 0o755))
	require.NoError(t, w.Reload())
	assert.False(t, w.failed[abiPath])
	assert.NotContains(t, w.awaiting, abiPath)
	assert.Contains(t, w.Directories(), filepath.Join(dir, "abis"))
}

func TestWatcher_RunObservesFileInNewDirectory(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./abis/Example.json")
	abiPath := filepath.Join(dir, "abis", "Example.json")
	w, n := newTestWatcher(t, manifestPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeFile(t, abiPath, "[]")
	require.Eventually(t, func() bool { return n.saw(abiPath) }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return w.registeredPath(abiPath) }, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, w.Directories(), filepath.Join(dir, "abis"))

	before := n.count(abiPath)
	writeFile(t, abiPath, `[{"type":"event","name":"Transfer","inputs":[]}]`)
	require.Eventually(t, func() bool { return n.count(abiPath) > before }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_NestedMissingDirectories(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./abis/v1/Example.json")
	abiPath := filepath.Join(dir, "abis", "v1", "Example.json")
	w, n := newTestWatcher(t, manifestPath)
	require.Equal(t, dir, w.awaiting[abiPath])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "abis"), 0o755))
	require.Eventually(t, func() bool {
		w.mu.RLock()
		defer w.mu.RUnlock()
		return w.awaiting[abiPath] == filepath.Join(dir, "abis")
	}, 5*time.Second, 20*time.Millisecond)

	writeFile(t, abiPath, "[]")
	require.Eventually(t, func() bool { return n.saw(abiPath) }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_ReleaseDropsAncestorWatch(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./Example.json")
	w, _ := newTestWatcher(t, manifestPath)
	require.Equal(t, dir, w.awaiting[filepath.Join(dir, "src", "mapping.ts")])

	outside := t.TempDir()
	missing := filepath.Join(outside, "a", "b", "x.json")
	w.Apply([]string{missing}, nil)
	assert.Equal(t, outside, w.awaiting[missing])
	assert.Contains(t, w.Directories(), outside)

	w.Apply(nil, []string{missing})
	assert.NotContains(t, w.awaiting, missing)
	assert.NotContains(t, w.Directories(), outside)
}

func TestWatcher_InvalidManifestKeepsSet(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./Example.json")
	w, _ := newTestWatcher(t, manifestPath)
	before := w.Set().Paths()

	writeFile(t, manifestPath, "schema:\n  file: ./schema.graphql\n")
	require.Error(t, w.Reload())
	assert.Equal(t, before, w.Set().Paths())
}

func TestWatcher_RunNotifiesOnDependencyChange(t *testing.T) {
	dir := t.TempDir()
	mapping := filepath.Join(dir, "src", "mapping.ts")
	writeFile(t, mapping, "")
	manifestPath := writeManifest(t, dir, "./Example.json")
	w, n := newTestWatcher(t, manifestPath)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, filepath.Join(dir, "src", "unrelated.ts"), "x")
	writeFile(t, mapping, "export function handle(): void {}")

	require.Eventually(t, func() bool { return n.saw(mapping) }, 5*time.Second, 20*time.Millisecond)
	assert.False(t, n.saw(filepath.Join(dir, "src", "unrelated.ts")))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}
}

func TestWatcher_RunRefreshesOnManifestChange(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./abis/A.json")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "abis"), 0o755))
	w, n := newTestWatcher(t, manifestPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	writeManifest(t, dir, "./abis/B.json")

	require.Eventually(t, func() bool {
		return n.saw(manifestPath) && w.Set().Contains(filepath.Join(dir, "abis", "B.json"))
	}, 5*time.Second, 20*time.Millisecond)
	assert.False(t, w.Set().Contains(filepath.Join(dir, "abis", "A.json")))
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, "./Example.json")
	n := &recordingNotifier{}
	w, err := New(Options{ManifestPath: manifestPath, Debounce: 50 * time.Millisecond}, n, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		w.trigger(manifestPath, 0)
	}
	require.Eventually(t, func() bool { return len(n.paths()) == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, n.paths(), 1)
}
