package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/subgraph/build"
	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/manifest"
)

// Notifier receives a trigger whenever a dependency of the build changes.
// build.Coordinator satisfies it.
type Notifier interface {
	Notify(build.Trigger)
}

// Watcher keeps fsnotify registrations in line with the manifest's WatchSet.
//
// Registrations are made per parent directory and reference counted, because
// editors commonly save by writing a temp file and renaming it over the
// original, which drops a watch held on the file itself. A directory is added
// when its first watched file appears and removed when its last one goes; paths
// that stay in the set are never re-registered.
//
// A path whose directory does not exist yet is held by its nearest existing
// ancestor instead. When a directory on the way to it is created the path is
// registered properly and, if the file itself already appeared, a build is
// triggered.
//
// The set and the counts are only mutated from Run (or before Run starts).
type Watcher struct {
	manifestPath string
	baseDir      string
	debounce     time.Duration

	fs     *fsnotify.Watcher
	notify Notifier
	logger *zap.SugaredLogger

	mu         sync.RWMutex
	set        WatchSet
	dirs       map[string]int    // directory -> number of watched paths inside it
	registered map[string]string // path -> directory it was counted against
	failed     map[string]bool   // paths whose directory could not be watched yet
	awaiting   map[string]string // failed path -> existing ancestor watched for it

	timerMu sync.Mutex
	timer   *time.Timer
}

// Options configures a Watcher.
type Options struct {
	// ManifestPath is the subgraph manifest; it is always watched.
	ManifestPath string

	// Debounce delays notifications so a burst of saves yields one trigger.
	// Zero notifies immediately.
	Debounce time.Duration
}

// New creates a watcher, registers the manifest and the files it references.
// A manifest that fails to load is logged and leaves the set empty; fixing the
// manifest on disk will populate it.
func New(opts Options, notify Notifier, logger *zap.SugaredLogger) (*Watcher, error) {
	manifestPath, err := filepath.Abs(opts.ManifestPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve manifest path %s", opts.ManifestPath)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		manifestPath: manifestPath,
		baseDir:      filepath.Dir(manifestPath),
		debounce:     opts.Debounce,
		fs:           fsw,
		notify:       notify,
		logger:       logger,
		dirs:         make(map[string]int),
		registered:   make(map[string]string),
		failed:       make(map[string]bool),
		awaiting:     make(map[string]string),
	}

	if !w.acquire(manifestPath) {
		fsw.Close()
		return nil, errors.NewFileSystemError("cannot watch manifest directory %s", w.baseDir)
	}

	if err := w.Reload(); err != nil {
		logger.Warnw("Initial manifest load failed, watching manifest only",
			"manifest", manifestPath,
			"error", err)
	}
	return w, nil
}

// ManifestPath returns the absolute manifest path.
func (w *Watcher) ManifestPath() string {
	return w.manifestPath
}

// Set returns the current WatchSet.
func (w *Watcher) Set() WatchSet {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.set
}

// Directories returns the directories currently registered with fsnotify, sorted.
func (w *Watcher) Directories() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// Reload re-reads the manifest, refreshes the WatchSet and applies the
// difference. On error the previous set is kept.
func (w *Watcher) Reload() error {
	doc, err := manifest.Load(w.manifestPath)
	if err != nil {
		// Still retry directories that could not be registered earlier.
		w.Apply(nil, nil)
		return err
	}

	next, added, removed, err := Refresh(w.Set(), doc, w.baseDir)
	if err != nil {
		w.Apply(nil, nil)
		return err
	}

	w.mu.Lock()
	w.set = next
	w.mu.Unlock()

	if len(added) > 0 || len(removed) > 0 {
		w.logger.Debugw("Watch set changed",
			"added", added,
			"removed", removed,
			"watched", next.Len())
	}
	w.Apply(added, removed)
	return nil
}

// Apply updates directory registrations: removed paths release their
// directory, added paths acquire theirs, and paths that failed to register on an
// earlier call are retried.
func (w *Watcher) Apply(added, removed []string) {
	for _, p := range removed {
		w.release(p)
	}
	for _, p := range added {
		w.acquire(p)
	}

	w.mu.RLock()
	var retry []string
	for p := range w.failed {
		if w.set.Contains(p) {
			retry = append(retry, p)
		}
	}
	w.mu.RUnlock()
	sort.Strings(retry)
	for _, p := range retry {
		w.acquire(p)
	}
}

// acquire counts path against its parent directory, registering the directory
// on the first reference. It reports whether the path is now covered. A path
// whose directory cannot be watched is held by its nearest existing ancestor.
func (w *Watcher) acquire(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.registered[path]; ok {
		return true
	}

	dir := filepath.Dir(path)
	if err := w.ref(dir); err != nil {
		if !w.failed[path] {
			w.logger.Warnw("Dependency directory not watchable yet",
				"path", path,
				"error", errors.NewFileSystemError("parent directory %s is not watchable: %v", dir, err))
		}
		w.failed[path] = true
		w.awaitAncestor(path)
		return false
	}

	w.registered[path] = dir
	delete(w.failed, path)
	w.stopAwaiting(path)
	return true
}

// awaitAncestor watches the nearest existing ancestor of path's directory so
// that creating the missing directories is observed. Callers hold mu.
func (w *Watcher) awaitAncestor(path string) {
	anc := filepath.Dir(filepath.Dir(path))
	for {
		if info, err := os.Stat(anc); err == nil && info.IsDir() {
			break
		}
		parent := filepath.Dir(anc)
		if parent == anc {
			return
		}
		anc = parent
	}

	if w.awaiting[path] == anc {
		return
	}
	if err := w.ref(anc); err != nil {
		w.logger.Warnw("Cannot watch dependency",
			"path", path,
			"error", errors.NewFileSystemError("no watchable ancestor directory: %v", err))
		return
	}
	w.stopAwaiting(path)
	w.awaiting[path] = anc
}

// stopAwaiting drops the ancestor reference held for path. Callers hold mu.
func (w *Watcher) stopAwaiting(path string) {
	if anc, ok := w.awaiting[path]; ok {
		delete(w.awaiting, path)
		w.unref(anc)
	}
}

// ref adds a reference to dir, registering it with fsnotify on the first one.
// Callers hold mu.
func (w *Watcher) ref(dir string) error {
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	return nil
}

// unref drops a reference to dir and unregisters it when unused. Callers hold mu.
func (w *Watcher) unref(dir string) {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.fs.Remove(dir); err != nil {
		w.logger.Debugw("Failed to remove directory watch",
			"dir", dir,
			"error", err)
	}
}

// release drops path's reference and unregisters the directory when unused.
// The manifest is never released.
func (w *Watcher) release(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.failed, path)
	w.stopAwaiting(path)
	if path == w.manifestPath {
		return
	}
	dir, ok := w.registered[path]
	if !ok {
		return
	}
	delete(w.registered, path)
	w.unref(dir)
}

// awaitedUnder returns the failed paths that lie below dir, sorted.
func (w *Watcher) awaitedUnder(dir string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	prefix := dir + string(filepath.Separator)
	var out []string
	for p := range w.failed {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// registeredPath reports whether path is covered by its own directory watch.
func (w *Watcher) registeredPath(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.registered[path]
	return ok
}

// Run processes file system events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Infow("Watching for changes",
		"manifest", w.manifestPath,
		"files", w.Set().Len())

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("File watcher error",
				"error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if path == w.manifestPath {
		if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
			return
		}
		if err := w.Reload(); err != nil {
			// The build reports manifest problems to the user, so still notify.
			w.logger.Warnw("Manifest reload failed, keeping previous watch set",
				"manifest", path,
				"error", err)
		}
		w.trigger(path, event.Op)
		return
	}

	if event.Has(fsnotify.Create) {
		if pending := w.awaitedUnder(path); len(pending) > 0 {
			w.directoryCreated(path, pending, event.Op)
			return
		}
	}

	if !w.Set().Contains(path) {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
		w.logger.Debugw("Dependency changed",
			"path", path,
			"op", event.Op.String())
		w.trigger(path, event.Op)
	}
}

// directoryCreated retries the dependencies waiting below dir. Files that were
// written before their directory watch took effect trigger a build right away.
func (w *Watcher) directoryCreated(dir string, pending []string, op fsnotify.Op) {
	w.Apply(nil, nil)

	for _, p := range pending {
		if !w.registeredPath(p) {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			w.logger.Debugw("Dependency appeared",
				"path", p,
				"dir", dir)
			w.trigger(p, op)
		}
	}
}

// trigger notifies immediately, or after the debounce period with the latest
// change when a debounce is configured.
func (w *Watcher) trigger(path string, op fsnotify.Op) {
	t := build.Trigger{Path: path, Op: op.String(), At: time.Now()}
	if w.debounce <= 0 {
		w.notify.Notify(t)
		return
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.notify.Notify(t)
	})
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.fs.Close()
}
