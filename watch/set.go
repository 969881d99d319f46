// Package watch derives the set of files a build depends on from the manifest
// and keeps file system watches registered for exactly that set.
package watch

import (
	"sort"

	"github.com/teranos/subgraph/errors"
	"github.com/teranos/subgraph/manifest"
)

// WatchSet is an immutable set of absolute, cleaned file paths.
// The zero value is the empty set.
type WatchSet struct {
	paths map[string]struct{}
}

// NewWatchSet builds a set from already-resolved paths.
func NewWatchSet(paths ...string) WatchSet {
	s := WatchSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.paths[p] = struct{}{}
	}
	return s
}

// Contains reports whether path is in the set.
func (s WatchSet) Contains(path string) bool {
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of paths.
func (s WatchSet) Len() int {
	return len(s.paths)
}

// Paths returns the members in sorted order.
func (s WatchSet) Paths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Discover returns every file the build reads: the schema, each mapping file and
// each ABI file, resolved against baseDir. Files are not required to exist.
func Discover(doc *manifest.Document, baseDir string) (WatchSet, error) {
	if doc == nil {
		return WatchSet{}, errors.NewManifestError("no manifest document")
	}
	if err := doc.Validate(); err != nil {
		return WatchSet{}, err
	}

	rels := []string{doc.Schema.File}
	for _, ds := range doc.DataSources {
		rels = append(rels, ds.Mapping.File)
		for _, abi := range ds.Mapping.ABIs {
			rels = append(rels, abi.File)
		}
	}

	set := WatchSet{paths: make(map[string]struct{}, len(rels))}
	for _, rel := range rels {
		abs, err := manifest.Resolve(baseDir, rel)
		if err != nil {
			return WatchSet{}, err
		}
		set.paths[abs] = struct{}{}
	}
	return set, nil
}

// Refresh recomputes the set for doc and reports the difference against old.
// added and removed are sorted. On error old is returned unchanged.
func Refresh(old WatchSet, doc *manifest.Document, baseDir string) (next WatchSet, added, removed []string, err error) {
	next, err = Discover(doc, baseDir)
	if err != nil {
		return old, nil, nil, err
	}
	added, removed = Diff(old, next)
	return next, added, removed, nil
}

// Diff returns the paths only in next (added) and only in old (removed), sorted.
func Diff(old, next WatchSet) (added, removed []string) {
	for p := range next.paths {
		if !old.Contains(p) {
			added = append(added, p)
		}
	}
	for p := range old.paths {
		if !next.Contains(p) {
			removed = append(removed, p)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
