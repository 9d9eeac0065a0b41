// Package cache implements the on-disk store for raw fetched page content.
// Entries are write-once and never expire: the presence of a file is the
// cache-hit signal, and cached content is treated as permanent evidence of
// a prior retrieval.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/tune-scout/internal/storage"
)

// Namespaces separate the two kinds of cached pages.
const (
	NamespaceSearch = "search_results"
	NamespaceTune   = "tune_pages"
)

// Store is a content-addressed blob store rooted at a single directory.
// Keys must already be filesystem-safe (see hymnary.SafeKey); each entry
// lives at <root>/<namespace>/<key>.html.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory tree is created
// lazily on first Put.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Get returns the cached content for (namespace, key), with ok reporting
// whether an entry exists.
func (s *Store) Get(namespace, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.entryPath(namespace, key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s/%s: %w", namespace, key, err)
	}
	return data, true, nil
}

// Has reports whether an entry exists without reading it.
func (s *Store) Has(namespace, key string) bool {
	_, err := os.Stat(s.entryPath(namespace, key))
	return err == nil
}

// Put stores content under (namespace, key). The write is atomic: a crash
// mid-write leaves no partially written entry observable as present.
// Existing entries are overwritten with identical semantics, but callers
// only ever write an entry once.
func (s *Store) Put(namespace, key string, content []byte) error {
	path := s.entryPath(namespace, key)
	if err := storage.WriteFileAtomic(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) entryPath(namespace, key string) string {
	return filepath.Join(s.root, namespace, key+".html")
}
