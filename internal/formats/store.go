// Package formats provides a named store of format definitions backed by
// a directory of YAML files. Parsed definitions are memoized in an
// expiring LRU cache so repeated lookups do not re-read and re-parse the
// file, while edits to a definition are picked up after the TTL.
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/verdata/tabular/internal/fileformat"
)

// ErrNotFound is returned when no definition file exists for a name.
var ErrNotFound = errors.New("format not found")

// Store loads format definitions by name from a directory. A format named
// "orders" lives in <dir>/orders.yml (or .yaml).
type Store struct {
	dir   string
	cache *expirable.LRU[string, *fileformat.FileFormat]
}

// NewStore creates a store over dir keeping at most cacheSize parsed
// definitions for up to ttl each.
func NewStore(dir string, cacheSize int, ttl time.Duration) *Store {
	return &Store{
		dir:   dir,
		cache: expirable.NewLRU[string, *fileformat.FileFormat](cacheSize, nil, ttl),
	}
}

// Names lists the available format names, sorted.
func (s *Store) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing formats in %s: %w", s.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, strings.TrimSuffix(e.Name(), ext))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get returns the format definition for name, reading and parsing its
// file on a cache miss.
func (s *Store) Get(name string) (*fileformat.FileFormat, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if f, ok := s.cache.Get(name); ok {
		return f, nil
	}

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := fileformat.FromFile(path)
	if err != nil {
		return nil, err
	}
	s.cache.Add(name, f)
	return f, nil
}

// Invalidate drops any cached definition for name, forcing the next Get
// to re-read the file.
func (s *Store) Invalidate(name string) {
	s.cache.Remove(name)
}

func (s *Store) resolve(name string) (string, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// validName rejects names that could escape the store directory.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}
