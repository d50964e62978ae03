package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patrickmn/go-cache"
)

// ErrUnavailable is returned when a catalog file is missing, unreadable or
// invalid.
var ErrUnavailable = errors.New("catalog unavailable")

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", path, ErrUnavailable, err)
	}
	return data, nil
}

// Store loads catalogs from a data directory and keeps them for the process
// lifetime. Failed loads are not cached.
type Store struct {
	dir   string
	cache *cache.Cache
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{
		dir:   dir,
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Path returns the location of a catalog file inside the data directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Pricing returns the pricing catalog.
func (s *Store) Pricing() (*Pricing, error) {
	return load(s, PricingFile, LoadPricing)
}

// Patterns returns the error pattern catalog.
func (s *Store) Patterns() (*Patterns, error) {
	return load(s, PatternsFile, LoadPatterns)
}

// StatusRegistry returns the status provider registry.
func (s *Store) StatusRegistry() (*StatusRegistry, error) {
	return load(s, StatusFile, LoadStatusRegistry)
}

func load[T any](s *Store, name string, loader func(string) (T, error)) (T, error) {
	if v, ok := s.cache.Get(name); ok {
		return v.(T), nil
	}
	v, err := loader(s.Path(name))
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(name, v, cache.NoExpiration)
	return v, nil
}
