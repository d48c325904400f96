package artifact

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
)

// InMemoryStore is a trivial in-process Store useful for tests and
// examples. Data is copied on save and retrieval. Recency is insertion
// order; saving an existing name makes it the most recent.
type InMemoryStore struct {
	mu     sync.RWMutex
	prefix string
	data   map[string][]byte
	order  []string
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty store publishing under /generated.
func NewInMemoryStore() *InMemoryStore {
	return NewInMemoryStoreWithPrefix("/generated")
}

// NewInMemoryStoreWithPrefix returns an empty store publishing under prefix.
func NewInMemoryStoreWithPrefix(prefix string) *InMemoryStore {
	return &InMemoryStore{
		prefix: "/" + strings.Trim(prefix, "/"),
		data:   make(map[string][]byte),
	}
}

func (s *InMemoryStore) publicPath(name string) string {
	return path.Join(s.prefix, name)
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	if _, exists := s.data[name]; exists {
		for i, n := range s.order {
			if n == name {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.data[name] = cp
	s.order = append(s.order, name)
	return s.publicPath(name), nil
}

// Get returns a copy of the stored bytes or ErrNotFound.
func (s *InMemoryStore) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the stored names, oldest first.
func (s *InMemoryStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Delete removes name or returns ErrNotFound.
func (s *InMemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[name]; !ok {
		return ErrNotFound
	}
	delete(s.data, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Latest implements Store.
func (s *InMemoryStore) Latest(pattern *regexp.Regexp) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		if pattern.MatchString(s.order[i]) {
			return s.publicPath(s.order[i])
		}
	}
	return ""
}

// Exists implements Store.
func (s *InMemoryStore) Exists(publicPath string) bool {
	dir, name := path.Split(publicPath)
	if path.Clean(dir) != s.prefix {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[name]
	return ok
}
