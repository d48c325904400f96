package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
)

// InMemoryStore is a volatile Store and tag store. It is safe for
// concurrent access and best suited for tests or ephemeral demo servers.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	tags   map[string]Tag // value -> tag
	links  []DreamTag

	// Fail, when set, is returned by every Set whose key it maps.
	Fail map[string]error
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[string]string),
		tags:   make(map[string]Tag),
	}
}

// Get implements Store.
func (s *InMemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements Store.
func (s *InMemoryStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Fail[key]; err != nil {
		return err
	}
	s.values[key] = value
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *InMemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UpsertTag returns the dictionary entry for value, creating it with
// tagType when missing.
func (s *InMemoryStore) UpsertTag(ctx context.Context, tagType, value string) (*Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tags[value]
	if !ok {
		t = Tag{ID: core.NewID(), Type: tagType, Value: value}
		s.tags[value] = t
	}
	return &t, nil
}

// LinkTag attaches tagID to dreamID.
func (s *InMemoryStore) LinkTag(ctx context.Context, dreamID, tagID string, weight float64) (*DreamTag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dt := DreamTag{ID: core.NewID(), DreamID: dreamID, TagID: tagID, Weight: weight, CreatedAt: time.Now().UTC()}
	s.links = append(s.links, dt)
	return &dt, nil
}

// DreamTags returns the tags linked to dreamID in link order.
func (s *InMemoryStore) DreamTags(ctx context.Context, dreamID string) ([]WeightedTag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]Tag, len(s.tags))
	for _, t := range s.tags {
		byID[t.ID] = t
	}

	var out []WeightedTag
	for _, l := range s.links {
		if l.DreamID != dreamID {
			continue
		}
		if t, ok := byID[l.TagID]; ok {
			out = append(out, WeightedTag{Tag: t, Weight: l.Weight})
		}
	}
	return out, nil
}
