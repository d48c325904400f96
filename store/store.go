// Package store provides the key/value config store used by the generation
// cache, plus the tag persistence used by the dream tools.
//
// Two implementations are available: InMemoryStore for tests and offline
// runs, and SQLStore over database/sql (sqlite or postgres).
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by tag lookups that match nothing.
var ErrNotFound = errors.New("store: not found")

// Store is a string key/value store. Set is an upsert.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Tag is one entry of the tag dictionary. Values are unique.
type Tag struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DreamTag links a tag to a dream record with a weight.
type DreamTag struct {
	ID        string    `json:"id"`
	DreamID   string    `json:"dreamId"`
	TagID     string    `json:"tagDictionaryId"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"createdAt"`
}

// WeightedTag is a tag as attached to a dream.
type WeightedTag struct {
	Tag
	Weight float64 `json:"weight"`
}
