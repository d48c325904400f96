// Package cache persists the last generation in the config store and
// decides whether it is still fresh.
//
// A generation is fresh iff it is younger than StaleAfter and every
// non-empty asset path still exists. Anything missing or unparseable is
// stale.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/store"
)

// Config store keys.
const (
	KeyLastGenerated   = "lastGenerated"
	KeyLastDescription = "lastDescription"
	KeyLastAssets      = "lastAssets"
)

// DefaultStaleAfter is the freshness window.
const DefaultStaleAfter = 1800 * time.Second

// Decision reasons.
const (
	ReasonFresh            = "fresh"
	ReasonNeverGenerated   = "never generated"
	ReasonMissingTimestamp = "missing lastGenerated"
	ReasonInvalidTimestamp = "invalid lastGenerated"
	ReasonMissingAssets    = "missing lastAssets"
	ReasonExpired          = "expired"
	ReasonMissingAsset     = "missing asset"
)

// Checker reports whether a public path still exists. artifact.Store
// satisfies it.
type Checker interface {
	Exists(publicPath string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(publicPath string) bool

// Exists implements Checker.
func (f CheckerFunc) Exists(p string) bool { return f(p) }

// PersistenceError reports a failed config store write.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("cache: persist %s: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Decision is the derived staleness verdict. It is never stored.
type Decision struct {
	Stale  bool          `json:"stale"`
	Reason string        `json:"reason"`
	Age    time.Duration `json:"age"`
}

// Entry is the persisted generation plus its staleness verdict.
type Entry struct {
	// Manifest is nil when lastAssets is missing or unparseable.
	Manifest      *artifact.Manifest
	LastGenerated time.Time
	Decision      Decision
}

// Options configures a Cache.
type Options struct {
	StaleAfter time.Duration
	Now        func() time.Time
	Logger     logging.Logger
}

// Cache reads and writes the last generation.
type Cache struct {
	store  store.Store
	checker Checker
	opts   Options
	logger logging.Logger
}

// New creates a Cache. A nil checker treats every path as present.
func New(s store.Store, checker Checker, optFns ...func(o *Options)) *Cache {
	opts := Options{StaleAfter: DefaultStaleAfter, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if checker == nil {
		checker = CheckerFunc(func(string) bool { return true })
	}
	return &Cache{store: s, checker: checker, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Get returns a raw config value.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	return c.store.Get(ctx, key)
}

// Set writes a raw config value.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if err := c.store.Set(ctx, key, value); err != nil {
		return &PersistenceError{Key: key, Err: err}
	}
	return nil
}

// Save persists m with three sequential writes: timestamp, description,
// asset snapshot. The first failure is returned; earlier writes are not
// rolled back.
func (c *Cache) Save(ctx context.Context, m *artifact.Manifest) error {
	generatedAt := m.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = c.opts.Now()
	}

	assets, err := json.Marshal(m.Assets())
	if err != nil {
		return &PersistenceError{Key: KeyLastAssets, Err: err}
	}

	writes := []struct{ key, value string }{
		{KeyLastGenerated, FormatTimestamp(generatedAt)},
		{KeyLastDescription, m.Description},
		{KeyLastAssets, string(assets)},
	}
	for _, w := range writes {
		if err := c.Set(ctx, w.key, w.value); err != nil {
			c.logger.Error("cache.save.error", "key", w.key, "error", err.Error())
			return err
		}
	}

	c.logger.Info("cache.saved", "generated_at", generatedAt.Unix(), "assets", len(m.Assets().Paths()))
	return nil
}

// Load reads the last generation. It returns nil, nil when nothing has been
// generated yet.
func (c *Cache) Load(ctx context.Context) (*Entry, error) {
	rawTS, hasTS, err := c.store.Get(ctx, KeyLastGenerated)
	if err != nil {
		return nil, fmt.Errorf("cache: load %s: %w", KeyLastGenerated, err)
	}
	description, _, err := c.store.Get(ctx, KeyLastDescription)
	if err != nil {
		return nil, fmt.Errorf("cache: load %s: %w", KeyLastDescription, err)
	}
	rawAssets, hasAssets, err := c.store.Get(ctx, KeyLastAssets)
	if err != nil {
		return nil, fmt.Errorf("cache: load %s: %w", KeyLastAssets, err)
	}
	if !hasTS && !hasAssets {
		return nil, nil
	}

	e := &Entry{}

	ts, tsErr := ParseTimestamp(rawTS)
	if hasTS && tsErr == nil {
		e.LastGenerated = ts
	}

	var assets *artifact.Assets
	if hasAssets {
		var a artifact.Assets
		if err := json.Unmarshal([]byte(rawAssets), &a); err == nil {
			assets = &a
			e.Manifest = a.Manifest(description, e.LastGenerated)
		} else {
			c.logger.Warn("cache.assets.invalid", "error", err.Error())
		}
	}

	switch {
	case !hasTS:
		e.Decision = Decision{Stale: true, Reason: ReasonMissingTimestamp}
	case tsErr != nil:
		e.Decision = Decision{Stale: true, Reason: ReasonInvalidTimestamp}
	default:
		e.Decision = c.decide(ts, assets)
	}
	return e, nil
}

// Decide returns the staleness verdict for the stored generation.
func (c *Cache) Decide(ctx context.Context) (Decision, error) {
	e, err := c.Load(ctx)
	if err != nil {
		return Decision{}, err
	}
	if e == nil {
		return Decision{Stale: true, Reason: ReasonNeverGenerated}, nil
	}
	return e.Decision, nil
}

// IsStale reports whether a new generation is required.
func (c *Cache) IsStale(ctx context.Context) (bool, error) {
	d, err := c.Decide(ctx)
	if err != nil {
		return true, err
	}
	return d.Stale, nil
}

func (c *Cache) decide(generatedAt time.Time, assets *artifact.Assets) Decision {
	age := c.opts.Now().Sub(generatedAt)
	if assets == nil {
		return Decision{Stale: true, Reason: ReasonMissingAssets, Age: age}
	}
	if age >= c.opts.StaleAfter {
		return Decision{Stale: true, Reason: ReasonExpired, Age: age}
	}
	for _, p := range assets.Paths() {
		if !c.checker.Exists(p) {
			return Decision{Stale: true, Reason: ReasonMissingAsset + " " + p, Age: age}
		}
	}
	return Decision{Stale: false, Reason: ReasonFresh, Age: age}
}

// FormatTimestamp renders t as decimal epoch seconds with millisecond
// precision, e.g. "1700000000.123".
func FormatTimestamp(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMilli())/1000, 'f', -1, 64)
}

// ParseTimestamp parses decimal epoch seconds.
func ParseTimestamp(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("cache: invalid timestamp %q: %w", s, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("cache: invalid timestamp %q", s)
	}
	sec := math.Floor(f)
	return time.Unix(int64(sec), int64(math.Round((f-sec)*1e3))*int64(time.Millisecond)), nil
}
