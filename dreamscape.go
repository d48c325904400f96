// Package dreamscape is the application façade. It ties a resolved
// provider to the world generator, the generation cache and the dream
// agents. Most callers:
//  1. Resolve a provider once (provider.New) and create a Dreamscape via New
//  2. Call World for the staleness-gated synthesis, or SynthesizeWorld to force one
//  3. Use RunAgent, Classify and Analyze for the per-dream agents
package dreamscape

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/cache"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/dreams"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/provider"
	"github.com/jason-allen-oneal/dreamscape-ai/store"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
	"github.com/jason-allen-oneal/dreamscape-ai/world"
)

// ErrNoProvider is returned by New when Options.Provider is nil.
var ErrNoProvider = errors.New("dreamscape: provider is required")

// Options configures a Dreamscape.
type Options struct {
	// Provider is the resolved generation backend. Required.
	Provider provider.Provider

	// Artifacts holds generated files (defaults to an in-memory store).
	Artifacts artifact.Store

	// Store holds the cache keys (defaults to an in-memory store).
	Store store.Store

	// Tags persists classification tags. When nil and Store implements
	// dreams.TagStore, Store is used.
	Tags dreams.TagStore

	// StaleAfter is the cache freshness window.
	StaleAfter time.Duration

	// Concurrency bounds parallel artifact steps.
	Concurrency int

	// PublicRoot is where record media URLs resolve for seed images.
	PublicRoot string

	// SeedImages is the number of seed images picked from records.
	SeedImages int

	// Rand shuffles seed candidates. Nil uses a time-seeded source. The
	// Dreamscape serializes its use; callers must not share it elsewhere.
	Rand *rand.Rand

	Logger logging.Logger
	Now    func() time.Time
}

// Dreamscape is the high-level façade.
type Dreamscape struct {
	opts      Options
	provider  provider.Provider
	generator *world.Generator
	cache     *cache.Cache
	tags      dreams.TagStore
	logger    logging.Logger

	rngMu sync.Mutex // guards opts.Rand
}

// New creates a Dreamscape. Unset stores default to in-memory
// implementations.
func New(optFns ...func(o *Options)) (*Dreamscape, error) {
	opts := Options{
		StaleAfter:  cache.DefaultStaleAfter,
		Concurrency: 5,
		PublicRoot:  "public",
		SeedImages:  2,
		Now:         time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Provider == nil {
		return nil, ErrNoProvider
	}
	if opts.Artifacts == nil {
		opts.Artifacts = artifact.NewInMemoryStore()
	}
	if opts.Store == nil {
		opts.Store = store.NewInMemoryStore()
	}
	if opts.Tags == nil {
		if ts, ok := opts.Store.(dreams.TagStore); ok {
			opts.Tags = ts
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(opts.Now().UnixNano()))
	}

	logger := logging.OrNoOp(opts.Logger)

	return &Dreamscape{
		opts:     opts,
		provider: opts.Provider,
		generator: world.NewGenerator(opts.Provider, opts.Artifacts, func(o *world.Options) {
			o.Concurrency = opts.Concurrency
			o.Logger = logger
			o.Now = opts.Now
		}),
		cache: cache.New(opts.Store, opts.Artifacts, func(o *cache.Options) {
			o.StaleAfter = opts.StaleAfter
			o.Logger = logger
			o.Now = opts.Now
		}),
		tags:   opts.Tags,
		logger: logger,
	}, nil
}

// Provider returns the resolved backend.
func (d *Dreamscape) Provider() provider.Provider { return d.provider }

// Cache returns the generation cache.
func (d *Dreamscape) Cache() *cache.Cache { return d.cache }

// RunAgent executes a with prompt on the provider.
func (d *Dreamscape) RunAgent(ctx context.Context, a *agent.Agent, prompt string) (*provider.Result, error) {
	return d.provider.Execute(ctx, a, prompt)
}

// SynthesizeWorld generates a new world and records it in the cache. A
// description failure returns the error and writes nothing. A cache write
// failure returns the manifest together with a *cache.PersistenceError.
func (d *Dreamscape) SynthesizeWorld(ctx context.Context, corpus string, seeds []core.Blob) (*artifact.Manifest, error) {
	m, err := d.generator.Synthesize(ctx, corpus, seeds)
	if err != nil {
		return nil, err
	}
	if err := d.cache.Save(ctx, m); err != nil {
		return m, err
	}
	return m, nil
}

// CachedManifest returns the last generation with its staleness decision,
// or nil when nothing was generated yet.
func (d *Dreamscape) CachedManifest(ctx context.Context) (*cache.Entry, error) {
	return d.cache.Load(ctx)
}

// World returns the cached manifest when it is fresh and force is false,
// otherwise it synthesizes a new one. The bool reports whether a new
// generation ran.
func (d *Dreamscape) World(ctx context.Context, corpus string, seeds []core.Blob, force bool) (*artifact.Manifest, bool, error) {
	if !force {
		entry, err := d.cache.Load(ctx)
		if err != nil {
			d.logger.Warn("world.cache.load.error", "error", err.Error())
		} else if entry != nil && !entry.Decision.Stale && entry.Manifest != nil {
			d.logger.Debug("world.cache.hit", "age", entry.Decision.Age.String())
			return entry.Manifest, false, nil
		} else if entry != nil {
			d.logger.Info("world.cache.stale", "reason", entry.Decision.Reason)
		}
	}

	m, err := d.SynthesizeWorld(ctx, corpus, seeds)
	return m, true, err
}

// WorldFromRecords builds the corpus and seed images from records and
// calls World.
func (d *Dreamscape) WorldFromRecords(ctx context.Context, records []dreams.Record, force bool) (*artifact.Manifest, bool, error) {
	corpus := dreams.BuildCorpus(records)

	d.rngMu.Lock()
	seeds := dreams.SeedImages(records, d.opts.PublicRoot, d.opts.SeedImages, d.opts.Rand)
	d.rngMu.Unlock()

	return d.World(ctx, corpus, seeds, force)
}

// Classify runs the classifier agent over rawText. When dreamID is set and
// a tag store is configured, the createTag tool is attached and every
// parsed tag is persisted for dreamID. Unparseable output yields the
// default classification.
func (d *Dreamscape) Classify(ctx context.Context, rawText, dreamID string) (*dreams.Classification, *provider.Result, error) {
	var tools []tool.Tool
	persist := dreamID != "" && d.tags != nil
	if persist {
		createTag, err := dreams.NewCreateTagTool(d.tags)
		if err != nil {
			return nil, nil, err
		}
		tools = append(tools, createTag)
	}

	res, err := d.RunAgent(ctx, dreams.NewClassifierAgent(tools...), rawText)
	if err != nil {
		return nil, nil, fmt.Errorf("dreamscape: classify: %w", err)
	}

	c, perr := dreams.ParseClassification(res.FinalOutput)
	if perr != nil {
		d.logger.Warn("dreams.classify.parse.error", "error", perr.Error())
	}

	if persist {
		if err := dreams.PersistTags(ctx, d.tags, dreamID, c.Tags); err != nil {
			return &c, res, fmt.Errorf("dreamscape: persist tags: %w", err)
		}
	}
	return &c, res, nil
}

// Analyze runs the analyst agent over r and returns the markdown analysis.
func (d *Dreamscape) Analyze(ctx context.Context, r dreams.Record) (string, error) {
	res, err := d.RunAgent(ctx, dreams.NewAnalystAgent(), dreams.AnalysisPrompt(r))
	if err != nil {
		return "", fmt.Errorf("dreamscape: analyze: %w", err)
	}
	return res.FinalOutput, nil
}

// Status summarizes the cached generation.
type Status struct {
	LastGenerated   *time.Time       `json:"lastGenerated"`
	LastDescription string           `json:"lastDescription"`
	LastAssets      *artifact.Assets `json:"lastAssets"`
	Stale           bool             `json:"stale"`
	Reason          string           `json:"reason"`
}

// Status reports the cached generation and its staleness.
func (d *Dreamscape) Status(ctx context.Context) (*Status, error) {
	entry, err := d.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &Status{Stale: true, Reason: cache.ReasonNeverGenerated}, nil
	}

	st := &Status{Stale: entry.Decision.Stale, Reason: entry.Decision.Reason}
	if !entry.LastGenerated.IsZero() {
		ts := entry.LastGenerated
		st.LastGenerated = &ts
	}
	if entry.Manifest != nil {
		st.LastDescription = entry.Manifest.Description
		assets := entry.Manifest.Assets()
		st.LastAssets = &assets
	}
	return st, nil
}
