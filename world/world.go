// Package world synthesizes a dream world from a text corpus: one
// description followed by five isolated artifact steps (background image,
// two floating images, video, music) that run concurrently.
//
// Only the description is fatal. Any artifact step failure, including an
// unsupported capability or a panic, falls back to the most recent stored
// artifact for that step, or "".
package world

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/jason-allen-oneal/dreamscape-ai/provider"
	"golang.org/x/sync/errgroup"
)

// EmptyCorpus is described when no records are available.
const EmptyCorpus = "No dreams found."

// ErrDescriptionFailed is returned when the description step fails.
var ErrDescriptionFailed = errors.New("world: description generation failed")

// Fallback patterns per step, matched against artifact base names.
var (
	BackgroundPattern = regexp.MustCompile(`(?i)^background\.[a-z0-9]+$`)
	Floating1Pattern  = regexp.MustCompile(`(?i)^floating1\.[a-z0-9]+$`)
	Floating2Pattern  = regexp.MustCompile(`(?i)^floating2\.[a-z0-9]+$`)
	VideoPattern      = regexp.MustCompile(`(?i)^video-\d+\.mp4$`)
	MusicPattern      = regexp.MustCompile(`(?i)^music\.[a-z0-9]+$`)
)

// Options configures a Generator.
type Options struct {
	// Concurrency bounds the number of artifact steps running at once.
	Concurrency int
	Logger      logging.Logger
	Now         func() time.Time
}

// Generator runs the synthesis pipeline.
type Generator struct {
	provider provider.Provider
	store    artifact.Store
	opts     Options
	logger   logging.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(p provider.Provider, store artifact.Store, optFns ...func(o *Options)) *Generator {
	opts := Options{Concurrency: 5, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{provider: p, store: store, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

type step struct {
	name     string
	pattern  *regexp.Regexp
	generate func(ctx context.Context, description string) (*model.Media, error)
	fileName func(m *model.Media) string
}

type stepResult struct {
	path      string
	recovered bool
}

// Synthesize runs the pipeline. The returned manifest is never nil when err
// is nil; it is always nil when the description fails.
func (g *Generator) Synthesize(ctx context.Context, corpus string, seeds []core.Blob) (*artifact.Manifest, error) {
	if strings.TrimSpace(corpus) == "" {
		corpus = EmptyCorpus
	}

	start := g.opts.Now()
	description, err := g.provider.Describe(ctx, corpus)
	if err != nil {
		g.logger.Error("world.description.error", "provider", g.provider.Name(), "error", err.Error())
		return nil, fmt.Errorf("%w: %w", ErrDescriptionFailed, err)
	}
	g.logger.Info("world.description.completed", "chars", len(description), "duration_ms", time.Since(start).Milliseconds())

	steps := g.steps(seeds)
	results := make([]stepResult, len(steps))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for i, s := range steps {
		eg.Go(func() error {
			results[i] = g.run(egCtx, s, description)
			return nil
		})
	}
	_ = eg.Wait()

	m := &artifact.Manifest{
		Description: description,
		Images:      [3]string{results[0].path, results[1].path, results[2].path},
		Video:       results[3].path,
		Music:       results[4].path,
		GeneratedAt: g.opts.Now(),
	}
	for i, r := range results {
		if r.recovered {
			m.Recovered = append(m.Recovered, steps[i].name)
		}
	}

	g.logger.Info("world.synthesis.completed",
		"recovered", len(m.Recovered),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return m, nil
}

func (g *Generator) steps(seeds []core.Blob) []step {
	seed := func(i int) *core.Blob {
		if i < len(seeds) && len(seeds[i].Data) > 0 {
			return &seeds[i]
		}
		return nil
	}
	image := func(kind provider.ImageKind, s *core.Blob) func(context.Context, string) (*model.Media, error) {
		return func(ctx context.Context, d string) (*model.Media, error) {
			return g.provider.GenerateImage(ctx, kind, d, s)
		}
	}
	named := func(base string) func(*model.Media) string {
		return func(m *model.Media) string { return base + "." + artifact.ExtensionForMIME(m.MIMEType) }
	}

	return []step{
		{name: artifact.StepBackground, pattern: BackgroundPattern, generate: image(provider.ImageBackground, nil), fileName: named("background")},
		{name: artifact.StepFloating1, pattern: Floating1Pattern, generate: image(provider.ImageFloating1, seed(0)), fileName: named("floating1")},
		{name: artifact.StepFloating2, pattern: Floating2Pattern, generate: image(provider.ImageFloating2, seed(1)), fileName: named("floating2")},
		{
			name:     artifact.StepVideo,
			pattern:  VideoPattern,
			generate: g.provider.GenerateVideo,
			fileName: func(*model.Media) string { return fmt.Sprintf("video-%d.mp4", g.opts.Now().UnixMilli()) },
		},
		{name: artifact.StepMusic, pattern: MusicPattern, generate: g.provider.GenerateMusic, fileName: named("music")},
	}
}

// run executes one isolated step. It never fails: errors and panics end in
// the fallback lookup.
func (g *Generator) run(ctx context.Context, s step, description string) (res stepResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("world.step.panic", "step", s.name, "recover", r, "stack", string(debug.Stack()))
			res = g.fallback(s, fmt.Errorf("panic: %v", r))
		}
	}()

	path, err := g.produce(ctx, s, description)
	if err != nil {
		return g.fallback(s, err)
	}

	logging.Artifact(g.logger, s.name, path, false, time.Since(start))
	return stepResult{path: path}
}

func (g *Generator) produce(ctx context.Context, s step, description string) (string, error) {
	media, err := s.generate(ctx, description)
	if err != nil {
		return "", err
	}
	if media == nil {
		return "", errors.New("no media returned")
	}
	if len(media.Data) == 0 {
		return "", errors.New("no media bytes returned")
	}
	return g.store.Save(ctx, s.fileName(media), media.Data)
}

func (g *Generator) fallback(s step, cause error) stepResult {
	path := g.store.Latest(s.pattern)
	level := g.logger.Warn
	if errors.Is(cause, core.ErrUnsupportedCapability) {
		level = g.logger.Info
	}
	level("world.step.fallback", "step", s.name, "fallback", path, "error", cause.Error())
	return stepResult{path: path, recovered: true}
}
