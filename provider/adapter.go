package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/flow"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
)

// Options configures an Adapter.
type Options struct {
	// CallTimeout bounds every backend call. Zero disables the bound.
	CallTimeout time.Duration
	// Retry is applied to every backend call. Nil disables retries.
	Retry *RetryPolicy
	// MaxIterations is the conversation loop send cap.
	MaxIterations int
	// MaxParallelTools bounds concurrent tool calls within one turn.
	MaxParallelTools int
	Logger           logging.Logger
}

// Adapter implements Provider over a single model.Model.
type Adapter struct {
	model  model.Model
	opts   Options
	logger logging.Logger
}

var _ Provider = (*Adapter)(nil)

// NewAdapter wraps m.
func NewAdapter(m model.Model, optFns ...func(o *Options)) *Adapter {
	opts := Options{
		CallTimeout:      5 * time.Minute,
		Retry:            DefaultRetryPolicy(),
		MaxIterations:    flow.DefaultMaxIterations,
		MaxParallelTools: 1,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Adapter{model: m, opts: opts, logger: logging.OrNoOp(opts.Logger)}
}

// Name implements Provider.
func (a *Adapter) Name() string { return a.model.Info().Provider }

// Capabilities implements Provider.
func (a *Adapter) Capabilities() []core.Capability { return a.model.Info().Capabilities }

// Model returns the wrapped model.
func (a *Adapter) Model() model.Model { return a.model }

func (a *Adapter) require(c core.Capability) error {
	if !a.model.Info().Supports(c) {
		return core.NewCapabilityError(a.Name(), c)
	}
	return nil
}

// Execute implements Provider.
func (a *Adapter) Execute(ctx context.Context, ag *agent.Agent, prompt string) (*Result, error) {
	if ag == nil {
		return nil, errors.New("provider: nil agent")
	}
	if err := a.require(core.CapabilityText); err != nil {
		return nil, err
	}

	registry, err := ag.Registry()
	if err != nil {
		return nil, err
	}

	loop := flow.NewLoop(a.bounded(), registry, func(o *flow.LoopOptions) {
		o.Instructions = ag.Instructions()
		o.MaxIterations = a.opts.MaxIterations
		o.Logger = a.opts.Logger
		o.Executor = flow.NewParallelFunctionExecutor(flow.FunctionExecutorConfig{
			MaxParallel: a.opts.MaxParallelTools,
			Logger:      a.opts.Logger,
		})
	})

	start := time.Now()
	res, err := loop.Run(ctx, prompt)
	if err != nil {
		a.logger.Error("provider.execute.error", "provider", a.Name(), "agent", ag.Name(), "error", err.Error())
		return nil, fmt.Errorf("%s: execute %s: %w", a.Name(), ag.Name(), err)
	}

	a.logger.Info("provider.execute.completed",
		"provider", a.Name(),
		"agent", ag.Name(),
		"sends", res.Sends,
		"tool_calls", len(res.ToolCalls),
		"cap_reached", res.CapReached,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		FinalOutput: res.FinalOutput,
		ToolCalls:   res.ToolCalls,
		Sends:       res.Sends,
		CapReached:  res.CapReached,
	}, nil
}

// Describe implements Provider.
func (a *Adapter) Describe(ctx context.Context, corpus string) (string, error) {
	if err := a.require(core.CapabilityText); err != nil {
		return "", err
	}

	req := model.Request{
		Instructions: WorldSynthesizerInstructions,
		Contents:     []core.Content{core.NewTextContent(core.RoleUser, corpus)},
	}

	var text string
	err := a.opts.Retry.Do(ctx, a.opts.CallTimeout, func(ctx context.Context) error {
		resp, err := a.model.Generate(ctx, req)
		if err != nil {
			return err
		}
		if resp == nil {
			return ErrEmptyOutput
		}
		text = strings.TrimSpace(resp.Content.Text())
		if text == "" {
			return ErrEmptyOutput
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: describe: %w", a.Name(), err)
	}
	return text, nil
}

// GenerateImage implements Provider.
func (a *Adapter) GenerateImage(ctx context.Context, kind ImageKind, description string, seed *core.Blob) (*model.Media, error) {
	gen, ok := a.model.(model.ImageGenerator)
	if !ok {
		return nil, core.NewCapabilityError(a.Name(), core.CapabilityImage)
	}
	if err := a.require(core.CapabilityImage); err != nil {
		return nil, err
	}

	prompt, err := ImagePrompt(kind, description)
	if err != nil {
		return nil, err
	}

	return a.media(ctx, string(kind), func(ctx context.Context) (*model.Media, error) {
		return gen.GenerateImage(ctx, model.ImageRequest{Prompt: prompt, Seed: seed})
	})
}

// GenerateVideo implements Provider.
func (a *Adapter) GenerateVideo(ctx context.Context, description string) (*model.Media, error) {
	gen, ok := a.model.(model.VideoGenerator)
	if !ok {
		return nil, core.NewCapabilityError(a.Name(), core.CapabilityVideo)
	}
	if err := a.require(core.CapabilityVideo); err != nil {
		return nil, err
	}

	prompt, err := VideoPrompt(description)
	if err != nil {
		return nil, err
	}

	return a.media(ctx, "video", func(ctx context.Context) (*model.Media, error) {
		return gen.GenerateVideo(ctx, prompt)
	})
}

// GenerateMusic implements Provider.
func (a *Adapter) GenerateMusic(ctx context.Context, description string) (*model.Media, error) {
	gen, ok := a.model.(model.MusicGenerator)
	if !ok {
		return nil, core.NewCapabilityError(a.Name(), core.CapabilityMusic)
	}
	if err := a.require(core.CapabilityMusic); err != nil {
		return nil, err
	}

	prompt, err := MusicPrompt(description)
	if err != nil {
		return nil, err
	}

	return a.media(ctx, "music", func(ctx context.Context) (*model.Media, error) {
		return gen.GenerateMusic(ctx, prompt)
	})
}

// media runs one bounded media call and rejects empty results.
func (a *Adapter) media(ctx context.Context, what string, fn func(ctx context.Context) (*model.Media, error)) (*model.Media, error) {
	start := time.Now()

	var out *model.Media
	err := a.opts.Retry.Do(ctx, a.opts.CallTimeout, func(ctx context.Context) error {
		m, err := fn(ctx)
		if err != nil {
			return err
		}
		if m == nil || len(m.Data) == 0 {
			return ErrEmptyOutput
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", a.Name(), what, err)
	}

	a.logger.Debug("provider.media.completed",
		"provider", a.Name(),
		"kind", what,
		"mime", out.MIMEType,
		"bytes", len(out.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (a *Adapter) bounded() model.Model {
	return &boundedModel{next: a.model, policy: a.opts.Retry, timeout: a.opts.CallTimeout, logger: a.logger}
}
