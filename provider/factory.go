package provider

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/jason-allen-oneal/dreamscape-ai/config"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/jason-allen-oneal/dreamscape-ai/model/anthropic"
	"github.com/jason-allen-oneal/dreamscape-ai/model/gemini"
	"github.com/jason-allen-oneal/dreamscape-ai/model/openai"
)

// New resolves the configured backend and wraps it in an Adapter.
func New(ctx context.Context, cfg config.Provider, loop config.Loop, logger logging.Logger) (*Adapter, error) {
	m, err := newModel(ctx, cfg)
	if err != nil {
		return nil, err
	}

	logging.OrNoOp(logger).Info("provider.selected", "provider", m.Info().Provider, "model", m.Info().Name)

	return NewAdapter(m, func(o *Options) {
		o.CallTimeout = cfg.CallTimeout
		o.Logger = logger
		if loop.MaxIterations > 0 {
			o.MaxIterations = loop.MaxIterations
		}
		if loop.MaxParallelTools > 0 {
			o.MaxParallelTools = loop.MaxParallelTools
		}
		policy := DefaultRetryPolicy()
		if cfg.RetryAttempts > 0 {
			policy.MaxAttempts = cfg.RetryAttempts
		}
		if cfg.RetryDelay > 0 {
			policy.InitialDelay = cfg.RetryDelay
		}
		o.Retry = policy
	}), nil
}

func newModel(ctx context.Context, cfg config.Provider) (model.Model, error) {
	switch cfg.Name {
	case "", config.ProviderGemini:
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			o.APIKey = cfg.GeminiAPIKey
			setIf(&o.Model, cfg.Model)
			setIf(&o.ImageModel, cfg.ImageModel)
			setIf(&o.VideoModel, cfg.VideoModel)
			setIf(&o.MusicModel, cfg.MusicModel)
		})
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			setIf(&o.Model, cfg.Model)
			setIf(&o.ImageModel, cfg.ImageModel)
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case config.ProviderMock:
		return model.NewMockModel("mock"), nil
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", cfg.Name)
	}
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
