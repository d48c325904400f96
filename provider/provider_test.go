package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/config"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(o *Options) {
	o.Retry = &RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 2}
}

func TestExecute(t *testing.T) {
	var calls int32
	tag := tool.NewFunctionTool("createTag", "create a tag", nil, func(context.Context, map[string]any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]any{"id": "t1"}, nil
	})
	m := model.NewMockModel("m").
		AddFunctionCalls(core.FunctionCall{ID: "1", Name: "createTag", Arguments: `{"value":"owl"}`}).
		AddText("done")

	a := agent.New("Classifier", func(o *agent.Options) { o.Tools = []tool.Tool{tag} })
	res, err := NewAdapter(m).Execute(context.Background(), a, "classify")
	require.NoError(t, err)

	assert.Equal(t, "done", res.FinalOutput)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "createTag", res.ToolCalls[0].Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "You are Classifier, a helpful AI assistant.", m.Requests()[0].Instructions)
}

func TestExecute_CapReachedIsNotAnError(t *testing.T) {
	m := model.NewMockModel("m").AddFunctionCalls(core.FunctionCall{ID: "1", Name: "missing"})

	res, err := NewAdapter(m).Execute(context.Background(), agent.New("x"), "go")
	require.NoError(t, err)
	assert.True(t, res.CapReached)
	assert.Equal(t, 10, res.Sends)
}

func TestExecute_RetriesTransientSendErrors(t *testing.T) {
	m := model.NewMockModel("m").AddError(errors.New("connection reset")).AddText("ok")

	res, err := NewAdapter(m, fastRetry).Execute(context.Background(), agent.New("x"), "go")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.FinalOutput)
	assert.Equal(t, 2, m.Calls())
}

func TestExecute_CapCountsLogicalSends(t *testing.T) {
	m := model.NewMockModel("m")
	for i := 0; i < 10; i++ {
		m.AddError(errors.New("connection reset")).
			AddFunctionCalls(core.FunctionCall{ID: "1", Name: "missing"})
	}

	res, err := NewAdapter(m, fastRetry).Execute(context.Background(), agent.New("x"), "go")
	require.NoError(t, err)
	assert.True(t, res.CapReached)
	assert.Equal(t, 10, res.Sends)
	assert.Equal(t, 20, m.Calls(), "each send is bounded by MaxAttempts")
}

func TestDescribe(t *testing.T) {
	m := model.NewMockModel("m").AddText("  A violet sea under two moons.  ")

	desc, err := NewAdapter(m).Describe(context.Background(), "Dream Summary: sea")
	require.NoError(t, err)
	assert.Equal(t, "A violet sea under two moons.", desc)

	req := m.Requests()[0]
	assert.Equal(t, WorldSynthesizerInstructions, req.Instructions)
	assert.Equal(t, "Dream Summary: sea", req.Contents[0].Text())
}

func TestDescribe_EmptyOutputFails(t *testing.T) {
	m := model.NewMockModel("m").AddText("")

	_, err := NewAdapter(m, fastRetry).Describe(context.Background(), "corpus")
	assert.ErrorIs(t, err, ErrEmptyOutput)
	assert.Equal(t, 1, m.Calls())
}

// nilModel answers every Generate with neither a response nor an error.
type nilModel struct{ calls int32 }

func (m *nilModel) Generate(context.Context, model.Request) (*model.Response, error) {
	atomic.AddInt32(&m.calls, 1)
	return nil, nil
}

func (m *nilModel) Info() model.Info {
	return model.Info{Name: "nil", Provider: "mock", Capabilities: []core.Capability{core.CapabilityText}}
}

func TestDescribe_NilResponseFails(t *testing.T) {
	m := &nilModel{}

	var desc string
	var err error
	require.NotPanics(t, func() {
		desc, err = NewAdapter(m, fastRetry).Describe(context.Background(), "corpus")
	})
	assert.ErrorIs(t, err, ErrEmptyOutput)
	assert.Empty(t, desc)
	assert.Equal(t, int32(1), atomic.LoadInt32(&m.calls))
}

func TestMedia_UnsupportedCapability(t *testing.T) {
	a := NewAdapter(model.NewMockModel("m"))
	ctx := context.Background()

	_, err := a.GenerateImage(ctx, ImageBackground, "desc", nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedCapability)

	_, err = a.GenerateVideo(ctx, "desc")
	assert.ErrorIs(t, err, core.ErrUnsupportedCapability)

	_, err = a.GenerateMusic(ctx, "desc")
	var capErr *core.CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, core.CapabilityMusic, capErr.Capability)
}

func TestMedia_CapabilityNotRetried(t *testing.T) {
	var calls int32
	m := model.NewMockModel("m").WithCapabilities(core.CapabilityText, core.CapabilityVideo)
	m.VideoFunc = func(context.Context, string) (*model.Media, error) {
		atomic.AddInt32(&calls, 1)
		return nil, core.NewCapabilityError("mock", core.CapabilityVideo)
	}

	_, err := NewAdapter(m, fastRetry).GenerateVideo(context.Background(), "desc")
	assert.ErrorIs(t, err, core.ErrUnsupportedCapability)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGenerateImage(t *testing.T) {
	var got model.ImageRequest
	m := model.NewMockModel("m").WithCapabilities(core.CapabilityText, core.CapabilityImage)
	m.ImageFunc = func(_ context.Context, req model.ImageRequest) (*model.Media, error) {
		got = req
		return &model.Media{Data: []byte{1}, MIMEType: "image/png"}, nil
	}

	seed := &core.Blob{Data: []byte{9}, MIMEType: "image/jpeg"}
	media, err := NewAdapter(m).GenerateImage(context.Background(), ImageFloating1, "a glass forest", seed)
	require.NoError(t, err)

	assert.Equal(t, "image/png", media.MIMEType)
	assert.Equal(t, seed, got.Seed)
	assert.Equal(t, "A surreal, dreamlike, abstract floating object that would exist in the following dream world: a glass forest", got.Prompt)
}

func TestMedia_EmptyResultIsAnError(t *testing.T) {
	m := model.NewMockModel("m").WithCapabilities(core.CapabilityText, core.CapabilityMusic)
	m.MusicFunc = func(context.Context, string) (*model.Media, error) { return &model.Media{}, nil }

	_, err := NewAdapter(m).GenerateMusic(context.Background(), "desc")
	assert.ErrorIs(t, err, ErrEmptyOutput)
}

func TestMedia_CallTimeout(t *testing.T) {
	m := model.NewMockModel("m").WithCapabilities(core.CapabilityText, core.CapabilityVideo)
	m.VideoFunc = func(ctx context.Context, _ string) (*model.Media, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	a := NewAdapter(m, func(o *Options) {
		o.CallTimeout = 10 * time.Millisecond
		o.Retry = nil
	})
	_, err := a.GenerateVideo(context.Background(), "desc")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestImagePrompt(t *testing.T) {
	p, err := ImagePrompt(ImageBackground, "mist")
	require.NoError(t, err)
	assert.Equal(t, "A surreal, dreamlike, abstract background that captures the essence of the following dream world description: mist", p)

	_, err = ImagePrompt("portrait", "mist")
	assert.Error(t, err)
}

func TestRetryPolicy(t *testing.T) {
	p := &RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2, MaxDelay: 3 * time.Millisecond}
	assert.Equal(t, time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 2*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 3*time.Millisecond, p.NextDelay(3))

	n := 0
	err := p.Do(context.Background(), 0, func(context.Context) error {
		n++
		return errors.New("temporary failure")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Do(ctx, 0, func(context.Context) error { return nil }), context.Canceled)
}

func TestNew(t *testing.T) {
	a, err := New(context.Background(), config.Provider{Name: config.ProviderMock, RetryAttempts: 3}, config.Loop{MaxIterations: 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", a.Name())
	assert.Equal(t, 4, a.opts.MaxIterations)
	assert.Equal(t, 3, a.opts.Retry.MaxAttempts)

	openaiAdapter, err := New(context.Background(), config.Provider{Name: config.ProviderOpenAI, OpenAIAPIKey: "sk-test"}, config.Loop{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", openaiAdapter.Name())
	assert.False(t, core.HasCapability(openaiAdapter.Capabilities(), core.CapabilityVideo))

	anth, err := New(context.Background(), config.Provider{Name: config.ProviderAnthropic, AnthropicAPIKey: "k", Model: "claude-x"}, config.Loop{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", anth.Name())
	assert.Equal(t, "claude-x", anth.Model().Info().Name)

	_, err = New(context.Background(), config.Provider{Name: "llama"}, config.Loop{}, nil)
	assert.Error(t, err)
}
