package agent

import (
	"context"
	"testing"

	"github.com/jason-allen-oneal/dreamscape-ai/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) tool.Tool {
	return tool.NewFunctionTool(name, "echo", nil, func(_ context.Context, args map[string]any) (any, error) {
		return args, nil
	})
}

func TestNew_Defaults(t *testing.T) {
	a := New("Dreamer")
	assert.Equal(t, "Dreamer", a.Name())
	assert.Equal(t, "You are Dreamer, a helpful AI assistant.", a.Instructions())
	assert.Empty(t, a.Tools())
	assert.Equal(t, "agent(Dreamer)", a.String())
}

func TestNew_WithOptions(t *testing.T) {
	a := New("Classifier", func(o *Options) {
		o.Instructions = "Classify."
		o.Tools = []tool.Tool{echoTool("a"), echoTool("b")}
	})
	assert.Equal(t, "Classify.", a.Instructions())

	tools := a.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "a", tools[0].Name())

	tools[0] = nil
	assert.NotNil(t, a.Tools()[0], "Tools must return a copy")
}

func TestRegistry(t *testing.T) {
	a := New("x", func(o *Options) { o.Tools = []tool.Tool{echoTool("a"), echoTool("b")} })
	r, err := a.Registry()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	dup := New("x", func(o *Options) { o.Tools = []tool.Tool{echoTool("a"), echoTool("a")} })
	_, err = dup.Registry()
	assert.Error(t, err)
}

func TestRenderInstructions(t *testing.T) {
	a := New("x", func(o *Options) { o.Instructions = "Dream {{.id}} of {{upper .mood}}" })

	out, err := a.RenderInstructions(map[string]any{"id": "d1", "mood": "calm"})
	require.NoError(t, err)
	assert.Equal(t, "Dream d1 of CALM", out)

	raw, err := a.RenderInstructions(nil)
	require.NoError(t, err)
	assert.Equal(t, a.Instructions(), raw)
}
