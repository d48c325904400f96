package openai

import (
	"encoding/base64"
	"testing"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_ToolRoundTrip(t *testing.T) {
	req := model.Request{
		Instructions: "be brief",
		Contents: []core.Content{
			core.NewTextContent(core.RoleUser, "tag my dream"),
			{Role: core.RoleModel, Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "call_1", Name: "createTag", Arguments: `{"value":"sea"}`}},
				core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "call_2", Name: "createTag"}},
			}},
			{Role: core.RoleTool, Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "call_1", Name: "createTag", Response: map[string]any{"ok": true}}},
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "call_2", Name: "createTag", Response: map[string]any{"error": "boom"}}},
			}},
			core.NewTextContent(core.RoleModel, "done"),
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 6)

	require.NotNil(t, msgs[0].OfSystem)
	require.NotNil(t, msgs[1].OfUser)

	require.NotNil(t, msgs[2].OfAssistant)
	calls := msgs[2].OfAssistant.ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, `{"value":"sea"}`, calls[0].Function.Arguments)
	assert.Equal(t, "{}", calls[1].Function.Arguments)

	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "call_1", msgs[3].OfTool.ToolCallID)
	require.NotNil(t, msgs[4].OfTool)
	assert.Equal(t, "call_2", msgs[4].OfTool.ToolCallID)

	require.NotNil(t, msgs[5].OfAssistant)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModelFromClient(nil, func(o *Options) { o.Model = "gpt-test" })
	req := model.Request{Tools: []model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "createTag",
			Description: "Create a tag",
			Parameters:  map[string]any{"type": "object"},
		},
	}}}

	params := m.buildParams(req, nil)
	assert.Equal(t, "gpt-test", string(params.Model))
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "createTag", params.Tools[0].Function.Name)

	params = m.buildParams(model.Request{}, nil)
	assert.Empty(t, params.Tools)
}

func TestMediaFromImages(t *testing.T) {
	_, err := mediaFromImages(nil)
	assert.Error(t, err)

	media, err := mediaFromImages([]openai.Image{{B64JSON: base64.StdEncoding.EncodeToString([]byte("png"))}})
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), media.Data)
	assert.Equal(t, "image/png", media.MIMEType)

	media, err = mediaFromImages([]openai.Image{{URL: "https://example.com/a.png"}})
	require.NoError(t, err)
	assert.Empty(t, media.Data)
	assert.Equal(t, "https://example.com/a.png", media.URI)
}

func TestInfo(t *testing.T) {
	info := NewModelFromClient(nil).Info()
	assert.Equal(t, "openai", info.Provider)
	assert.True(t, info.Supports(core.CapabilityImage))
	assert.False(t, info.Supports(core.CapabilityVideo))
}
