package anthropic

import (
	"testing"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	contents := []core.Content{
		core.NewTextContent(core.RoleUser, "classify this"),
		{Role: core.RoleModel, Parts: []core.Part{
			core.TextPart{Text: "checking"},
			core.FunctionCallPart{FunctionCall: core.FunctionCall{ID: "toolu_1", Name: "createTag", Arguments: `{"value":"moon"}`}},
		}},
		{Role: core.RoleTool, Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{ID: "toolu_1", Name: "createTag", Response: map[string]any{"ok": true}}},
		}},
	}

	msgs := buildMessages(contents)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 1)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "toolu_1", msgs[2].Content[0].OfToolResult.ToolUseID)
}

func TestBuildMessages_SkipsEmpty(t *testing.T) {
	msgs := buildMessages([]core.Content{core.NewTextContent(core.RoleUser, "")})
	assert.Empty(t, msgs)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "createTag",
			Description: "Create a tag",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"value": map[string]any{"type": "string"}},
				"required":   []any{"value"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "createTag", tools[0].OfTool.Name)
	assert.Equal(t, []string{"value"}, tools[0].OfTool.InputSchema.Required)
}

func TestInfo(t *testing.T) {
	info := NewModelFromClient(nil).Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.Supports(core.CapabilityText))
	assert.False(t, info.Supports(core.CapabilityImage))
}
