// Package gemini provides an implementation of model.Model over the Google
// Gen AI SDK. Besides text generation with function calling it implements the
// image, video and music media interfaces, making it the only backend with the
// full capability profile.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"google.golang.org/genai"
)

// metaThoughtSignature is the FunctionCallPart metadata key holding the
// opaque signature Gemini expects to receive back with the call.
const metaThoughtSignature = "gemini.thought_signature"

// Options configures the Gemini model adapter.
type Options struct {
	APIKey       string
	Model        string
	ImageModel   string
	VideoModel   string
	MusicModel   string
	MusicVoice   string
	Temperature  float32
	PollInterval time.Duration // video operation polling
}

// Model wraps a genai client behind model.Model and the media interfaces.
type Model struct {
	client *genai.Client
	opts   Options
}

var (
	_ model.Model          = (*Model)(nil)
	_ model.ImageGenerator = (*Model)(nil)
	_ model.VideoGenerator = (*Model)(nil)
	_ model.MusicGenerator = (*Model)(nil)
)

func defaultOptions() Options {
	return Options{
		Model:        "gemini-2.5-flash",
		ImageModel:   "gemini-2.5-flash-image-preview",
		VideoModel:   "veo-2.0-generate-001",
		MusicModel:   "gemini-2.5-flash-preview-tts",
		MusicVoice:   "Aoede",
		Temperature:  0.8,
		PollInterval: 10 * time.Second,
	}
}

// NewModel creates a Gemini API client. Without an explicit APIKey the SDK
// falls back to GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate sends the explicit history with system instruction and function
// declarations, returning one model turn.
func (m *Model) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(m.opts.Temperature),
	}
	if req.Instructions != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.Instructions}}}
	}
	if len(req.Tools) > 0 {
		config.Tools = buildTools(req.Tools)
	}

	contents, err := buildContents(req.Contents)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &model.Response{
			ID:           resp.ResponseID,
			Content:      core.Content{Role: core.RoleModel},
			FinishReason: "stop",
			Usage:        usage(resp),
		}, nil
	}

	cand := resp.Candidates[0]
	return &model.Response{
		ID:           resp.ResponseID,
		Content:      fromGenaiContent(cand.Content),
		FinishReason: strings.ToLower(string(cand.FinishReason)),
		Usage:        usage(resp),
	}, nil
}

func usage(resp *genai.GenerateContentResponse) *model.TokenUsage {
	if resp.UsageMetadata == nil {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
	}
}

// buildContents converts the normalized history. Tool turns are sent with
// the user role, as the Gemini API expects function responses there.
func buildContents(contents []core.Content) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		role := "user"
		if c.Role == core.RoleModel {
			role = "model"
		}

		gc := &genai.Content{Role: role}
		for _, p := range c.Parts {
			part, err := toGenaiPart(p)
			if err != nil {
				return nil, err
			}
			if part != nil {
				gc.Parts = append(gc.Parts, part)
			}
		}
		if len(gc.Parts) > 0 {
			out = append(out, gc)
		}
	}
	return out, nil
}

func toGenaiPart(p core.Part) (*genai.Part, error) {
	switch part := p.(type) {
	case core.TextPart:
		if part.Text == "" {
			return nil, nil
		}
		return &genai.Part{Text: part.Text}, nil
	case core.BlobPart:
		return &genai.Part{InlineData: &genai.Blob{Data: part.Blob.Data, MIMEType: part.Blob.MIMEType}}, nil
	case core.FunctionCallPart:
		args := map[string]any{}
		if part.FunctionCall.Arguments != "" {
			if err := json.Unmarshal([]byte(part.FunctionCall.Arguments), &args); err != nil {
				return nil, fmt.Errorf("gemini: function call %s arguments: %w", part.FunctionCall.Name, err)
			}
		}
		gp := &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   part.FunctionCall.ID,
			Name: part.FunctionCall.Name,
			Args: args,
		}}
		if sig, ok := part.Metadata[metaThoughtSignature].([]byte); ok {
			gp.ThoughtSignature = sig
		}
		return gp, nil
	case core.FunctionResponsePart:
		return &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       part.FunctionResponse.ID,
			Name:     part.FunctionResponse.Name,
			Response: part.FunctionResponse.Response,
		}}, nil
	default:
		return nil, nil
	}
}

// fromGenaiContent converts a candidate into a model turn. Thought parts are
// dropped; function call ids are generated when the API omits them.
func fromGenaiContent(c *genai.Content) core.Content {
	out := core.Content{Role: core.RoleModel}
	for _, p := range c.Parts {
		if p == nil || p.Thought {
			continue
		}
		switch {
		case p.FunctionCall != nil:
			args, err := json.Marshal(p.FunctionCall.Args)
			if err != nil || p.FunctionCall.Args == nil {
				args = []byte("{}")
			}
			id := p.FunctionCall.ID
			if id == "" {
				id = core.NewID()
			}
			part := core.FunctionCallPart{FunctionCall: core.FunctionCall{
				ID:        id,
				Name:      p.FunctionCall.Name,
				Arguments: string(args),
			}}
			if len(p.ThoughtSignature) > 0 {
				part.Metadata = map[string]any{metaThoughtSignature: p.ThoughtSignature}
			}
			out.Parts = append(out.Parts, part)
		case p.InlineData != nil:
			out.Parts = append(out.Parts, core.BlobPart{Blob: core.Blob{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType}})
		case p.Text != "":
			out.Parts = append(out.Parts, core.TextPart{Text: p.Text})
		}
	}
	return out
}

// buildTools declares every tool with its raw JSON schema.
func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		params := t.Function.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:                 t.Function.Name,
			Description:          t.Function.Description,
			ParametersJsonSchema: params,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "gemini",
		Capabilities: []core.Capability{
			core.CapabilityText,
			core.CapabilityImage,
			core.CapabilityVideo,
			core.CapabilityMusic,
		},
	}
}

var errNoMedia = errors.New("gemini: response contained no media")
