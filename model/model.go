package model

import (
	"context"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the conversation loop.
// Contents is the full ordered history; backends are stateless between calls.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions for the model
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete model turn.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name         string            `json:"name"`
	Provider     string            `json:"provider"` // "gemini", "openai", "anthropic", "mock"
	Capabilities []core.Capability `json:"capabilities"`
}

// Supports reports whether the model declares capability c.
func (i Info) Supports(c core.Capability) bool { return core.HasCapability(i.Capabilities, c) }

// Model is the minimal interface required by the conversation loop to drive
// text generation with function calling.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Media is one generated binary artifact. Data holds the inline bytes; URI
// records the backend's remote handle when it reported one. A Media without
// Data is an empty result.
type Media struct {
	Data     []byte
	MIMEType string
	URI      string
}

// ImageRequest asks for a single still image, optionally biased by a seed image.
type ImageRequest struct {
	Prompt string
	Seed   *core.Blob
}

// ImageGenerator is implemented by backends able to synthesize images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*Media, error)
}

// VideoGenerator is implemented by backends able to synthesize short videos.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string) (*Media, error)
}

// MusicGenerator is implemented by backends able to synthesize audio tracks.
type MusicGenerator interface {
	GenerateMusic(ctx context.Context, prompt string) (*Media, error)
}
