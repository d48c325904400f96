// Package provider exposes one uniform contract over the generative
// backends. An Adapter wraps a single model.Model and reports missing
// capabilities as *core.CapabilityError rather than returning empty media.
//
// The backend is selected once per process by New.
package provider

import (
	"context"
	"errors"

	"github.com/jason-allen-oneal/dreamscape-ai/agent"
	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
)

// ImageKind selects the prompt template used for an image.
type ImageKind string

const (
	ImageBackground ImageKind = "background"
	ImageFloating1  ImageKind = "floating1"
	ImageFloating2  ImageKind = "floating2"
)

// ErrEmptyOutput is returned when a backend answers a text request with no text.
var ErrEmptyOutput = errors.New("provider: empty model output")

// Result is the outcome of running an agent.
type Result struct {
	FinalOutput string              `json:"finalOutput"`
	ToolCalls   []core.FunctionCall `json:"toolCalls"`
	Sends       int                 `json:"sends"`
	CapReached  bool                `json:"capReached"`
}

// Provider is the uniform execution contract.
type Provider interface {
	// Name returns the backend name ("gemini", "openai", ...).
	Name() string

	// Capabilities lists the generation kinds the backend supports.
	Capabilities() []core.Capability

	// Execute runs the conversation loop for agent against the backend.
	Execute(ctx context.Context, a *agent.Agent, prompt string) (*Result, error)

	// Describe turns a corpus into a single descriptive paragraph.
	Describe(ctx context.Context, corpus string) (string, error)

	// GenerateImage renders the kind's prompt for description and returns
	// one image. seed may be nil.
	GenerateImage(ctx context.Context, kind ImageKind, description string, seed *core.Blob) (*model.Media, error)

	// GenerateVideo returns one short video for description.
	GenerateVideo(ctx context.Context, description string) (*model.Media, error)

	// GenerateMusic returns one music track for description.
	GenerateMusic(ctx context.Context, description string) (*model.Media, error)
}
