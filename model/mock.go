package model

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
)

// MockModel is a lightweight in-memory Model useful for tests, examples and
// offline runs. Responses are consumed in order; once exhausted the last
// response repeats. With no scripted responses it echoes the last user text.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses []mockTurn
	next      int
	requests  []Request

	// Optional media hooks. A nil hook means the capability is missing.
	ImageFunc func(ctx context.Context, req ImageRequest) (*Media, error)
	VideoFunc func(ctx context.Context, prompt string) (*Media, error)
	MusicFunc func(ctx context.Context, prompt string) (*Media, error)
}

type mockTurn struct {
	content core.Content
	err     error
}

// NewMockModel constructs a MockModel declaring the text capability.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{
			Name:         name,
			Provider:     "mock",
			Capabilities: []core.Capability{core.CapabilityText},
		},
	}
}

// WithCapabilities replaces the declared capabilities.
func (m *MockModel) WithCapabilities(caps ...core.Capability) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Capabilities = append([]core.Capability(nil), caps...)
	return m
}

// AddText scripts a plain text model turn.
func (m *MockModel) AddText(text string) *MockModel {
	return m.AddContent(core.NewTextContent(core.RoleModel, text))
}

// AddFunctionCalls scripts a model turn requesting the given calls.
func (m *MockModel) AddFunctionCalls(calls ...core.FunctionCall) *MockModel {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}
	return m.AddContent(core.Content{Role: core.RoleModel, Parts: parts})
}

// AddContent scripts an arbitrary model turn.
func (m *MockModel) AddContent(c core.Content) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockTurn{content: c})
	return m
}

// AddError scripts a failing call.
func (m *MockModel) AddError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockTurn{err: err})
	return m
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Contents) == 0 {
		return nil, errors.New("no contents provided")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, cloneRequest(req))

	if len(m.responses) == 0 {
		return &Response{
			Content:      core.NewTextContent(core.RoleModel, fmt.Sprintf("Mock response to: %s", lastUserText(req.Contents))),
			FinishReason: "stop",
		}, nil
	}

	idx := m.next
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	} else {
		m.next++
	}
	turn := m.responses[idx]
	if turn.err != nil {
		return nil, turn.err
	}

	finish := "stop"
	if len(turn.content.FunctionCalls()) > 0 {
		finish = "tool_calls"
	}
	return &Response{Content: turn.content, FinishReason: finish}, nil
}

// Requests returns a copy of every request received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Calls returns the number of Generate invocations.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Info implements Model interface.
func (m *MockModel) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := m.info
	info.Capabilities = append([]core.Capability(nil), m.info.Capabilities...)
	return info
}

// GenerateImage implements ImageGenerator through ImageFunc.
func (m *MockModel) GenerateImage(ctx context.Context, req ImageRequest) (*Media, error) {
	if m.ImageFunc == nil {
		return nil, core.NewCapabilityError("mock", core.CapabilityImage)
	}
	return m.ImageFunc(ctx, req)
}

// GenerateVideo implements VideoGenerator through VideoFunc.
func (m *MockModel) GenerateVideo(ctx context.Context, prompt string) (*Media, error) {
	if m.VideoFunc == nil {
		return nil, core.NewCapabilityError("mock", core.CapabilityVideo)
	}
	return m.VideoFunc(ctx, prompt)
}

// GenerateMusic implements MusicGenerator through MusicFunc.
func (m *MockModel) GenerateMusic(ctx context.Context, prompt string) (*Media, error) {
	if m.MusicFunc == nil {
		return nil, core.NewCapabilityError("mock", core.CapabilityMusic)
	}
	return m.MusicFunc(ctx, prompt)
}

func cloneRequest(req Request) Request {
	req.Contents = append([]core.Content(nil), req.Contents...)
	req.Tools = append([]ToolDefinition(nil), req.Tools...)
	return req
}

func lastUserText(contents []core.Content) string {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == core.RoleUser {
			return contents[i].Text()
		}
	}
	return ""
}
