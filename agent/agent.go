package agent

import (
	"fmt"

	"github.com/jason-allen-oneal/dreamscape-ai/internal/util"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// Options configures a new Agent.
type Options struct {
	// Instructions is the system prompt. Empty selects the default
	// "You are <name>, a helpful AI assistant.".
	Instructions string

	// Tools are exposed to the model in the given order.
	Tools []tool.Tool
}

// Agent is an immutable name + instructions + tools triple.
type Agent struct {
	name         string
	instructions string
	tools        []tool.Tool
}

// New creates an Agent. Construction performs no I/O.
func New(name string, optFns ...func(o *Options)) *Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	instructions := opts.Instructions
	if instructions == "" {
		instructions = fmt.Sprintf("You are %s, a helpful AI assistant.", name)
	}

	return &Agent{
		name:         name,
		instructions: instructions,
		tools:        append([]tool.Tool(nil), opts.Tools...),
	}
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the raw system instructions.
func (a *Agent) Instructions() string { return a.instructions }

// Tools returns a copy of the agent's tools.
func (a *Agent) Tools() []tool.Tool { return append([]tool.Tool(nil), a.tools...) }

// RenderInstructions executes the instructions as a template against state.
// Instructions without template actions are returned unchanged.
func (a *Agent) RenderInstructions(state map[string]any) (string, error) {
	if len(state) == 0 {
		return a.instructions, nil
	}
	out, err := util.RenderTemplate(a.instructions, state)
	if err != nil {
		return "", fmt.Errorf("agent %s: render instructions: %w", a.name, err)
	}
	return out, nil
}

// Registry builds a fresh tool registry for one run.
func (a *Agent) Registry() (*tool.Registry, error) {
	r, err := tool.NewRegistry(a.tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}
	return r, nil
}

// String implements fmt.Stringer.
func (a *Agent) String() string { return "agent(" + a.name + ")" }
