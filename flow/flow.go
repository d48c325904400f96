// Package flow drives the bounded tool-calling conversation between a model
// and an agent's tools.
//
// A Loop sends the prompt, executes any function calls the model asks for,
// feeds all responses back as one tool turn and repeats until the model
// answers with plain text or the send cap is reached. Reaching the cap is
// not an error: the run ends with whatever text the last response carried.
package flow

import (
	"context"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// DefaultMaxIterations bounds the number of model sends per run.
const DefaultMaxIterations = 10

// State is the position of a run in the conversation state machine.
type State string

const (
	StateAwaitingFirstSend    State = "awaiting_first_send"
	StateModelResponded       State = "model_responded"
	StateFunctionCallsPending State = "function_calls_pending"
	StateToolsExecuted        State = "tools_executed"
	StateDone                 State = "done"
)

// Result is the outcome of one conversation run.
type Result struct {
	RunID       string
	FinalOutput string
	// ToolCalls lists every call the model requested, in request order.
	ToolCalls []core.FunctionCall
	// Turns is the full history sent to and received from the model.
	Turns      []core.Content
	Sends      int
	CapReached bool
	State      State
}

// FunctionExecutor runs one batch of function calls. Implementations must
// return exactly one response per call, in call order, and never panic.
type FunctionExecutor interface {
	Execute(ctx context.Context, registry *tool.Registry, calls []core.FunctionCall) []core.FunctionResponse
}
