package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/internal/util"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
)

// Registry maps tool names to implementations. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry indexes tools by name, preserving registration order.
// Empty or duplicate names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, errors.New("tool registry: nil tool")
		}
		name := t.Name()
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("tool registry: empty tool name")
		}
		if _, dup := r.tools[name]; dup {
			return nil, fmt.Errorf("tool registry: duplicate tool name %q", name)
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r, nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.order) }

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// Definitions returns the model facing declarations in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	if len(r.order) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs one function call and always returns a response. Every
// failure (unknown tool, malformed arguments, validation, tool error, panic)
// is converted into a {"error": ...} payload so a single failing tool never
// aborts a conversation turn. Successful results pass through Normalize.
func (r *Registry) Execute(ctx context.Context, call core.FunctionCall) core.FunctionResponse {
	result, err := r.call(ctx, call)
	if err != nil {
		return ErrorResponse(call, err)
	}
	return core.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: Normalize(result),
	}
}

// ErrorResponse builds the normalized error payload for call.
func ErrorResponse(call core.FunctionCall, err error) core.FunctionResponse {
	return core.FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: map[string]any{"error": err.Error()},
		Error:    err.Error(),
	}
}

func (r *Registry) call(ctx context.Context, call core.FunctionCall) (result any, err error) {
	t, lookupErr := r.Lookup(call.Name)
	if lookupErr != nil {
		return nil, &ToolError{Tool: call.Name, Message: lookupErr.Error(), Code: CodeNotFound}
	}

	args, err := DecodeArguments(call.Arguments)
	if err != nil {
		return nil, &ToolError{Tool: call.Name, Message: err.Error(), Code: CodeValidation}
	}

	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, &ToolError{
			Tool:    call.Name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &ToolError{
				Tool:    call.Name,
				Message: fmt.Sprintf("panic: %v", rec),
				Code:    CodePanic,
				Details: string(debug.Stack()),
			}
		}
	}()

	result, err = t.Call(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: call.Name, Message: err.Error(), Code: CodeExecution}
	}
	return result, nil
}

// DecodeArguments parses the JSON argument text of a function call. Empty
// text and a JSON null both decode to an empty object.
func DecodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal args: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
