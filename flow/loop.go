package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// LoopOptions configures a Loop.
type LoopOptions struct {
	MaxIterations int
	Executor      FunctionExecutor
	Logger        logging.Logger
	Instructions  string
}

// Loop is a single-agent request -> model -> (tools -> model)* cycle.
type Loop struct {
	model    model.Model
	registry *tool.Registry
	opts     LoopOptions
	logger   logging.Logger
}

// NewLoop binds a model and a tool registry. A nil registry exposes no tools.
func NewLoop(m model.Model, registry *tool.Registry, optFns ...func(o *LoopOptions)) *Loop {
	opts := LoopOptions{MaxIterations: DefaultMaxIterations}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = DefaultMaxIterations
	}
	logger := logging.OrNoOp(opts.Logger)
	if opts.Executor == nil {
		opts.Executor = NewParallelFunctionExecutor(FunctionExecutorConfig{Logger: logger})
	}
	return &Loop{model: m, registry: registry, opts: opts, logger: logger}
}

// Run executes one conversation for prompt. Model errors abort the run;
// tool errors are fed back to the model as {"error": ...} payloads.
func (l *Loop) Run(ctx context.Context, prompt string) (*Result, error) {
	if l.model == nil {
		return nil, errors.New("flow: loop has no model")
	}

	res := &Result{
		RunID: core.NewID(),
		Turns: []core.Content{core.NewTextContent(core.RoleUser, prompt)},
		State: StateAwaitingFirstSend,
	}

	var defs []model.ToolDefinition
	if l.registry != nil {
		defs = l.registry.Definitions()
	}

	l.logger.Debug("flow.run.start", "run_id", res.RunID, "model", l.model.Info().Name, "tools", len(defs))

	for {
		resp, err := l.send(ctx, res, defs)
		if err != nil {
			return nil, err
		}

		res.Turns = append(res.Turns, resp.Content)
		res.State = StateModelResponded

		calls := resp.Content.FunctionCalls()
		if len(calls) == 0 {
			res.FinalOutput = resp.Content.Text()
			res.State = StateDone
			l.logger.Debug("flow.run.done", "run_id", res.RunID, "sends", res.Sends)
			return res, nil
		}

		res.ToolCalls = append(res.ToolCalls, calls...)

		if res.Sends >= l.opts.MaxIterations {
			res.FinalOutput = resp.Content.Text()
			res.CapReached = true
			res.State = StateDone
			l.logger.Warn("flow.cap.reached", "run_id", res.RunID, "sends", res.Sends, "pending_calls", len(calls))
			return res, nil
		}

		res.State = StateFunctionCallsPending
		responses := l.opts.Executor.Execute(ctx, l.registry, calls)

		parts := make([]core.Part, 0, len(responses))
		for _, r := range responses {
			parts = append(parts, core.FunctionResponsePart{FunctionResponse: r})
		}
		res.Turns = append(res.Turns, core.Content{Role: core.RoleTool, Parts: parts})
		res.State = StateToolsExecuted
	}
}

func (l *Loop) send(ctx context.Context, res *Result, defs []model.ToolDefinition) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := model.Request{
		Instructions: l.opts.Instructions,
		Contents:     append([]core.Content(nil), res.Turns...),
		Tools:        defs,
	}

	start := time.Now()
	resp, err := l.model.Generate(ctx, req)
	res.Sends++

	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	l.logger.Debug("flow.send", "run_id", res.RunID, "send", res.Sends, "duration_ms", time.Since(start).Milliseconds(), "tokens", tokens, "error", err != nil)

	if err != nil {
		return nil, fmt.Errorf("flow: send %d: %w", res.Sends, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("flow: send %d: empty response", res.Sends)
	}
	return resp, nil
}
