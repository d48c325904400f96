package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
)

// FunctionExecutorConfig configures the default executor.
type FunctionExecutorConfig struct {
	MaxParallel    int // <1 => 1 (sequential)
	LogStartEvents bool
	Logger         logging.Logger
}

type parallelFunctionExecutor struct {
	cfg    FunctionExecutorConfig
	logger logging.Logger
}

// NewParallelFunctionExecutor constructs an executor running at most
// MaxParallel calls at once. Results are always returned in call order.
func NewParallelFunctionExecutor(cfg FunctionExecutorConfig) FunctionExecutor {
	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	return &parallelFunctionExecutor{cfg: cfg, logger: logging.OrNoOp(cfg.Logger)}
}

func (e *parallelFunctionExecutor) Execute(ctx context.Context, registry *tool.Registry, calls []core.FunctionCall) []core.FunctionResponse {
	n := len(calls)
	if n == 0 {
		return nil
	}

	results := make([]core.FunctionResponse, n)

	// Fast path: single call or sequential mode, execute inline.
	if n == 1 || e.cfg.MaxParallel == 1 {
		for i, fc := range calls {
			results[i] = e.executeSingle(ctx, registry, fc)
		}
		return results
	}

	maxPar := e.cfg.MaxParallel
	if maxPar > n {
		maxPar = n
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		if ctx.Err() != nil {
			results[i] = tool.ErrorResponse(calls[i], ctx.Err())
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = e.executeSingle(ctx, registry, fc)
		}(i, calls[i])
	}

	wg.Wait()

	e.logger.Debug(
		"flow.functions.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return results
}

func (e *parallelFunctionExecutor) executeSingle(ctx context.Context, registry *tool.Registry, fc core.FunctionCall) core.FunctionResponse {
	if err := ctx.Err(); err != nil {
		return tool.ErrorResponse(fc, err)
	}
	if registry == nil {
		return tool.ErrorResponse(fc, &tool.ToolError{Tool: fc.Name, Message: tool.ErrToolNotFound.Error(), Code: tool.CodeNotFound})
	}
	if e.cfg.LogStartEvents {
		e.logger.Info("flow.function.start", "function", fc.Name, "function_call_id", fc.ID)
	}

	start := time.Now()
	resp := registry.Execute(ctx, fc)
	dur := time.Since(start)

	var callErr error
	if resp.Error != "" {
		callErr = errors.New(resp.Error)
	}
	logging.ToolCall(e.logger, fc.Name, dur, callErr)
	return resp
}
