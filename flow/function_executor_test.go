package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teMockTool struct {
	name     string
	delay    time.Duration
	result   any
	err      error
	panicMsg any
	running  *int32
	peak     *int32
}

func (mt *teMockTool) Name() string               { return mt.name }
func (mt *teMockTool) Description() string        { return "mock tool" }
func (mt *teMockTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (mt *teMockTool) Call(ctx context.Context, _ map[string]any) (any, error) {
	if mt.running != nil {
		cur := atomic.AddInt32(mt.running, 1)
		defer atomic.AddInt32(mt.running, -1)
		for {
			p := atomic.LoadInt32(mt.peak)
			if cur <= p || atomic.CompareAndSwapInt32(mt.peak, p, cur) {
				break
			}
		}
	}
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}
	return mt.result, mt.err
}

func newRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	r, err := tool.NewRegistry(tools...)
	require.NoError(t, err)
	return r
}

func TestFunctionExecutor_PreservesOrder(t *testing.T) {
	reg := newRegistry(t,
		&teMockTool{name: "slow", delay: 30 * time.Millisecond, result: "slow"},
		&teMockTool{name: "fast", result: "fast"},
	)
	exec := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 4})

	out := exec.Execute(context.Background(), reg, []core.FunctionCall{
		{ID: "1", Name: "slow"},
		{ID: "2", Name: "fast"},
		{ID: "3", Name: "slow"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, map[string]any{"result": "slow"}, out[0].Response)
	assert.Equal(t, map[string]any{"result": "fast"}, out[1].Response)
}

func TestFunctionExecutor_DefaultIsSequential(t *testing.T) {
	var running, peak int32
	reg := newRegistry(t, &teMockTool{name: "t", delay: 5 * time.Millisecond, running: &running, peak: &peak})

	out := NewParallelFunctionExecutor(FunctionExecutorConfig{}).Execute(context.Background(), reg, []core.FunctionCall{
		{ID: "1", Name: "t"}, {ID: "2", Name: "t"}, {ID: "3", Name: "t"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestFunctionExecutor_RespectsMaxParallel(t *testing.T) {
	var running, peak int32
	reg := newRegistry(t, &teMockTool{name: "t", delay: 20 * time.Millisecond, running: &running, peak: &peak})

	calls := make([]core.FunctionCall, 6)
	for i := range calls {
		calls[i] = core.FunctionCall{ID: string(rune('a' + i)), Name: "t"}
	}
	out := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2}).Execute(context.Background(), reg, calls)

	require.Len(t, out, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFunctionExecutor_ErrorsBecomePayloads(t *testing.T) {
	reg := newRegistry(t,
		&teMockTool{name: "boom", panicMsg: "kaboom"},
		&teMockTool{name: "fail", err: errors.New("db down")},
	)
	out := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 3}).Execute(context.Background(), reg, []core.FunctionCall{
		{ID: "1", Name: "boom"},
		{ID: "2", Name: "fail"},
		{ID: "3", Name: "missing"},
	})

	require.Len(t, out, 3)
	for _, r := range out {
		assert.NotEmpty(t, r.Error)
		assert.Contains(t, r.Response, "error")
	}
	assert.Contains(t, out[0].Response["error"], "kaboom")
	assert.Contains(t, out[1].Response["error"], "db down")
}

func TestFunctionExecutor_Cancelled(t *testing.T) {
	reg := newRegistry(t, &teMockTool{name: "t", result: "ok"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2}).Execute(ctx, reg, []core.FunctionCall{
		{ID: "1", Name: "t"}, {ID: "2", Name: "t"},
	})

	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, map[string]any{"error": "context canceled"}, r.Response)
	}
}

func TestFunctionExecutor_Empty(t *testing.T) {
	assert.Nil(t, NewParallelFunctionExecutor(FunctionExecutorConfig{}).Execute(context.Background(), nil, nil))
}
