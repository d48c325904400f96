package provider

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jason-allen-oneal/dreamscape-ai/core"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/model"
)

// RetryPolicy controls how failed backend calls are retried with
// exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns 2 attempts, 1s initial delay, 2x multiplier,
// 30s max delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  2,
		InitialDelay: time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

// isRetryable reports whether err may succeed on another attempt.
// Unsupported capabilities, cancellation and empty output are permanent.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, core.ErrUnsupportedCapability),
		errors.Is(err, context.Canceled),
		errors.Is(err, ErrEmptyOutput):
		return false
	}
	return true
}

// NextDelay returns the backoff delay for the given attempt (1-indexed),
// capped at MaxDelay.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Do runs fn up to MaxAttempts times. Each attempt receives its own context
// bounded by timeout (no bound when timeout <= 0). The parent context is
// honored between attempts.
func (p *RetryPolicy) Do(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	attempts := 1
	if p != nil && p.MaxAttempts > 1 {
		attempts = p.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = callWithTimeout(ctx, timeout, fn)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || !isRetryable(lastErr) || ctx.Err() != nil {
			break
		}

		timer := time.NewTimer(p.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func callWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}

// boundedModel applies the call timeout and retry policy to every send of
// the conversation loop. Retries stay below the loop, so the send cap counts
// logical sends and each send costs at most MaxAttempts backend requests.
type boundedModel struct {
	next    model.Model
	policy  *RetryPolicy
	timeout time.Duration
	logger  logging.Logger
}

func (b *boundedModel) Generate(ctx context.Context, req model.Request) (*model.Response, error) {
	var resp *model.Response
	start := time.Now()
	err := b.policy.Do(ctx, b.timeout, func(ctx context.Context) error {
		r, err := b.next.Generate(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	tokens := 0
	if resp != nil && resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	logging.ModelCall(b.logger, b.next.Info().Name, tokens, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *boundedModel) Info() model.Info { return b.next.Info() }
