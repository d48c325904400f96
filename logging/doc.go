// Package logging provides the minimal logging interface used across dreamscape.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the conversation loop, providers and the world generator use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - ContextLogger, a structured logger with component attributes and
//     domain helpers for tool calls, model calls and generated artifacts
//   - NoOpLogger for silent operation (tests, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	ds, err := dreamscape.New(func(o *dreamscape.Options) { o.Logger = logger })
package logging
