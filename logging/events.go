package logging

import "time"

// ToolCallLogger is implemented by loggers with a dedicated tool call record.
type ToolCallLogger interface {
	LogToolCall(tool string, dur time.Duration, err error)
}

// ModelCallLogger is implemented by loggers with a dedicated model call record.
type ModelCallLogger interface {
	LogModelCall(model string, tokens int, dur time.Duration, err error)
}

// ArtifactLogger is implemented by loggers with a dedicated artifact record.
type ArtifactLogger interface {
	LogArtifact(step, path string, recovered bool, dur time.Duration)
}

// ToolCall records a tool invocation on l, using LogToolCall when l
// provides it.
func ToolCall(l Logger, tool string, dur time.Duration, err error) {
	if tl, ok := l.(ToolCallLogger); ok {
		tl.LogToolCall(tool, dur, err)
		return
	}
	logToolCall(OrNoOp(l), tool, dur, err)
}

// ModelCall records a model call on l, using LogModelCall when l provides it.
func ModelCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if ml, ok := l.(ModelCallLogger); ok {
		ml.LogModelCall(model, tokens, dur, err)
		return
	}
	logModelCall(OrNoOp(l), model, tokens, dur, err)
}

// Artifact records one artifact step on l, using LogArtifact when l
// provides it.
func Artifact(l Logger, step, path string, recovered bool, dur time.Duration) {
	if al, ok := l.(ArtifactLogger); ok {
		al.LogArtifact(step, path, recovered, dur)
		return
	}
	logArtifact(OrNoOp(l), step, path, recovered, dur)
}

func logToolCall(l Logger, tool string, dur time.Duration, err error) {
	if err != nil {
		l.Warn("tool.call.error", "tool_name", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool.call.completed", "tool_name", tool, "duration_ms", dur.Milliseconds())
}

func logModelCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if err != nil {
		l.Warn("model.call.failed", "model", model, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Debug("model.call.completed", "model", model, "token_count", tokens, "duration_ms", dur.Milliseconds())
}

func logArtifact(l Logger, step, path string, recovered bool, dur time.Duration) {
	l.Info("world.step.completed", "step", step, "path", path, "recovered", recovered, "duration_ms", dur.Milliseconds())
}
