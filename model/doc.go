// Package model defines the provider-agnostic abstractions for interacting
// with generative backends.
//
// Core goals:
//   - Unify text generation with function calling behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Expose media generation (image, video, music) as optional interfaces so
//     missing capabilities are detected instead of silently skipped
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Backends (gemini, openai, anthropic) implement Model in subpackages so higher
// layers (flow, provider) remain decoupled from vendor SDKs.
package model
