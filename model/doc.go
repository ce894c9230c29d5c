// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with reasoning engines inside schoolmate.
//
// Core goals:
//   - Keep generation behind a single channel based interface
//   - Normalize tool / function call representation (ToolDefinition, core.FunctionCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (OpenAI, Anthropic) implement the Model interface from this
// package so the agent stays decoupled from vendor SDKs. Every request is
// self-contained: no conversational state lives in a Model between calls.
package model
