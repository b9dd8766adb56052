// Package model defines provider-agnostic abstractions for driving chat
// models, local or hosted, from agent flows.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Ollama, OpenAI-compatible endpoints, Anthropic) implement the
// Model interface so higher layers stay decoupled from vendor SDKs.
package model
