// Package core provides the foundational domain types, interfaces and execution
// contexts used by mcp-study. It defines the core abstractions for:
//
//   - Agents (the unit that drives a model/tool conversation)
//   - Sessions (stateful conversational containers with event history)
//   - Events (immutable communication records, including tool calls/results)
//   - RunContext / ToolContext (scoped execution & tool sandboxing)
//   - Pluggable stores for session state, artifacts and memory recall/search
//
// The package intentionally keeps implementation concerns (persistence, the
// tool-calling loop, concrete agents) out of scope, exposing small interfaces
// to enable custom backends and extensions.
package core
