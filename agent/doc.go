// Package agent contains the model-centric agent implementation and its
// supporting utilities. It focuses on three concerns:
//
//  1. Base lifecycle plumbing (BaseAgent)
//  2. Instruction resolution (static text or runtime providers)
//  3. The conversational, tool-calling ModelAgent
//
// Design principles:
//   - Minimal hidden global state, explicit wiring via Runner/RunContext
//   - Observability with structured logging at start/stop and event forwarding
//   - Extensibility by embedding BaseAgent and implementing Run
//
// Persistence, model specifics and tool abstractions stay in their respective
// packages to avoid cyclic deps.
package agent
