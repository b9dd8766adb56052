// Package flow provides the model-turn execution pipeline for agents.
//
// A flow drives the request -> model -> (optional tool loop) cycle with
// pluggable request processors, relaying model output as events. This keeps
// prompt assembly, model invocation and tool execution separately testable.
package flow

import (
	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/model"
	"github.com/ntkjh80/mcp-study/tool"
)

// Flow defines the interface for agent execution flows.
type Flow interface {
	// Execute runs the flow with the given run context. It returns a channel
	// of events that represent the execution progress.
	Execute(runCtx *core.RunContext) (<-chan core.Event, error)
}

// FlowAgent defines the interface agents must implement to work with flows.
//
// It exposes agent capabilities to the flow without leaking the full agent
// implementation.
type FlowAgent interface {
	// GetName returns the agent's display name.
	GetName() string

	// GetLLM returns the language model instance.
	GetLLM() model.Model

	// ResolveInstructions returns the system prompt for the current run.
	ResolveInstructions(runCtx *core.RunContext) (string, error)

	// GetTools returns the registered tools for function calling.
	GetTools() map[string]tool.Tool

	// Temperature returns the sampling temperature override, nil for the
	// model default.
	Temperature() *float64

	// IsFunctionCallingEnabled returns whether function calling is enabled.
	IsFunctionCallingEnabled() bool

	// IsStreamingEnabled returns whether streaming responses are enabled.
	IsStreamingEnabled() bool

	// GetOutputKey returns the session state key for saving final responses,
	// or "" to skip.
	GetOutputKey() string

	// MaxHistoryMessages returns the maximum number of conversation history
	// messages to keep.
	MaxHistoryMessages() int

	// ExecuteTool executes a named tool with JSON-encoded arguments.
	ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (any, error)
}

// RequestProcessor processes the request before sending it to the LLM.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the chat request before LLM execution.
	ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error
}

// ResponseProcessor processes the response after receiving it from the LLM.
type ResponseProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessResponse handles the LLM response and may generate additional events.
	ProcessResponse(runCtx *core.RunContext, resp *model.Response, agent FlowAgent) error
}
