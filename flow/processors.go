package flow

import (
	"fmt"

	"github.com/ntkjh80/mcp-study/core"
	internalutil "github.com/ntkjh80/mcp-study/internal/util"
	"github.com/ntkjh80/mcp-study/model"
)

// InstructionsProcessor handles system prompt and instruction processing.
type InstructionsProcessor struct{}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor() *InstructionsProcessor { return &InstructionsProcessor{} }

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds system instructions to the chat request.
func (p *InstructionsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	instructions, err := agent.ResolveInstructions(runCtx)
	if err != nil {
		return fmt.Errorf("failed to resolve instructions: %w", err)
	}

	runCtx.LogDebug("agent.instruction.resolved", "agent", agent.GetName(), "length", len(instructions))

	if runCtx.Session != nil && runCtx.Session.State != nil {
		// Apply template substitution to the system prompt using session state.
		req.Instructions, err = internalutil.RenderTemplate(instructions, runCtx.Session.State)
		if err != nil {
			return fmt.Errorf("failed to render instructions template: %w", err)
		}
	} else {
		req.Instructions = instructions
	}

	return nil
}

// ContentsProcessor assembles the conversation contents for the chat request.
type ContentsProcessor struct{}

// NewContentsProcessor creates a new contents processor.
func NewContentsProcessor() *ContentsProcessor { return &ContentsProcessor{} }

// Name returns the processor's identifier.
func (p *ContentsProcessor) Name() string { return "contents" }

// ProcessRequest adds conversation history to the chat request, bounded by the
// agent's history window.
func (p *ContentsProcessor) ProcessRequest(runCtx *core.RunContext, req *model.Request, agent FlowAgent) error {
	contents := []core.Content{}

	if runCtx.Session != nil {
		events := runCtx.Session.GetConversationHistory()
		if maxMsgs := agent.MaxHistoryMessages(); maxMsgs > 0 && len(events) > maxMsgs {
			events = events[len(events)-maxMsgs:]
		}

		for _, ev := range events {
			if ev.Content != nil && len(ev.Content.Parts) > 0 {
				contents = append(contents, *ev.Content)
			}
		}
	}

	req.Contents = contents

	return nil
}
