package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/model"
	"github.com/ntkjh80/mcp-study/session"
	"github.com/ntkjh80/mcp-study/tool"
)

func newEchoTool() tool.Tool {
	return tool.NewFunctionTool(
		"echo", "Echoes the input back.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			return text, nil
		},
	)
}

func TestModelAgentDefaults(t *testing.T) {
	a := NewModelAgent("Helper", model.NewMockModel("m", "mock"))

	assert.Equal(t, "Helper", a.GetName())
	assert.True(t, a.IsStreamingEnabled())
	assert.True(t, a.IsFunctionCallingEnabled())
	assert.Equal(t, 20, a.MaxHistoryMessages())
	require.NotNil(t, a.Temperature())
	assert.Equal(t, DefaultTemperature, *a.Temperature())

	instr, err := a.ResolveInstructions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultInstruction, instr)
}

func TestModelAgentToolRegistry(t *testing.T) {
	a := NewModelAgent("Helper", model.NewMockModel("m", "mock"))

	a.RegisterTool(newEchoTool())

	assert.True(t, a.HasTool("echo"))
	assert.Equal(t, []string{"echo"}, a.ListTools())

	_, ok := a.GetTool("echo")
	assert.True(t, ok)

	assert.True(t, a.UnregisterTool("echo"))
	assert.False(t, a.HasTool("echo"))
	assert.False(t, a.UnregisterTool("echo"))
}

func TestModelAgentExecuteTool(t *testing.T) {
	a := NewModelAgent("Helper", model.NewMockModel("m", "mock"))
	a.RegisterTool(newEchoTool())

	store := session.NewInMemoryStore()
	sess, err := store.Create("s1")
	require.NoError(t, err)

	runCtx := core.NewRunContext(
		context.Background(),
		"s1", "r1",
		core.AgentInfo{Name: "Helper", Type: "model"},
		core.NewUserText("hi"),
		100,
		make(chan core.Event, 10), nil,
		sess,
		store, nil, nil,
		logging.NoOpLogger{},
	)
	toolCtx := core.NewToolContext(runCtx, "fc-1")

	result, err := a.ExecuteTool(toolCtx, "echo", `{"text":"hello"}`)
	require.NoError(t, err)
	assert.Equal(t, "hello", result)

	_, err = a.ExecuteTool(toolCtx, "missing", "{}")
	assert.ErrorContains(t, err, "not found")

	_, err = a.ExecuteTool(toolCtx, "echo", "{broken")
	assert.ErrorContains(t, err, "failed to unmarshal args")
}

func TestModelAgentRun(t *testing.T) {
	mockModel := model.NewMockModel("m", "mock")
	mockModel.AddResponse("ping", "pong")

	a := NewModelAgent("Helper", mockModel, func(o *ModelAgentOptions) {
		o.EnableStreaming = false
	})

	store := session.NewInMemoryStore()
	sess, err := store.Create("s1")
	require.NoError(t, err)
	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("r1", "ping")))

	emit := make(chan core.Event, 100)

	runCtx := core.NewRunContext(
		context.Background(),
		"s1", "r1",
		core.AgentInfo{Name: "Helper", Type: "model"},
		core.NewUserText("ping"),
		100,
		emit, nil,
		sess,
		store, nil, nil,
		logging.NoOpLogger{},
	)

	require.NoError(t, a.Run(runCtx))
	close(emit)

	var final *core.Event
	for ev := range emit {
		ev := ev
		if ev.IsFinalResponse() {
			final = &ev
		}
	}

	require.NotNil(t, final)
	assert.Equal(t, "pong", final.Content.Text())
}
