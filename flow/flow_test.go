package flow

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

type mockFlowAgent struct {
	name        string
	llm         model.Model
	tools       map[string]tool.Tool
	streaming   bool
	temperature *float64
}

func (m *mockFlowAgent) GetName() string     { return m.name }
func (m *mockFlowAgent) GetLLM() model.Model { return m.llm }
func (m *mockFlowAgent) ResolveInstructions(runCtx *core.RunContext) (string, error) {
	return "You are a test assistant.", nil
}
func (m *mockFlowAgent) GetTools() map[string]tool.Tool { return m.tools }
func (m *mockFlowAgent) Temperature() *float64          { return m.temperature }
func (m *mockFlowAgent) IsFunctionCallingEnabled() bool { return len(m.tools) > 0 }
func (m *mockFlowAgent) IsStreamingEnabled() bool       { return m.streaming }
func (m *mockFlowAgent) GetOutputKey() string           { return "" }
func (m *mockFlowAgent) MaxHistoryMessages() int        { return 10 }

func (m *mockFlowAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (any, error) {
	impl, ok := m.tools[toolName]
	if !ok {
		return nil, assert.AnError
	}
	return impl.Call(toolCtx, map[string]any{})
}

// newFlowRunContext builds a run context backed by a real session store with
// the user message already persisted, plus a consumer goroutine that plays the
// runner's role: it appends every event to the store and signals resume.
func newFlowRunContext(t *testing.T, userText string) (*core.RunContext, *session.InMemoryStore) {
	t.Helper()

	ctx := context.Background()
	store := session.NewInMemoryStore()
	sess, err := store.Create("test-session")
	require.NoError(t, err)

	require.NoError(t, store.AppendEvent("test-session", core.NewUserMessageEvent("test-run", userText)))

	eventChan := make(chan core.Event, 100)
	resume := make(chan struct{}, 100)

	go func() {
		for ev := range eventChan {
			if !ev.IsPartial() {
				_ = store.AppendEvent("test-session", ev)
				resume <- struct{}{}
			}
		}
	}()

	runCtx := core.NewRunContext(
		ctx,
		"test-session", "test-run",
		core.AgentInfo{Name: "TestAgent", Type: "flow-test"},
		core.NewUserText(userText),
		100,
		eventChan, resume,
		sess,
		store, nil, nil,
		logging.NoOpLogger{},
	)

	return runCtx, store
}

// collectEvents drains the channel returned by Execute, forwarding every event
// to runCtx.Emit so the helper's consumer goroutine can persist it and signal
// resume — the same relay the ModelAgent performs in production.
func collectEvents(t *testing.T, runCtx *core.RunContext, ch <-chan core.Event) []core.Event {
	t.Helper()

	var events []core.Event
	for ev := range ch {
		events = append(events, ev)
		runCtx.Emit <- ev
	}
	return events
}

func TestSingleAgentFlow(t *testing.T) {
	mockModel := model.NewMockModel("test-model", "mock")
	mockModel.AddResponse("test message", "Hello! This is a test response.")

	agent := &mockFlowAgent{name: "test-agent", llm: mockModel}
	runCtx, _ := newFlowRunContext(t, "test message")

	f := NewSingleAgentFlow(agent)

	eventChan, err := f.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, runCtx, eventChan)
	require.NotEmpty(t, events)

	final := events[len(events)-1]
	require.NotNil(t, final.Content)
	assert.Equal(t, "Hello! This is a test response.", final.Content.Text())
	require.NotNil(t, final.TurnComplete)
	assert.True(t, *final.TurnComplete)
}

func TestSingleAgentFlowStreaming(t *testing.T) {
	mockModel := model.NewMockModel("test-model", "mock")
	mockModel.AddResponse("hi", "abc")

	agent := &mockFlowAgent{name: "test-agent", llm: mockModel, streaming: true}
	runCtx, _ := newFlowRunContext(t, "hi")

	f := NewSingleAgentFlow(agent)

	eventChan, err := f.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, runCtx, eventChan)

	var partials int
	for _, ev := range events {
		if ev.IsPartial() {
			partials++
		}
	}

	assert.Equal(t, 3, partials)
	assert.True(t, events[len(events)-1].IsFinalResponse())
}

// A long streamed answer overflows the adapter's response buffer, so the
// producer finishes and closes its channels while the flow is still reading.
// The final response must survive that close ordering on every run.
func TestSingleAgentFlowLongStreamedAnswer(t *testing.T) {
	const answer = "The current time in Asia/Seoul is 2026-08-29 12:00:00 KST, enjoy your day."

	for i := 0; i < 200; i++ {
		mockModel := model.NewMockModel("test-model", "mock")
		mockModel.AddResponse("what time is it", answer)

		agent := &mockFlowAgent{name: "test-agent", llm: mockModel, streaming: true}
		runCtx, _ := newFlowRunContext(t, "what time is it")

		f := NewSingleAgentFlow(agent)

		eventChan, err := f.Execute(runCtx)
		require.NoError(t, err)

		events := collectEvents(t, runCtx, eventChan)
		require.NotEmpty(t, events)

		final := events[len(events)-1]
		require.True(t, final.IsFinalResponse(), "run %d ended on a partial", i)
		require.Equal(t, answer, final.Content.Text(), "run %d lost the final response", i)
	}
}

func TestSingleAgentFlowToolLoop(t *testing.T) {
	echo := tool.NewFunctionTool(
		"echo", "Echoes a fixed value.",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			return "echoed", nil
		},
	)

	mockModel := model.NewMockModel("test-model", "mock")
	mockModel.AddToolCallResponse("use the tool", core.FunctionCall{ID: "fc-1", Name: "echo", Arguments: "{}"})
	mockModel.AddResponse("use the tool", "Tool said: echoed")

	agent := &mockFlowAgent{
		name:  "test-agent",
		llm:   mockModel,
		tools: map[string]tool.Tool{"echo": echo},
	}
	runCtx, _ := newFlowRunContext(t, "use the tool")

	f := NewSingleAgentFlow(agent)

	eventChan, err := f.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, runCtx, eventChan)
	require.GreaterOrEqual(t, len(events), 3)

	var sawCall, sawResponse bool
	for _, ev := range events {
		if len(ev.GetFunctionCalls()) > 0 {
			sawCall = true
		}
		if frs := ev.GetFunctionResponses(); len(frs) > 0 {
			sawResponse = true
			assert.Equal(t, "echo", frs[0].Name)
			assert.Equal(t, "echoed", frs[0].Response)
		}
	}

	assert.True(t, sawCall)
	assert.True(t, sawResponse)
	assert.Equal(t, "Tool said: echoed", events[len(events)-1].Content.Text())
}

func TestBaseFlowModelCallLimit(t *testing.T) {
	mockModel := model.NewMockModel("test-model", "mock")

	agent := &mockFlowAgent{name: "test-agent", llm: mockModel}

	runCtx, _ := newFlowRunContext(t, "anything")
	runCtx.Limiter = core.NewModelLimiter(1)
	require.NoError(t, runCtx.Limiter.Increment())

	f := NewSingleAgentFlow(agent)

	eventChan, err := f.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, runCtx, eventChan)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.NotNil(t, last.ErrorMessage)
	assert.Contains(t, *last.ErrorMessage, "exceeded max model calls")
}

func TestBaseFlowModelError(t *testing.T) {
	mockModel := model.NewMockModel("test-model", "mock")

	agent := &mockFlowAgent{name: "test-agent", llm: mockModel}
	runCtx, store := newFlowRunContext(t, "hello")

	// Wipe the session history so the model receives no contents and fails.
	_, err := store.Create("test-session")
	require.NoError(t, err)

	f := NewSingleAgentFlow(agent)

	eventChan, err := f.Execute(runCtx)
	require.NoError(t, err)

	events := collectEvents(t, runCtx, eventChan)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.NotNil(t, last.ErrorMessage)
	assert.Contains(t, *last.ErrorMessage, "model generation failed")
}
