package flow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/model"
	"github.com/ntkjh80/mcp-study/session"
	"github.com/ntkjh80/mcp-study/tool"
)

type execMockTool struct {
	name        string
	delay       time.Duration
	result      any
	err         error
	panicMsg    any
	actionState map[string]any
}

func (mt *execMockTool) Name() string               { return mt.name }
func (mt *execMockTool) Description() string        { return "mock tool" }
func (mt *execMockTool) Parameters() map[string]any { return map[string]any{} }

func (mt *execMockTool) Call(tc *core.ToolContext, _ map[string]any) (any, error) {
	if mt.delay > 0 {
		select {
		case <-time.After(mt.delay):
		case <-tc.Context().Done():
			return nil, tc.Context().Err()
		}
	}
	if mt.panicMsg != nil {
		panic(mt.panicMsg)
	}
	for k, v := range mt.actionState {
		tc.SetState(k, v)
	}
	return mt.result, mt.err
}

type execAgent struct {
	name  string
	tools map[string]tool.Tool
}

func (a *execAgent) GetName() string                                      { return a.name }
func (a *execAgent) GetLLM() model.Model                                  { return nil }
func (a *execAgent) ResolveInstructions(*core.RunContext) (string, error) { return "", nil }
func (a *execAgent) GetTools() map[string]tool.Tool                       { return a.tools }
func (a *execAgent) Temperature() *float64                                { return nil }
func (a *execAgent) IsFunctionCallingEnabled() bool                       { return true }
func (a *execAgent) IsStreamingEnabled() bool                             { return false }
func (a *execAgent) GetOutputKey() string                                 { return "" }
func (a *execAgent) MaxHistoryMessages() int                              { return 50 }

func (a *execAgent) ExecuteTool(toolCtx *core.ToolContext, toolName string, args string) (any, error) {
	impl, ok := a.tools[toolName]
	if !ok {
		return nil, errors.New("tool " + toolName + " not found")
	}

	var argMap map[string]any
	if args == "" {
		argMap = map[string]any{}
	} else if err := json.Unmarshal([]byte(args), &argMap); err != nil {
		return nil, err
	}

	return impl.Call(toolCtx, argMap)
}

func newExecRunContext(t *testing.T) *core.RunContext {
	t.Helper()

	store := session.NewInMemoryStore()
	sess, err := store.Create("sess")
	require.NoError(t, err)

	eventChan := make(chan core.Event, 100)
	userContent := core.NewUserText("msg")

	return core.NewRunContext(
		context.Background(),
		"sess", "run",
		core.AgentInfo{Name: "agent", Type: "test"},
		userContent,
		100,
		eventChan, nil,
		sess,
		store, nil, nil,
		logging.NoOpLogger{},
	)
}

func TestFunctionExecutorSingle(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{
		"one": &execMockTool{name: "one", result: 42},
	}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 4, PreserveOrder: true})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{{ID: "1", Name: "one", Arguments: "{}"}}

	var events []core.Event
	emit := func(ev core.Event) error { events = append(events, ev); return nil }

	te.Execute(rc, a, fnCalls, emit)

	require.Len(t, events, 1)

	frs := events[0].GetFunctionResponses()
	require.Len(t, frs, 1)
	assert.Equal(t, "one", frs[0].Name)
	assert.Equal(t, 42, frs[0].Response)
	assert.Empty(t, frs[0].Error)
}

func TestFunctionExecutorParallelUnordered(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{
		"slow": &execMockTool{name: "slow", delay: 60 * time.Millisecond, result: "s"},
		"fast": &execMockTool{name: "fast", delay: 5 * time.Millisecond, result: "f"},
	}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2, PreserveOrder: false})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{
		{ID: "1", Name: "slow", Arguments: "{}"},
		{ID: "2", Name: "fast", Arguments: "{}"},
	}

	var order []string
	emit := func(ev core.Event) error {
		order = append(order, ev.GetFunctionResponses()[0].Name)
		return nil
	}

	start := time.Now()
	te.Execute(rc, a, fnCalls, emit)
	elapsed := time.Since(start)

	require.Len(t, order, 2)
	assert.Equal(t, "fast", order[0])
	assert.Less(t, elapsed, 90*time.Millisecond, "expected parallel speedup")
}

func TestFunctionExecutorPreserveOrder(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{
		"slow": &execMockTool{name: "slow", delay: 40 * time.Millisecond, result: "s"},
		"fast": &execMockTool{name: "fast", result: "f"},
	}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{MaxParallel: 2, PreserveOrder: true})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{
		{ID: "1", Name: "slow", Arguments: "{}"},
		{ID: "2", Name: "fast", Arguments: "{}"},
	}

	var order []string
	emit := func(ev core.Event) error {
		order = append(order, ev.GetFunctionResponses()[0].Name)
		return nil
	}

	te.Execute(rc, a, fnCalls, emit)

	assert.Equal(t, []string{"slow", "fast"}, order)
}

func TestFunctionExecutorPanicRecovery(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{
		"boom": &execMockTool{name: "boom", panicMsg: "kaboom"},
	}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{{ID: "1", Name: "boom", Arguments: "{}"}}

	var events []core.Event
	emit := func(ev core.Event) error { events = append(events, ev); return nil }

	te.Execute(rc, a, fnCalls, emit)

	require.Len(t, events, 1)

	frs := events[0].GetFunctionResponses()
	require.Len(t, frs, 1)
	assert.Equal(t, "panic recovered", frs[0].Error)
}

func TestFunctionExecutorUnknownTool(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{{ID: "1", Name: "missing", Arguments: "{}"}}

	var events []core.Event
	emit := func(ev core.Event) error { events = append(events, ev); return nil }

	te.Execute(rc, a, fnCalls, emit)

	require.Len(t, events, 1)
	assert.Contains(t, events[0].GetFunctionResponses()[0].Error, "not found")
}

func TestFunctionExecutorAppliesToolActions(t *testing.T) {
	a := &execAgent{name: "A", tools: map[string]tool.Tool{
		"writer": &execMockTool{name: "writer", result: "ok", actionState: map[string]any{"written": true}},
	}}
	te := NewParallelFunctionExecutor(FunctionExecutorConfig{})
	rc := newExecRunContext(t)

	fnCalls := []core.FunctionCall{{ID: "1", Name: "writer", Arguments: "{}"}}

	var events []core.Event
	emit := func(ev core.Event) error { events = append(events, ev); return nil }

	te.Execute(rc, a, fnCalls, emit)

	require.Len(t, events, 1)
	assert.Equal(t, true, events[0].Actions.StateDelta["written"])
}
