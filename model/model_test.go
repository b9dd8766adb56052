package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
)

func collect(t *testing.T, respCh <-chan Response, errCh <-chan error) []Response {
	t.Helper()
	var out []Response
	for r := range respCh {
		out = append(out, r)
	}
	require.NoError(t, <-errCh)
	return out
}

func TestMockModelCannedResponse(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("hello", "hi there")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hello")},
	})

	out := collect(t, respCh, errCh)
	require.Len(t, out, 1)
	assert.False(t, out[0].Partial)
	assert.Equal(t, "hi there", out[0].Content.Text())
	assert.Equal(t, "stop", out[0].FinishReason)
}

func TestMockModelStreaming(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddResponse("hello", "hi")

	respCh, errCh := m.Generate(context.Background(), Request{
		Contents: []core.Content{core.NewUserText("hello")},
		Stream:   true,
	})

	out := collect(t, respCh, errCh)
	require.Len(t, out, 3) // "h", "i", final
	assert.True(t, out[0].Partial)
	assert.True(t, out[1].Partial)
	assert.False(t, out[2].Partial)
	assert.Equal(t, "hi", out[2].Content.Text())
}

func TestMockModelToolCalls(t *testing.T) {
	m := NewMockModel("test-model", "mock")
	m.AddToolCallResponse("what time is it?", core.FunctionCall{
		ID:        "call-1",
		Name:      "get_current_time",
		Arguments: `{"timezone":"Asia/Seoul"}`,
	})
	m.AddResponse("what time is it?", "It is noon.")

	req := Request{Contents: []core.Content{core.NewUserText("what time is it?")}}

	respCh, errCh := m.Generate(context.Background(), req)
	out := collect(t, respCh, errCh)
	require.Len(t, out, 1)
	assert.Equal(t, "tool_calls", out[0].FinishReason)

	calls := out[0].Content.Parts
	require.Len(t, calls, 1)
	fc := calls[0].(core.FunctionCallPart).FunctionCall
	assert.Equal(t, "get_current_time", fc.Name)

	// Second turn with tool results falls back to text.
	req.Contents = append(req.Contents,
		out[0].Content,
		core.Content{Role: "tool", Parts: []core.Part{
			core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
				ID: "call-1", Name: "get_current_time", Response: "12:00",
			}},
		}},
	)

	respCh, errCh = m.Generate(context.Background(), req)
	out = collect(t, respCh, errCh)
	require.Len(t, out, 1)
	assert.Equal(t, "It is noon.", out[0].Content.Text())
}

func TestMockModelNoContents(t *testing.T) {
	m := NewMockModel("test-model", "mock")

	respCh, errCh := m.Generate(context.Background(), Request{})
	for range respCh {
	}
	assert.Error(t, <-errCh)
}
