package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewModel(func(o *Options) {
		o.BaseURL = srv.URL
		o.Model = "test-model"
	})
}

func drain(t *testing.T, respCh <-chan model.Response, errCh <-chan error) ([]model.Response, error) {
	t.Helper()
	var out []model.Response
	for r := range respCh {
		out = append(out, r)
	}
	return out, <-errCh
}

func TestGenerateStreaming(t *testing.T) {
	var gotReq chatRequest
	m := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":10,"eval_count":2}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Instructions: "You are a helpful AI assistant capable of using tools.",
		Contents:     []core.Content{core.NewUserText("hi")},
		Stream:       true,
	})

	out, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, out[0].Partial)
	assert.Equal(t, "Hel", out[0].Content.Text())
	assert.False(t, out[2].Partial)
	assert.Equal(t, "Hello", out[2].Content.Text())
	assert.Equal(t, "stop", out[2].FinishReason)
	require.NotNil(t, out[2].Usage)
	assert.Equal(t, 12, out[2].Usage.TotalTokens)

	// Wire request carries system message first, then user text.
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.True(t, gotReq.Stream)
}

func TestGenerateToolCalls(t *testing.T) {
	m := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"get_current_time","arguments":{"timezone":"Asia/Seoul"}}}]},"done":true,"done_reason":"stop"}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserText("what time is it?")},
		Tools: []model.ToolDefinition{{
			Type:     "function",
			Function: model.FunctionDefinition{Name: "get_current_time"},
		}},
	})

	out, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "tool_calls", out[0].FinishReason)

	calls := out[0].Content.Parts
	require.Len(t, calls, 1)
	fc := calls[0].(core.FunctionCallPart).FunctionCall
	assert.Equal(t, "get_current_time", fc.Name)
	assert.NotEmpty(t, fc.ID, "IDs are synthesized")
	assert.JSONEq(t, `{"timezone":"Asia/Seoul"}`, fc.Arguments)
}

func TestGenerateToolResponsesOnWire(t *testing.T) {
	var gotReq chatRequest
	m := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"It is noon."},"done":true,"done_reason":"stop"}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{
			core.NewUserText("what time is it?"),
			{Role: "assistant", Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID: "call-1", Name: "get_current_time", Arguments: `{"timezone":"UTC"}`,
				}},
			}},
			{Role: "tool", Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID: "call-1", Name: "get_current_time", Response: "12:00",
				}},
			}},
		},
	})

	out, err := drain(t, respCh, errCh)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "It is noon.", out[0].Content.Text())

	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "assistant", gotReq.Messages[1].Role)
	require.Len(t, gotReq.Messages[1].ToolCalls, 1)
	assert.Equal(t, "tool", gotReq.Messages[2].Role)
	assert.Equal(t, "12:00", gotReq.Messages[2].Content)
	assert.Equal(t, "get_current_time", gotReq.Messages[2].ToolName)
}

func TestGenerateServerError(t *testing.T) {
	m := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserText("hi")},
	})

	_, err := drain(t, respCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateInBandError(t *testing.T) {
	m := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"out of memory"}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Contents: []core.Content{core.NewUserText("hi")},
	})

	_, err := drain(t, respCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestDefaults(t *testing.T) {
	m := NewModel()
	assert.Equal(t, DefaultModel, m.Info().Name)
	assert.Equal(t, "ollama", m.Info().Provider)
	assert.True(t, m.Info().SupportsTools)
}
