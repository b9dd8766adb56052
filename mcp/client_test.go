package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport scripts JSON-RPC responses by method and records traffic.
type fakeTransport struct {
	results map[string]json.RawMessage
	errors  map[string]*rpcError

	calls    []rpcRequest
	notifies []string
	closed   bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		results: map[string]json.RawMessage{
			"initialize": json.RawMessage(`{
				"protocolVersion": "2024-11-05",
				"serverInfo": {"name": "fake-server", "version": "1.0.0"}
			}`),
		},
		errors: map[string]*rpcError{},
	}
}

func (f *fakeTransport) Call(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	var parsed rpcRequest
	if err := json.Unmarshal(req, &parsed); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, parsed)

	resp := rpcResponse{JSONRPC: "2.0", ID: parsed.ID}
	if rpcErr, ok := f.errors[parsed.Method]; ok {
		resp.Error = rpcErr
	} else if result, ok := f.results[parsed.Method]; ok {
		resp.Result = result
	} else {
		return nil, fmt.Errorf("unexpected method %s", parsed.Method)
	}
	return json.Marshal(resp)
}

func (f *fakeTransport) Notify(ctx context.Context, msg json.RawMessage) error {
	var parsed rpcRequest
	if err := json.Unmarshal(msg, &parsed); err != nil {
		return err
	}
	f.notifies = append(f.notifies, parsed.Method)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func newConnectedClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	client, err := NewClient("fake", ft)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	return client
}

func TestClientConnect(t *testing.T) {
	ft := newFakeTransport()
	client := newConnectedClient(t, ft)

	assert.Equal(t, "fake-server", client.ServerInfo().Name)

	require.Len(t, ft.calls, 1)
	assert.Equal(t, "initialize", ft.calls[0].Method)
	assert.EqualValues(t, 1, ft.calls[0].ID)
	assert.Equal(t, []string{"notifications/initialized"}, ft.notifies)

	// Connect is idempotent.
	require.NoError(t, client.Connect(context.Background()))
	assert.Len(t, ft.calls, 1)
}

func TestClientListTools(t *testing.T) {
	ft := newFakeTransport()
	ft.results["tools/list"] = json.RawMessage(`{
		"tools": [
			{"name": "get_current_time", "description": "Current time in a timezone",
			 "inputSchema": {"type": "object", "properties": {"timezone": {"type": "string"}}}}
		]
	}`)

	client := newConnectedClient(t, ft)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "get_current_time", tools[0].Name)
	assert.NotEmpty(t, tools[0].InputSchema)
}

func TestClientCallTool(t *testing.T) {
	t.Run("single text collapses to string", func(t *testing.T) {
		ft := newFakeTransport()
		ft.results["tools/call"] = json.RawMessage(`{
			"content": [{"type": "text", "text": "12:00"}]
		}`)
		client := newConnectedClient(t, ft)

		out, err := client.CallTool(context.Background(), "get_current_time", map[string]any{"timezone": "UTC"})
		require.NoError(t, err)
		assert.Equal(t, "12:00", out)

		last := ft.calls[len(ft.calls)-1]
		assert.Equal(t, "tools/call", last.Method)
	})

	t.Run("multiple parts stay structured", func(t *testing.T) {
		ft := newFakeTransport()
		ft.results["tools/call"] = json.RawMessage(`{
			"content": [{"type": "text", "text": "a"}, {"type": "text", "text": "b"}]
		}`)
		client := newConnectedClient(t, ft)

		out, err := client.CallTool(context.Background(), "multi", nil)
		require.NoError(t, err)
		result, ok := out.(CallToolResult)
		require.True(t, ok)
		assert.Len(t, result.Content, 2)
	})

	t.Run("isError surfaces as CallToolError", func(t *testing.T) {
		ft := newFakeTransport()
		ft.results["tools/call"] = json.RawMessage(`{
			"content": [{"type": "text", "text": "unknown timezone"}],
			"isError": true
		}`)
		client := newConnectedClient(t, ft)

		_, err := client.CallTool(context.Background(), "get_current_time", nil)
		var callErr *CallToolError
		require.ErrorAs(t, err, &callErr)
		assert.Equal(t, "get_current_time", callErr.ToolName)
		assert.Contains(t, err.Error(), "unknown timezone")
	})

	t.Run("rpc error", func(t *testing.T) {
		ft := newFakeTransport()
		ft.errors["tools/call"] = &rpcError{Code: -32601, Message: "method not found"}
		client := newConnectedClient(t, ft)

		_, err := client.CallTool(context.Background(), "nope", nil)
		var rpcErr *RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.EqualValues(t, -32601, rpcErr.Code)
	})
}

func TestClientResources(t *testing.T) {
	ft := newFakeTransport()
	ft.results["resources/list"] = json.RawMessage(`{
		"resources": [{"uri": "k8s://kube-contexts", "name": "kube-contexts"}]
	}`)
	ft.results["resources/read"] = json.RawMessage(`{
		"contents": [{"uri": "k8s://kube-contexts", "text": "[]", "mimeType": "application/json"}]
	}`)

	client := newConnectedClient(t, ft)

	resources, err := client.ListResources(context.Background())
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "k8s://kube-contexts", resources[0].URI)

	res, err := client.ReadResource(context.Background(), "k8s://kube-contexts")
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "[]", res.Contents[0].Text)
}

func TestClientClose(t *testing.T) {
	ft := newFakeTransport()
	client := newConnectedClient(t, ft)
	require.NoError(t, client.Close())
	assert.True(t, ft.closed)
}

func TestToolContentPartText(t *testing.T) {
	part := NewTextContent("hello")
	assert.Equal(t, "text", part.Type)
	assert.Equal(t, "hello", part.Text())

	var decoded ToolContentPart
	require.NoError(t, json.Unmarshal([]byte(`{"type":"image","data":"zzz"}`), &decoded))
	assert.Equal(t, "image", decoded.Type)
	assert.Empty(t, decoded.Text())
}
