package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Client drives the MCP lifecycle against a single server: initialize
// handshake, tool listing/calling and resource access.
type Client struct {
	name      string
	transport Transport
	info      ClientInfo

	nextID      atomic.Int64
	initialized atomic.Bool
	serverInfo  ServerInfo
}

// ClientOptions configure a Client.
type ClientOptions struct {
	// Info identifies this client during the handshake.
	Info ClientInfo
}

// NewClient wraps a transport. name is the configured server name and is used
// for error reporting only.
func NewClient(name string, transport Transport, optFns ...func(o *ClientOptions)) (*Client, error) {
	if transport == nil {
		return nil, fmt.Errorf("mcp: transport is required")
	}

	opts := ClientOptions{
		Info: ClientInfo{Name: "mcp-study", Version: "0.1.0"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	// nextID starts at zero so the first Add yields request id 1.
	c := &Client{name: name, transport: transport, info: opts.Info}
	return c, nil
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.name }

// ServerInfo returns the server identity reported during Connect.
func (c *Client) ServerInfo() ServerInfo { return c.serverInfo }

// Connect performs the MCP initialize handshake followed by the
// notifications/initialized notification. It is idempotent.
func (c *Client) Connect(ctx context.Context) error {
	if c.initialized.Load() {
		return nil
	}

	var result InitializeResult
	err := c.rpc(ctx, "initialize", initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.info,
	}, &result)
	if err != nil {
		return &ClientError{Server: c.name, Op: "initialize", Cause: err}
	}

	notif, _ := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	if err := c.transport.Notify(ctx, notif); err != nil {
		return &ClientError{Server: c.name, Op: "notify", Method: "notifications/initialized", Cause: err}
	}

	c.serverInfo = result.ServerInfo
	c.initialized.Store(true)
	return nil
}

// ListTools returns the tools advertised by the server.
func (c *Client) ListTools(ctx context.Context) ([]ToolInfo, error) {
	var result toolListResult
	if err := c.rpc(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool. A result consisting of a single text content part
// collapses to a plain string; anything else is returned as the structured
// CallToolResult. A result flagged isError surfaces as a CallToolError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	var result CallToolResult
	if err := c.rpc(ctx, "tools/call", callToolParams{Name: name, Arguments: args}, &result); err != nil {
		return nil, &CallToolError{ToolName: name, Cause: err}
	}

	if result.IsError {
		msg := "tool reported an error"
		if len(result.Content) > 0 {
			if text := result.Content[0].Text(); text != "" {
				msg = text
			}
		}
		return nil, &CallToolError{ToolName: name, Cause: fmt.Errorf("%s", msg)}
	}

	if len(result.Content) == 1 {
		if text := result.Content[0].Text(); text != "" {
			return text, nil
		}
	}
	return result, nil
}

// ListResources returns the resources advertised by the server.
func (c *Client) ListResources(ctx context.Context) ([]ResourceInfo, error) {
	var res resourcesListResult
	if err := c.rpc(ctx, "resources/list", nil, &res); err != nil {
		return nil, err
	}
	return res.Resources, nil
}

// ReadResource fetches the contents of a resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error) {
	var res ReadResourceResult
	if err := c.rpc(ctx, "resources/read", readResourceParams{URI: uri}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Close shuts the underlying transport down.
func (c *Client) Close() error {
	if c == nil || c.transport == nil {
		return nil
	}
	return c.transport.Close()
}

func (c *Client) rpc(ctx context.Context, method string, params any, out any) error {
	if c == nil || c.transport == nil {
		return fmt.Errorf("mcp: client is nil")
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}

	rawResp, err := c.transport.Call(ctx, b)
	if err != nil {
		return &ClientError{Server: c.name, Op: "request", Method: method, Cause: err}
	}

	var resp rpcResponse
	if err := json.Unmarshal(rawResp, &resp); err != nil {
		return &ClientError{Server: c.name, Op: "request", Method: method, Cause: err}
	}
	if resp.Error != nil {
		return &RPCError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
	}
	if out == nil {
		return nil
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("mcp: empty result for %s", method)
	}
	return json.Unmarshal(resp.Result, out)
}
