package mcp

import "fmt"

// RPCError is a JSON-RPC error object returned by a server.
type RPCError struct {
	Code    int64
	Message string
	Data    []byte
}

func (e *RPCError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("mcp rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("mcp rpc error %d", e.Code)
}

// HTTPStatusError is returned by the HTTP transport on a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp http %s: status %d: %s", e.URL, e.StatusCode, string(e.Body))
}

// ClientError wraps client-side failures (transport, parsing, lifecycle).
type ClientError struct {
	Server string // configured server name, if known
	Op     string // "initialize", "request", "notify"
	Method string // JSON-RPC method if applicable
	Cause  error
}

func (e *ClientError) Error() string {
	if e == nil {
		return ""
	}
	prefix := "mcp"
	if e.Server != "" {
		prefix = fmt.Sprintf("mcp server %q", e.Server)
	}
	if e.Method != "" {
		return fmt.Sprintf("%s %s (%s): %v", prefix, e.Op, e.Method, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", prefix, e.Op, e.Cause)
}

func (e *ClientError) Unwrap() error { return e.Cause }

// CallToolError wraps failures returned while calling an MCP tool.
type CallToolError struct {
	ToolName string
	Cause    error
}

func (e *CallToolError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("mcp call tool %q: %v", e.ToolName, e.Cause)
	}
	return fmt.Sprintf("mcp call tool %q", e.ToolName)
}

func (e *CallToolError) Unwrap() error { return e.Cause }
