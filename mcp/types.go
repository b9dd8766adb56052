package mcp

import "encoding/json"

// ProtocolVersion is the MCP revision this client speaks.
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 envelope types (subset used by MCP).

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MCP server types (subset).

// ToolInfo describes a tool advertised by a server via tools/list.
type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type toolListResult struct {
	Tools []ToolInfo `json:"tools"`
}

type callToolParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments,omitempty"`
}

// CallToolResult is the structured outcome of tools/call.
type CallToolResult struct {
	Content []ToolContentPart `json:"content,omitempty"`
	IsError bool              `json:"isError,omitempty"`
}

// ToolContentPart is a generic representation of MCP tool result content.
// Multiple part shapes exist; the raw payload is preserved alongside the type.
type ToolContentPart struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func (p *ToolContentPart) UnmarshalJSON(b []byte) error {
	p.Raw = append(p.Raw[:0], b...)
	var tmp struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	p.Type = tmp.Type
	return nil
}

// Text extracts the text payload of a text part, or "" for other types.
func (p ToolContentPart) Text() string {
	if p.Type != "text" {
		return ""
	}
	var t struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(p.Raw, &t); err != nil {
		return ""
	}
	return t.Text
}

// NewTextContent builds a text content part, mostly useful in tests and servers.
func NewTextContent(text string) ToolContentPart {
	raw, _ := json.Marshal(map[string]string{"type": "text", "text": text})
	return ToolContentPart{Type: "text", Raw: raw}
}

// Resources.

type resourcesListResult struct {
	Resources []ResourceInfo `json:"resources"`
}

// ResourceInfo describes a resource advertised via resources/list.
type ResourceInfo struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	MediaType   string `json:"mimeType,omitempty"`
}

type readResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult holds the contents returned by resources/read.
type ReadResourceResult struct {
	Contents []ResourceContent `json:"contents"`
}

// ResourceContent is a single content entry of a resource.
type ResourceContent struct {
	URI        string `json:"uri,omitempty"`
	Text       string `json:"text,omitempty"`
	BlobBase64 string `json:"blob,omitempty"`
	MediaType  string `json:"mimeType,omitempty"`
}

// Initialize / lifecycle.

// ClientInfo identifies this client during the initialize handshake.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      ClientInfo     `json:"clientInfo"`
}

// ServerInfo identifies the remote server after initialization.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is the server's half of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ServerInfo      ServerInfo     `json:"serverInfo"`
	Instructions    string         `json:"instructions,omitempty"`
}
