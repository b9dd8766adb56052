package mcp

import (
	"context"
	"encoding/json"
)

// Transport sends JSON-RPC messages to an MCP server.
//
// Call sends a request and blocks for its response. Notify sends a
// notification (no id, no response expected). Implementations must be safe
// for concurrent use.
type Transport interface {
	Call(ctx context.Context, req json.RawMessage) (json.RawMessage, error)
	Notify(ctx context.Context, msg json.RawMessage) error
	Close() error
}
