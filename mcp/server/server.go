// Package server implements a minimal MCP server over line-framed stdio,
// enough to host the bundled tool servers (time, weather, kube contexts).
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp"
)

// ToolHandler executes a tool call with decoded arguments.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

// ResourceHandler produces the text content of a resource.
type ResourceHandler func(ctx context.Context) (string, error)

type registeredTool struct {
	info    mcp.ToolInfo
	handler ToolHandler
}

type registeredResource struct {
	info    mcp.ResourceInfo
	handler ResourceHandler
}

// Server hosts tools and resources behind the MCP wire protocol.
type Server struct {
	name    string
	version string
	logger  logging.Logger

	mu        sync.RWMutex
	tools     map[string]registeredTool
	resources map[string]registeredResource
}

// Options configure a Server.
type Options struct {
	Version string
	Logger  logging.Logger
}

// New creates a named MCP server.
func New(name string, optFns ...func(o *Options)) *Server {
	opts := Options{
		Version: "0.1.0",
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		name:      name,
		version:   opts.Version,
		logger:    opts.Logger,
		tools:     map[string]registeredTool{},
		resources: map[string]registeredResource{},
	}
}

// RegisterTool exposes a tool. inputSchema is a JSON Schema object; nil means
// no arguments.
func (s *Server) RegisterTool(name, description string, inputSchema map[string]any, handler ToolHandler) {
	var schema json.RawMessage
	if inputSchema != nil {
		schema, _ = json.Marshal(inputSchema)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = registeredTool{
		info:    mcp.ToolInfo{Name: name, Description: description, InputSchema: schema},
		handler: handler,
	}
}

// RegisterResource exposes a readable resource under a URI.
func (s *Server) RegisterResource(uri, name, mimeType string, handler ResourceHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[uri] = registeredResource{
		info:    mcp.ResourceInfo{URI: uri, Name: name, MediaType: mimeType},
		handler: handler,
	}
}

type wireRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type wireError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type wireResponse struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int64      `json:"id"`
	Result  any        `json:"result,omitempty"`
	Error   *wireError `json:"error,omitempty"`
}

// Serve processes line-framed JSON-RPC messages from r, writing responses to
// w, until r is exhausted or ctx is cancelled. Notifications get no response.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req wireRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("dropping malformed request", "error", err)
			continue
		}

		if req.ID == nil {
			// Notification; notifications/initialized is the only one expected.
			continue
		}

		resp := s.handle(ctx, req)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) handle(ctx context.Context, req wireRequest) wireResponse {
	resp := wireResponse{JSONRPC: "2.0", ID: *req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": mcp.ProtocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]any{"name": s.name, "version": s.version},
		}
	case "tools/list":
		resp.Result = map[string]any{"tools": s.toolInfos()}
	case "tools/call":
		resp.Result, resp.Error = s.callTool(ctx, req.Params)
	case "resources/list":
		resp.Result = map[string]any{"resources": s.resourceInfos()}
	case "resources/read":
		resp.Result, resp.Error = s.readResource(ctx, req.Params)
	case "ping":
		resp.Result = map[string]any{}
	default:
		resp.Error = &wireError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
	return resp
}

func (s *Server) toolInfos() []mcp.ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]mcp.ToolInfo, 0, len(s.tools))
	for _, t := range s.tools {
		infos = append(infos, t.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (s *Server) resourceInfos() []mcp.ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]mcp.ResourceInfo, 0, len(s.resources))
	for _, r := range s.resources {
		infos = append(infos, r.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].URI < infos[j].URI })
	return infos
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *wireError) {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &wireError{Code: -32602, Message: "invalid tools/call params"}
	}

	s.mu.RLock()
	tool, ok := s.tools[p.Name]
	s.mu.RUnlock()
	if !ok {
		return nil, &wireError{Code: -32602, Message: fmt.Sprintf("unknown tool: %s", p.Name)}
	}

	s.logger.Debug("tool call", "tool", p.Name)
	text, err := tool.handler(ctx, p.Arguments)
	if err != nil {
		// Execution failures are in-band tool results, not protocol errors.
		return map[string]any{
			"content": []map[string]any{{"type": "text", "text": err.Error()}},
			"isError": true,
		}, nil
	}

	return map[string]any{
		"content": []map[string]any{{"type": "text", "text": text}},
	}, nil
}

func (s *Server) readResource(ctx context.Context, params json.RawMessage) (any, *wireError) {
	var p struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &wireError{Code: -32602, Message: "invalid resources/read params"}
	}

	s.mu.RLock()
	resource, ok := s.resources[p.URI]
	s.mu.RUnlock()
	if !ok {
		return nil, &wireError{Code: -32602, Message: fmt.Sprintf("unknown resource: %s", p.URI)}
	}

	text, err := resource.handler(ctx)
	if err != nil {
		return nil, &wireError{Code: -32000, Message: err.Error()}
	}

	return map[string]any{
		"contents": []map[string]any{{
			"uri":      p.URI,
			"mimeType": resource.info.MediaType,
			"text":     text,
		}},
	}, nil
}
