package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ntkjh80/mcp-study/logging"
)

// ServerTool pairs a tool with the client that serves it.
type ServerTool struct {
	Server string
	Client *Client
	Info   ToolInfo
}

// MultiClient aggregates several configured MCP servers behind one tool and
// resource listing. A server that fails to connect is logged and skipped so a
// single bad entry does not take the whole agent down.
type MultiClient struct {
	logger logging.Logger

	mu      sync.Mutex
	clients map[string]*Client
	failed  map[string]error
}

// MultiClientOptions configure a MultiClient.
type MultiClientOptions struct {
	Logger logging.Logger
	Info   ClientInfo
}

// NewMultiClient connects to every configured server. The returned MultiClient
// is usable even when some or all servers failed; Failed reports them.
func NewMultiClient(ctx context.Context, configs map[string]ServerConfig, optFns ...func(o *MultiClientOptions)) *MultiClient {
	opts := MultiClientOptions{
		Logger: logging.NoOpLogger{},
		Info:   ClientInfo{Name: "mcp-study", Version: "0.1.0"},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	mc := &MultiClient{
		logger:  opts.Logger,
		clients: map[string]*Client{},
		failed:  map[string]error{},
	}

	for name, cfg := range configs {
		client, err := mc.connectOne(ctx, name, cfg, opts.Info)
		if err != nil {
			opts.Logger.Warn("mcp server connection failed", "server", name, "error", err)
			mc.failed[name] = err
			continue
		}
		mc.clients[name] = client
	}

	return mc
}

func (mc *MultiClient) connectOne(ctx context.Context, name string, cfg ServerConfig, info ClientInfo) (*Client, error) {
	transport, err := NewTransport(cfg)
	if err != nil {
		return nil, err
	}
	client, err := NewClient(name, transport, func(o *ClientOptions) { o.Info = info })
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Servers returns connected server names in sorted order.
func (mc *MultiClient) Servers() []string {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	names := make([]string, 0, len(mc.clients))
	for name := range mc.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed returns connection errors keyed by server name.
func (mc *MultiClient) Failed() map[string]error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	out := make(map[string]error, len(mc.failed))
	for k, v := range mc.failed {
		out[k] = v
	}
	return out
}

// Client returns the connected client for a server name.
func (mc *MultiClient) Client(server string) (*Client, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	c, ok := mc.clients[server]
	return c, ok
}

// ListTools aggregates tools/list across all connected servers in server name
// order. A server that fails to list is logged and skipped; an error is
// returned only when every connected server failed.
func (mc *MultiClient) ListTools(ctx context.Context) ([]ServerTool, error) {
	var out []ServerTool
	servers := mc.Servers()
	var lastErr error
	failed := 0
	for _, name := range servers {
		client, _ := mc.Client(name)
		infos, err := client.ListTools(ctx)
		if err != nil {
			mc.logger.Warn("mcp tool listing failed", "server", name, "error", err)
			lastErr = err
			failed++
			continue
		}
		for _, info := range infos {
			out = append(out, ServerTool{Server: name, Client: client, Info: info})
		}
	}
	if failed > 0 && failed == len(servers) {
		return nil, fmt.Errorf("tools/list failed on all %d servers: %w", failed, lastErr)
	}
	return out, nil
}

// CallTool dispatches a tool call to the named server.
func (mc *MultiClient) CallTool(ctx context.Context, server, tool string, args map[string]any) (any, error) {
	client, ok := mc.Client(server)
	if !ok {
		return nil, fmt.Errorf("mcp: unknown server %q", server)
	}
	return client.CallTool(ctx, tool, args)
}

// ListResources aggregates resources/list across all connected servers.
func (mc *MultiClient) ListResources(ctx context.Context) (map[string][]ResourceInfo, error) {
	out := map[string][]ResourceInfo{}
	for _, name := range mc.Servers() {
		client, _ := mc.Client(name)
		resources, err := client.ListResources(ctx)
		if err != nil {
			mc.logger.Warn("mcp resource listing failed", "server", name, "error", err)
			continue
		}
		if len(resources) > 0 {
			out[name] = resources
		}
	}
	return out, nil
}

// ReadResource reads a resource URI from the named server.
func (mc *MultiClient) ReadResource(ctx context.Context, server, uri string) (*ReadResourceResult, error) {
	client, ok := mc.Client(server)
	if !ok {
		return nil, fmt.Errorf("mcp: unknown server %q", server)
	}
	return client.ReadResource(ctx, uri)
}

// Close shuts down every connected client, returning the first error seen.
func (mc *MultiClient) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	var firstErr error
	for name, client := range mc.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(mc.clients, name)
	}
	return firstErr
}
