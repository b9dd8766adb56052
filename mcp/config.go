package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// ServerConfig describes how to reach one configured MCP server. Stdio
// servers set Command (plus Args/Env); HTTP servers set URL.
type ServerConfig struct {
	// Stdio transport.
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`

	// Streamable HTTP transport.
	URL     string            `json:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// Transport is optional; inferred from Command/URL when empty.
	// Accepted values: "stdio", "streamable_http".
	Transport string `json:"transport,omitempty"`
}

type serverConfigFile struct {
	McpServers map[string]ServerConfig `json:"mcpServers"`
}

// LoadServerConfig reads an mcp_server.json style file. A missing file is not
// an error: the agent then runs without MCP tools. A present but malformed
// file is an error.
func LoadServerConfig(path string) (map[string]ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ServerConfig{}, nil
		}
		return nil, fmt.Errorf("read mcp config %s: %w", path, err)
	}

	var file serverConfigFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse mcp config %s: %w", path, err)
	}
	if file.McpServers == nil {
		file.McpServers = map[string]ServerConfig{}
	}

	for name, cfg := range file.McpServers {
		if cfg.Command == "" && cfg.URL == "" {
			return nil, fmt.Errorf("mcp config %s: server %q needs a command or url", path, name)
		}
	}

	return file.McpServers, nil
}

// NewTransport builds the transport described by a server config.
func NewTransport(cfg ServerConfig) (Transport, error) {
	transport := cfg.Transport
	if transport == "" {
		if cfg.Command != "" {
			transport = "stdio"
		} else {
			transport = "streamable_http"
		}
	}

	switch transport {
	case "stdio":
		if cfg.Command == "" {
			return nil, fmt.Errorf("mcp: stdio server needs a command")
		}
		env := make([]string, 0, len(cfg.Env))
		for k, v := range cfg.Env {
			env = append(env, k+"="+v)
		}
		return &StdioTransport{Command: cfg.Command, Args: cfg.Args, Env: env}, nil
	case "streamable_http", "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("mcp: http server needs a url")
		}
		return &HTTPTransport{URL: cfg.URL, Headers: cfg.Headers}, nil
	default:
		return nil, fmt.Errorf("mcp: unsupported transport %q", transport)
	}
}
