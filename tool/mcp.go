package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp"
)

// MCPTool surfaces a single remote MCP server tool as a Tool. Arguments are
// validated against the server-provided input schema before the call goes
// over the wire.
type MCPTool struct {
	server     string
	client     *mcp.Client
	info       mcp.ToolInfo
	parameters map[string]any
	schema     *jsonschema.Schema // nil when the server sent no schema
}

// NewMCPTool wraps one server tool. The input schema is compiled eagerly so a
// broken schema surfaces at startup, not mid-conversation.
func NewMCPTool(server string, client *mcp.Client, info mcp.ToolInfo) (*MCPTool, error) {
	t := &MCPTool{server: server, client: client, info: info}

	if len(info.InputSchema) > 0 {
		if err := json.Unmarshal(info.InputSchema, &t.parameters); err != nil {
			return nil, fmt.Errorf("tool %s: decode input schema: %w", info.Name, err)
		}

		compiler := jsonschema.NewCompiler()
		url := "mcp://" + server + "/" + info.Name + "/schema.json"
		if err := compiler.AddResource(url, bytes.NewReader(info.InputSchema)); err != nil {
			return nil, fmt.Errorf("tool %s: load input schema: %w", info.Name, err)
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("tool %s: compile input schema: %w", info.Name, err)
		}
		t.schema = schema
	}
	if t.parameters == nil {
		t.parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	return t, nil
}

// Name returns the remote tool name.
func (t *MCPTool) Name() string { return t.info.Name }

// Description returns the remote tool description.
func (t *MCPTool) Description() string { return t.info.Description }

// Parameters returns the server-provided input schema.
func (t *MCPTool) Parameters() map[string]any { return t.parameters }

// Server returns the configured server name this tool belongs to.
func (t *MCPTool) Server() string { return t.server }

// Call validates args against the remote schema and dispatches tools/call.
func (t *MCPTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()

	if t.schema != nil {
		// Round-trip through JSON so Go ints validate as JSON numbers.
		normalized, err := normalizeArgs(args)
		if err != nil {
			return nil, NewToolError(t.info.Name, err.Error(), "VALIDATION_ERROR")
		}
		if err := t.schema.Validate(normalized); err != nil {
			logger.Warn("tool.call.validation_failed", "tool", t.info.Name, "server", t.server, "error", err.Error())
			return nil, &ToolError{
				Tool:    t.info.Name,
				Message: fmt.Sprintf("parameter validation failed: %v", err),
				Code:    "VALIDATION_ERROR",
			}
		}
	}

	logger.Debug("tool.call.start", "tool", t.info.Name, "server", t.server, "fc_id", toolCtx.FunctionCallID())

	result, err := t.client.CallTool(toolCtx.Context(), t.info.Name, args)
	if err != nil {
		logger.Error("tool.call.error", "tool", t.info.Name, "server", t.server, "error", err.Error())
		return nil, &ToolError{
			Tool:    t.info.Name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	logger.Info("tool.call.success", "tool", t.info.Name, "server", t.server)
	return result, nil
}

func normalizeArgs(args map[string]any) (any, error) {
	if args == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(b, &normalized); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	return normalized, nil
}

// NewMCPToolset lists every tool on every connected server of the MultiClient
// and wraps them. On a name collision the first server (sorted order) wins
// and the duplicate is skipped with a warning.
func NewMCPToolset(ctx context.Context, mc *mcp.MultiClient, logger logging.Logger) ([]Tool, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	serverTools, err := mc.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]string{}
	tools := make([]Tool, 0, len(serverTools))
	for _, st := range serverTools {
		if prev, dup := seen[st.Info.Name]; dup {
			logger.Warn("duplicate mcp tool name, skipping",
				"tool", st.Info.Name, "server", st.Server, "kept_from", prev)
			continue
		}

		t, err := NewMCPTool(st.Server, st.Client, st.Info)
		if err != nil {
			logger.Warn("skipping mcp tool with bad schema",
				"tool", st.Info.Name, "server", st.Server, "error", err.Error())
			continue
		}
		seen[st.Info.Name] = st.Server
		tools = append(tools, t)
	}
	return tools, nil
}
