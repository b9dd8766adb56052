package tool

import (
	"encoding/base64"
	"fmt"

	"github.com/ntkjh80/mcp-study/core"
)

// StateManagerTool gives the model direct access to session state, artifacts
// and memory through ToolContext.
type StateManagerTool struct {
	name        string
	description string
}

// NewStateManagerTool creates a new state management tool.
func NewStateManagerTool() *StateManagerTool {
	return &StateManagerTool{
		name: "state_manager",
		description: "Manages session state and framework integration. " +
			"Supports operations: get_state, set_state, save_artifact, load_artifact, " +
			"list_artifacts, search_memory, store_memory, get_session_history.",
	}
}

// Name returns the tool identifier.
func (t *StateManagerTool) Name() string { return t.name }

// Description returns the tool description.
func (t *StateManagerTool) Description() string { return t.description }

// Parameters returns the JSON schema for tool parameters.
func (t *StateManagerTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type": "string",
				"enum": []string{
					"get_state", "set_state", "save_artifact", "load_artifact",
					"list_artifacts", "search_memory", "store_memory", "get_session_history",
				},
				"description": "The state management operation to perform",
			},
			"key": map[string]any{
				"type":        "string",
				"description": "State key for get_state/set_state operations",
			},
			"value": map[string]any{
				"description": "Value for set_state operations (any type)",
			},
			"artifact_id": map[string]any{
				"type":        "string",
				"description": "Artifact identifier for artifact operations",
			},
			"data": map[string]any{
				"type":        "string",
				"description": "Base64 encoded data for save_artifact operation",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "Search query for memory operations",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to store in memory",
			},
			"metadata": map[string]any{
				"type":        "object",
				"description": "Metadata for memory storage",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Limit for search operations (default: 10)",
				"default":     10,
			},
		},
		"required": []string{"operation"},
	}
}

// Call implements the Tool interface with structured arguments.
func (t *StateManagerTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	operation, ok := args["operation"].(string)
	if !ok {
		return nil, fmt.Errorf("operation parameter is required")
	}

	switch operation {
	case "get_state":
		return t.handleGetState(args, toolCtx)
	case "set_state":
		return t.handleSetState(args, toolCtx)
	case "save_artifact":
		return t.handleSaveArtifact(args, toolCtx)
	case "load_artifact":
		return t.handleLoadArtifact(args, toolCtx)
	case "list_artifacts":
		return t.handleListArtifacts(toolCtx)
	case "search_memory":
		return t.handleSearchMemory(args, toolCtx)
	case "store_memory":
		return t.handleStoreMemory(args, toolCtx)
	case "get_session_history":
		return t.handleSessionHistory(toolCtx)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

func (t *StateManagerTool) handleGetState(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("key parameter is required for get_state")
	}
	value, exists := toolCtx.GetState(key)
	return map[string]any{"key": key, "value": value, "exists": exists}, nil
}

func (t *StateManagerTool) handleSetState(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return nil, fmt.Errorf("key parameter is required for set_state")
	}
	value, ok := args["value"]
	if !ok {
		return nil, fmt.Errorf("value parameter is required for set_state")
	}
	toolCtx.SetState(key, value)
	return map[string]any{"key": key, "value": value, "status": "set"}, nil
}

func (t *StateManagerTool) handleSaveArtifact(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	id, ok := args["artifact_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("artifact_id parameter is required for save_artifact")
	}
	encoded, ok := args["data"].(string)
	if !ok {
		return nil, fmt.Errorf("data parameter is required for save_artifact")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("data must be base64: %w", err)
	}
	if err := toolCtx.SaveArtifact(id, data); err != nil {
		return nil, err
	}
	return map[string]any{"artifact_id": id, "bytes": len(data), "status": "saved"}, nil
}

func (t *StateManagerTool) handleLoadArtifact(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	id, ok := args["artifact_id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("artifact_id parameter is required for load_artifact")
	}
	data, err := toolCtx.LoadArtifact(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"artifact_id": id,
		"data":        base64.StdEncoding.EncodeToString(data),
	}, nil
}

func (t *StateManagerTool) handleListArtifacts(toolCtx *core.ToolContext) (any, error) {
	ids, err := toolCtx.ListArtifacts()
	if err != nil {
		return nil, err
	}
	return map[string]any{"artifacts": ids}, nil
}

func (t *StateManagerTool) handleSearchMemory(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	query, _ := args["query"].(string)
	limit := 10
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}
	results, err := toolCtx.SearchMemory(query, limit)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

func (t *StateManagerTool) handleStoreMemory(args map[string]any, toolCtx *core.ToolContext) (any, error) {
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("content parameter is required for store_memory")
	}
	md, _ := args["metadata"].(map[string]any)
	if err := toolCtx.StoreMemory(content, md); err != nil {
		return nil, err
	}
	return map[string]any{"status": "stored"}, nil
}

func (t *StateManagerTool) handleSessionHistory(toolCtx *core.ToolContext) (any, error) {
	events := toolCtx.GetSessionHistory()
	history := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		entry := map[string]any{"author": ev.Author}
		if ev.Content != nil {
			entry["role"] = ev.Content.Role
			entry["text"] = ev.Content.Text()
		}
		history = append(history, entry)
	}
	return map[string]any{"history": history, "count": len(history)}, nil
}
