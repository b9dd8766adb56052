package tool

import (
	"fmt"
	"strings"

	"github.com/ntkjh80/mcp-study/core"
)

type rememberArgs struct {
	Content string `json:"content" description:"The fact or note to remember"`
	Topic   string `json:"topic,omitempty" description:"Optional topic label for later retrieval"`
}

type recallArgs struct {
	Query string `json:"query" description:"What to search the stored memories for"`
	Limit *int   `json:"limit,omitempty" description:"Maximum number of memories to return (default 5)"`
}

// NewRememberTool stores a snippet in the session's memory store.
func NewRememberTool() *FunctionTool {
	return NewFunctionToolFromStruct(
		"remember",
		"Store a fact or note in long-term memory for later retrieval",
		rememberArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			content, _ := args["content"].(string)
			if strings.TrimSpace(content) == "" {
				return nil, fmt.Errorf("content must not be empty")
			}

			var md map[string]any
			if topic, _ := args["topic"].(string); topic != "" {
				md = map[string]any{"topic": topic}
			}
			if err := tc.StoreMemory(content, md); err != nil {
				return nil, err
			}
			return "Stored.", nil
		})
}

// NewRecallTool searches the session's memory store.
func NewRecallTool() *FunctionTool {
	return NewFunctionToolFromStruct(
		"recall_memory",
		"Search previously stored memories and return the best matches",
		recallArgs{},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			limit := 5
			if v, ok := args["limit"].(float64); ok && v > 0 {
				limit = int(v)
			}

			results, err := tc.SearchMemory(query, limit)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "No matching memories found.", nil
			}

			var b strings.Builder
			for i, r := range results {
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "- %s", r.Content)
			}
			return b.String(), nil
		})
}
