package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/model"
)

func TestCollectToolResponses(t *testing.T) {
	req := model.Request{
		Contents: []core.Content{
			core.NewUserText("hi"),
			{Role: "tool", Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID: "call-1", Name: "get_current_time", Response: "12:00",
				}},
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID: "call-2", Name: "get_weather", Response: map[string]any{"temp": 21},
				}},
			}},
		},
	}

	responses, order := collectToolResponses(req)
	require.Equal(t, []string{"call-1", "call-2"}, order)
	assert.Equal(t, "12:00", responses["call-1"])
	assert.Contains(t, responses["call-2"], "21")
}

func TestBuildMessagesInstructionsAndToolPairing(t *testing.T) {
	req := model.Request{
		Instructions: "You are a helpful AI assistant capable of using tools.",
		Contents: []core.Content{
			core.NewUserText("what time is it?"),
			{Role: "assistant", Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID: "call-1", Name: "get_current_time", Arguments: `{"timezone":"UTC"}`,
				}},
			}},
			{Role: "tool", Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID: "call-1", Name: "get_current_time", Response: "12:00",
				}},
			}},
		},
	}

	responses, order := collectToolResponses(req)
	messages := buildMessages(req, responses, order)

	// system, user, assistant tool call, tool response
	require.Len(t, messages, 4)
	assert.NotNil(t, messages[0].OfSystem)
	assert.NotNil(t, messages[1].OfUser)
	assert.NotNil(t, messages[2].OfAssistant)
	assert.NotNil(t, messages[3].OfTool)
}

func TestBuildParams(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "test-model"
		o.Temperature = 0.9
	})

	req := model.Request{
		Tools: []model.ToolDefinition{{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        "get_weather",
				Description: "Mock weather lookup",
				Parameters:  map[string]any{"type": "object"},
			},
		}},
	}

	params := m.buildParams(req, nil)
	assert.Equal(t, "test-model", params.Model)
	assert.Equal(t, 0.9, params.Temperature.Value)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "get_weather", params.Tools[0].Function.Name)
}

func TestInfoProvider(t *testing.T) {
	local := NewModel(func(o *Options) {
		o.BaseURL = "http://localhost:11434/v1"
		o.APIKey = "ollama"
	})
	assert.Equal(t, "openai-compatible", local.Info().Provider)

	hosted := NewModel()
	assert.Equal(t, "openai", hosted.Info().Provider)
}
