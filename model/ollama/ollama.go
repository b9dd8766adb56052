// Package ollama implements model.Model against a local Ollama server using
// its native /api/chat endpoint (newline-delimited JSON streaming). Tool
// calling follows Ollama's chat schema: the server returns tool_calls with
// object-valued arguments and without call IDs, so IDs are synthesized here.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/model"
)

// DefaultModel is the local tool-calling model pulled by default.
const DefaultModel = "MFDoom/deepseek-r1-tool-calling:14b"

// DefaultBaseURL is where a stock Ollama install listens.
const DefaultBaseURL = "http://localhost:11434"

// Options configure the Ollama model adapter.
type Options struct {
	Model       string
	BaseURL     string
	Temperature float64
	NumPredict  int // 0 leaves the server default
	HTTPClient  *http.Client
}

// Model drives a local Ollama server behind the generic model.Model interface.
type Model struct {
	opts Options
}

// NewModel creates an Ollama model. OLLAMA_HOST overrides the default base
// URL when set and no explicit BaseURL option is given.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       DefaultModel,
		BaseURL:     DefaultBaseURL,
		Temperature: 0.9,
		HTTPClient:  http.DefaultClient,
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		opts.BaseURL = host
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Model{opts: opts}
}

// chatMessage is the wire message shape of /api/chat.
type chatMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
	ToolName  string         `json:"tool_name,omitempty"`
}

type chatToolCall struct {
	Function chatToolCallFunction `json:"function"`
}

type chatToolCallFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Tools    []model.ToolDefinition `json:"tools,omitempty"`
	Options  map[string]any         `json:"options,omitempty"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
	Error           string      `json:"error"`
}

// Generate implements model.Model. Both streaming and non-streaming requests
// go over the streaming endpoint; non-streaming callers just receive the
// single final Response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		body, err := json.Marshal(m.buildRequest(req))
		if err != nil {
			errCh <- fmt.Errorf("encode chat request: %w", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(
			ctx, http.MethodPost, m.opts.BaseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			errCh <- err
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := m.opts.HTTPClient.Do(httpReq)
		if err != nil {
			errCh <- fmt.Errorf("ollama request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			errCh <- fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
			return
		}

		if err := m.consumeStream(ctx, resp.Body, req.Stream, out); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

func (m *Model) buildRequest(req model.Request) chatRequest {
	messages := make([]chatMessage, 0, len(req.Contents)+1)
	if req.Instructions != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.Instructions})
	}
	for _, c := range req.Contents {
		messages = append(messages, toChatMessages(c)...)
	}

	temperature := m.opts.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	options := map[string]any{"temperature": temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	} else if m.opts.NumPredict > 0 {
		options["num_predict"] = m.opts.NumPredict
	}

	return chatRequest{
		Model:    m.opts.Model,
		Messages: messages,
		Stream:   true,
		Tools:    req.Tools,
		Options:  options,
	}
}

// toChatMessages flattens one normalized content into wire messages. A tool
// content with several responses becomes several role=tool messages.
func toChatMessages(c core.Content) []chatMessage {
	if c.Role == "tool" {
		var out []chatMessage
		for _, p := range c.Parts {
			fr, ok := p.(core.FunctionResponsePart)
			if !ok {
				continue
			}
			content := fr.FunctionResponse.Error
			if content == "" {
				if s, ok := fr.FunctionResponse.Response.(string); ok {
					content = s
				} else {
					content = fmt.Sprintf("%v", fr.FunctionResponse.Response)
				}
			}
			out = append(out, chatMessage{
				Role:     "tool",
				Content:  content,
				ToolName: fr.FunctionResponse.Name,
			})
		}
		return out
	}

	msg := chatMessage{Role: c.Role}
	for _, p := range c.Parts {
		switch part := p.(type) {
		case core.TextPart:
			msg.Content += part.Text
		case core.FunctionCallPart:
			msg.ToolCalls = append(msg.ToolCalls, chatToolCall{
				Function: chatToolCallFunction{
					Name:      part.FunctionCall.Name,
					Arguments: json.RawMessage(part.FunctionCall.Arguments),
				},
			})
		}
	}
	return []chatMessage{msg}
}

func (m *Model) consumeStream(ctx context.Context, r io.Reader, emitPartials bool, out chan<- model.Response) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var textBuilder strings.Builder
	var toolCalls []core.FunctionCall

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama error: %s", chunk.Error)
		}

		if chunk.Message.Content != "" {
			textBuilder.WriteString(chunk.Message.Content)
			if emitPartials {
				partial := model.Response{
					Partial: true,
					Content: core.Content{
						Role:  "assistant",
						Parts: []core.Part{core.TextPart{Text: chunk.Message.Content}},
					},
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case out <- partial:
				}
			}
		}

		for _, tc := range chunk.Message.ToolCalls {
			toolCalls = append(toolCalls, core.FunctionCall{
				ID:        core.NewID(),
				Name:      tc.Function.Name,
				Arguments: string(tc.Function.Arguments),
			})
		}

		if chunk.Done {
			out <- finalResponse(textBuilder.String(), toolCalls, chunk)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return fmt.Errorf("stream ended without done marker")
}

func finalResponse(text string, toolCalls []core.FunctionCall, last chatResponse) model.Response {
	parts := make([]core.Part, 0, len(toolCalls)+1)
	if text != "" {
		parts = append(parts, core.TextPart{Text: text})
	}
	for _, fc := range toolCalls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}

	finishReason := last.DoneReason
	if len(toolCalls) > 0 {
		finishReason = "tool_calls"
	}

	return model.Response{
		Content:      core.Content{Role: "assistant", Parts: parts},
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     last.PromptEvalCount,
			CompletionTokens: last.EvalCount,
			TotalTokens:      last.PromptEvalCount + last.EvalCount,
		},
	}
}

// Info returns metadata describing this model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "ollama",
		SupportsTools: true,
	}
}
