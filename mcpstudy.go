// Package mcpstudy provides a high-level façade over the runner, agent and
// MCP client layers for building a local tool-using chat assistant. Most
// applications interact with this package by:
//  1. Creating a Study via New() (optionally overriding the model, the server
//     config path or the default in-memory stores)
//  2. Asking questions synchronously (Ask) or driving the runner directly
//  3. Calling Close() when done to shut down the MCP server connections
//
// The façade delegates orchestration to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development: an Ollama
// model on localhost, in-memory stores and a no-op logger.
package mcpstudy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ntkjh80/mcp-study/agent"
	"github.com/ntkjh80/mcp-study/artifact"
	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/mcp"
	"github.com/ntkjh80/mcp-study/memory"
	"github.com/ntkjh80/mcp-study/model"
	"github.com/ntkjh80/mcp-study/model/ollama"
	"github.com/ntkjh80/mcp-study/runner"
	"github.com/ntkjh80/mcp-study/session"
	"github.com/ntkjh80/mcp-study/tool"
)

// DefaultConfigPath is where New looks for the MCP server configuration when
// no explicit path is given.
const DefaultConfigPath = "mcp_server.json"

// DefaultAgentName identifies the bundled assistant agent.
const DefaultAgentName = "mcp-assistant"

// Options configures a Study instance.
type Options struct {
	// ConfigPath points at the mcp_server.json file listing MCP servers to
	// connect to. A missing file is tolerated; the assistant then runs
	// without MCP tools.
	ConfigPath string

	// Model overrides the language model. Defaults to a local Ollama model.
	Model model.Model

	// Instruction overrides the assistant system prompt.
	Instruction string

	// Temperature overrides the sampling temperature. Nil keeps the default.
	Temperature *float64

	// EnableMemoryTools registers the remember / recall_memory tools backed
	// by the memory store. Enabled by default.
	EnableMemoryTools bool

	// RunnerConfig tunes event buffering and the model call limit.
	RunnerConfig runner.Config

	// Stores (defaults to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
	MemoryStore   core.MemoryStore

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Study aggregates the model agent, its runner and the MCP connections behind
// a small conversational API.
type Study struct {
	agent   *agent.ModelAgent
	runner  *runner.Runner
	clients *mcp.MultiClient
	logger  logging.Logger
	tools   []string
}

// New builds a fully wired Study: it loads the MCP server configuration,
// connects to every listed server, converts their tools into agent tools and
// binds everything to a runner. Servers that fail to connect are skipped with
// a warning rather than aborting startup.
func New(ctx context.Context, optFns ...func(o *Options)) (*Study, error) {
	opts := Options{
		ConfigPath:        DefaultConfigPath,
		EnableMemoryTools: true,
		RunnerConfig:      runner.DefaultConfig,
		SessionStore:      session.NewInMemoryStore(),
		ArtifactStore:     artifact.NewInMemoryStore(),
		MemoryStore:       memory.NewInMemoryStore(),
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil {
		opts.Model = ollama.NewModel()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	configs, err := mcp.LoadServerConfig(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load mcp server config: %w", err)
	}
	if len(configs) == 0 {
		opts.Logger.Warn("no mcp servers configured, running without mcp tools",
			"path", opts.ConfigPath)
	}

	clients := mcp.NewMultiClient(ctx, configs, func(o *mcp.MultiClientOptions) {
		o.Logger = opts.Logger
	})

	mcpTools, err := tool.NewMCPToolset(ctx, clients, opts.Logger)
	if err != nil {
		_ = clients.Close()
		return nil, fmt.Errorf("list mcp tools: %w", err)
	}

	tools := map[string]tool.Tool{}
	for _, t := range mcpTools {
		tools[t.Name()] = t
	}
	if opts.EnableMemoryTools {
		remember := tool.NewRememberTool()
		recall := tool.NewRecallTool()
		tools[remember.Name()] = remember
		tools[recall.Name()] = recall
	}

	modelAgent := agent.NewModelAgent(DefaultAgentName, opts.Model, func(o *agent.ModelAgentOptions) {
		if opts.Instruction != "" {
			o.Instruction = agent.NewInstructionFromText(opts.Instruction)
		}
		if opts.Temperature != nil {
			o.Temperature = opts.Temperature
		}
		o.Tools = tools
	})

	r := runner.New(modelAgent, func(o *runner.Options) {
		o.Config = opts.RunnerConfig
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.MemoryStore = opts.MemoryStore
		o.Logger = opts.Logger
	})

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	opts.Logger.Info("assistant ready",
		"tools", len(names), "mcp_servers", len(clients.Servers()))

	return &Study{
		agent:   modelAgent,
		runner:  r,
		clients: clients,
		logger:  opts.Logger,
		tools:   names,
	}, nil
}

// Runner exposes the underlying runner for streaming or cancellation control.
func (s *Study) Runner() *runner.Runner { return s.runner }

// Agent returns the bound model agent.
func (s *Study) Agent() *agent.ModelAgent { return s.agent }

// Tools returns the sorted names of every registered tool.
func (s *Study) Tools() []string {
	out := make([]string, len(s.tools))
	copy(out, s.tools)
	return out
}

// Servers returns the names of the connected MCP servers.
func (s *Study) Servers() []string { return s.clients.Servers() }

// Ask sends one user message into the given session and returns the final
// assistant text. Intermediate tool activity is available through Events.
func (s *Study) Ask(ctx context.Context, sessionID, message string) (string, error) {
	_, events, err := s.Events(ctx, sessionID, message)
	if err != nil {
		return "", err
	}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if ev.ErrorMessage != nil {
			return "", errors.New(*ev.ErrorMessage)
		}
		if ev.Content != nil && ev.Content.Text() != "" {
			return ev.Content.Text(), nil
		}
	}
	return "", nil
}

// Events runs one user message synchronously and returns every event the
// agent produced, tool calls and responses included.
func (s *Study) Events(ctx context.Context, sessionID, message string) (string, []core.Event, error) {
	content := core.NewUserText(message)
	return s.runner.RunSync(ctx, sessionID, content)
}

// Close shuts down all MCP server connections. The runner and stores need no
// teardown.
func (s *Study) Close() error {
	if s.clients == nil {
		return nil
	}
	return s.clients.Close()
}
