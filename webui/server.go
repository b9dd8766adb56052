// Package webui serves the HTTP chat front end. The agent stack is built in
// the background at startup; requests arriving before initialization finishes
// get a "still initializing" reply instead of an error.
package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ntkjh80/mcp-study/core"
	"github.com/ntkjh80/mcp-study/logging"
	"github.com/ntkjh80/mcp-study/runner"
)

// Status values reported by the status endpoint.
const (
	StatusInitializing = "initializing"
	StatusReady        = "ready"
	StatusError        = "error"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8100"

// DefaultQueryTimeout bounds a single chat query end to end.
const DefaultQueryTimeout = 300 * time.Second

// InitResult carries the agent stack produced by background initialization.
type InitResult struct {
	Runner *runner.Runner
	Tools  []string
	// Cleanup releases resources held by the stack (MCP subprocesses etc.).
	Cleanup func() error
}

// InitFunc builds the agent stack. It runs once, in the background, when the
// server starts.
type InitFunc func(ctx context.Context) (*InitResult, error)

// Options configures a Server.
type Options struct {
	Addr         string
	QueryTimeout time.Duration
	SessionID    string
	Logger       logging.Logger
}

// Server is the HTTP chat front end.
type Server struct {
	init         InitFunc
	addr         string
	queryTimeout time.Duration
	sessionID    string
	logger       logging.Logger

	mu       sync.RWMutex
	status   string
	result   *InitResult
	initErr  error
	started  bool
	initDone chan struct{}
}

// New creates a Server. Initialization does not start until Start is called.
func New(init InitFunc, optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:         DefaultAddr,
		QueryTimeout: DefaultQueryTimeout,
		SessionID:    "webui",
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		init:         init,
		addr:         opts.Addr,
		queryTimeout: opts.QueryTimeout,
		sessionID:    opts.SessionID,
		logger:       opts.Logger,
		status:       StatusInitializing,
		initDone:     make(chan struct{}),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.addr }

// Start launches background initialization. Calling it more than once is a
// no-op.
func (s *Server) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.initDone)

		s.logger.Info("webui.init.start")

		result, err := s.init(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if err != nil {
			s.status = StatusError
			s.initErr = err
			s.logger.Error("webui.init.failed", "error", err.Error())
			return
		}

		s.status = StatusReady
		s.result = result
		s.logger.Info("webui.init.complete", "tools", len(result.Tools))
	}()
}

// WaitReady blocks until initialization finishes or ctx is cancelled. It
// returns the initialization error, if any.
func (s *Server) WaitReady(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.initDone:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.initErr
}

// Close releases resources held by the initialized stack.
func (s *Server) Close() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.result != nil && s.result.Cleanup != nil {
		return s.result.Cleanup()
	}

	return nil
}

// Handler returns the HTTP handler for the chat UI and its API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/tools", s.handleTools)
	mux.HandleFunc("/api/chat", s.handleChat)

	return mux
}

// ListenAndServe starts the HTTP server and background initialization, then
// blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("webui.listen", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return s.Close()
	}
}

type statusResponse struct {
	Status string   `json:"status"`
	Error  string   `json:"error,omitempty"`
	Tools  []string `json:"tools"`
}

type chatRequest struct {
	Input string `json:"input"`
}

type chatResponse struct {
	Output    string `json:"output"`
	ToolCalls string `json:"tool_calls"`
	LastTool  string `json:"last_tool"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	resp := statusResponse{Status: s.status, Tools: []string{}}
	if s.initErr != nil {
		resp.Error = s.initErr.Error()
	}
	if s.result != nil {
		resp.Tools = s.result.Tools
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	tools := []string{}
	if s.result != nil {
		tools = s.result.Tools
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string][]string{"tools": tools})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	status := s.status
	initErr := s.initErr
	result := s.result
	s.mu.RUnlock()

	switch status {
	case StatusInitializing:
		writeJSON(w, http.StatusOK, chatResponse{
			Output:   "Agent is still initializing... Please wait.",
			LastTool: "N/A",
		})
		return
	case StatusError:
		writeJSON(w, http.StatusOK, chatResponse{
			Output:   fmt.Sprintf("Agent not ready (%v). Check logs.", initErr),
			LastTool: "Error",
			Error:    initErr.Error(),
		})
		return
	}

	if strings.TrimSpace(req.Input) == "" {
		writeJSON(w, http.StatusOK, chatResponse{Output: "Please enter a message.", LastTool: "None"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.queryTimeout)
	defer cancel()

	_, events, err := result.Runner.RunSync(ctx, s.sessionID, core.NewUserText(req.Input))
	if err != nil {
		s.logger.Error("webui.chat.failed", "error", err.Error())
		writeJSON(w, http.StatusOK, chatResponse{
			Output:   fmt.Sprintf("[Agent Error] %v", err),
			LastTool: "Error",
			Error:    err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, buildChatResponse(events))
}

// buildChatResponse assembles the final answer plus the tool activity log
// from the run's event stream.
func buildChatResponse(events []core.Event) chatResponse {
	var (
		output    string
		toolNames []string
		seen      = map[string]bool{}
		activity  []string
	)

	for _, ev := range events {
		if ev.ErrorMessage != nil {
			return chatResponse{
				Output:   fmt.Sprintf("[Agent Error] %s", *ev.ErrorMessage),
				LastTool: "Error",
				Error:    *ev.ErrorMessage,
			}
		}

		for _, fr := range ev.GetFunctionResponses() {
			resultText := fr.Error
			if resultText == "" {
				resultText = fmt.Sprintf("%v", fr.Response)
			}

			activity = append(activity, fmt.Sprintf("Tool Used: %s\nResult: %s", fr.Name, resultText))

			if !seen[fr.Name] {
				seen[fr.Name] = true
				toolNames = append(toolNames, fr.Name)
			}
		}

		if ev.IsFinalResponse() && ev.Content != nil {
			output = ev.Content.Text()
		}
	}

	lastTool := "None"
	if len(toolNames) > 0 {
		lastTool = strings.Join(toolNames, ", ")
	}

	return chatResponse{
		Output:    output,
		ToolCalls: strings.Join(activity, "\n"),
		LastTool:  lastTool,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
