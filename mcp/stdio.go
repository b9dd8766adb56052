package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// StdioTransport connects to a local MCP server subprocess over stdin/stdout.
//
// Messages are framed as single-line JSON (one JSON-RPC message per line).
// The subprocess is started lazily on first use; its stderr is inherited so
// server logs stay visible.
type StdioTransport struct {
	Command string
	Args    []string
	Env     []string // appended to the parent environment when non-empty

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	br *bufio.Reader
	bw *bufio.Writer

	nextID  int64
	pending map[int64]chan rpcResponse

	closed chan struct{}
	once   sync.Once
}

func (t *StdioTransport) startLocked() error {
	if t.cmd != nil {
		return nil
	}
	if t.Command == "" {
		return fmt.Errorf("mcp: stdio transport command is required")
	}

	cmd := exec.Command(t.Command, t.Args...)
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return err
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return err
	}

	t.cmd = cmd
	t.stdin = stdin
	t.stdout = stdout
	t.br = bufio.NewReader(stdout)
	t.bw = bufio.NewWriter(stdin)
	t.pending = map[int64]chan rpcResponse{}
	t.closed = make(chan struct{})

	go t.readLoop()
	return nil
}

func (t *StdioTransport) readLoop() {
	for {
		line, err := t.br.ReadBytes('\n')
		if err != nil {
			t.failAll(err)
			return
		}
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			continue
		}

		var resp rpcResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			t.failAll(err)
			return
		}

		t.mu.Lock()
		ch := t.pending[resp.ID]
		if ch != nil {
			delete(t.pending, resp.ID)
		}
		t.mu.Unlock()
		if ch != nil {
			ch <- resp
			close(ch)
		}
	}
}

// failAll completes every pending call with an error response and marks the
// transport closed. Called when the subprocess pipe breaks.
func (t *StdioTransport) failAll(err error) {
	t.once.Do(func() {
		close(t.closed)
	})
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, ch := range t.pending {
		delete(t.pending, id)
		ch <- rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: -32000, Message: err.Error()}}
		close(ch)
	}
}

func (t *StdioTransport) Call(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	t.mu.Lock()
	if err := t.startLocked(); err != nil {
		t.mu.Unlock()
		return nil, err
	}

	// Requests without an id get one assigned so responses can be matched.
	var parsed rpcRequest
	if err := json.Unmarshal(req, &parsed); err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if parsed.ID == 0 {
		t.nextID++
		parsed.ID = t.nextID
		b, _ := json.Marshal(parsed)
		req = b
	}

	ch := make(chan rpcResponse, 1)
	t.pending[parsed.ID] = ch

	if err := t.writeLineLocked(req); err != nil {
		delete(t.pending, parsed.ID)
		t.mu.Unlock()
		return nil, err
	}
	t.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closed:
		return nil, fmt.Errorf("mcp: stdio transport closed")
	case resp := <-ch:
		b, _ := json.Marshal(resp)
		return b, nil
	}
}

func (t *StdioTransport) Notify(ctx context.Context, msg json.RawMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.startLocked(); err != nil {
		return err
	}
	return t.writeLineLocked(msg)
}

func (t *StdioTransport) writeLineLocked(msg json.RawMessage) error {
	if _, err := t.bw.Write(msg); err != nil {
		return err
	}
	if err := t.bw.WriteByte('\n'); err != nil {
		return err
	}
	return t.bw.Flush()
}

func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cmd == nil {
		return nil
	}
	_ = t.stdin.Close()
	_ = t.stdout.Close()
	_ = t.cmd.Process.Kill()
	_, _ = t.cmd.Process.Wait()
	t.cmd = nil
	t.once.Do(func() {
		close(t.closed)
	})
	return nil
}
