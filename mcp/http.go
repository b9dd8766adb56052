package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// HTTPTransport talks to a remote MCP server over streamable HTTP: each
// JSON-RPC message is POSTed to the endpoint URL. Session and protocol
// version headers are captured after initialization and echoed on
// subsequent requests.
type HTTPTransport struct {
	URL     string
	Headers map[string]string

	// Client defaults to a 60s timeout client when nil.
	Client *http.Client

	mu        sync.Mutex
	sessionID string
}

func (t *HTTPTransport) Call(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	body, err := t.post(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("mcp: empty http response")
	}
	return body, nil
}

func (t *HTTPTransport) Notify(ctx context.Context, msg json.RawMessage) error {
	_, err := t.post(ctx, msg)
	return err
}

func (t *HTTPTransport) post(ctx context.Context, msg json.RawMessage) (json.RawMessage, error) {
	if t == nil || t.URL == "" {
		return nil, fmt.Errorf("mcp: http transport url is required")
	}
	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(msg))
	if err != nil {
		return nil, err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	r.Header.Set("MCP-Protocol-Version", ProtocolVersion)

	t.mu.Lock()
	if t.sessionID != "" {
		r.Header.Set("Mcp-Session-Id", t.sessionID)
	}
	t.mu.Unlock()

	for k, v := range t.Headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}

	resp, err := client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if sid := resp.Header.Get("Mcp-Session-Id"); sid != "" {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// 202 Accepted with an empty body is valid for notifications.
	if resp.StatusCode == http.StatusAccepted && len(body) == 0 {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: t.URL, StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

func (t *HTTPTransport) Close() error { return nil }
