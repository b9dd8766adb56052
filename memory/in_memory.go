package memory

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ntkjh80/mcp-study/core"
)

// ErrNotFound is returned when a stored memory id does not exist.
var ErrNotFound = errors.New("memory not found")

// storedMemory is the internal representation persisted by InMemoryStore. It
// mirrors the core.SearchResult shape without a score field since scoring is
// trivial here.
type storedMemory struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemoryStore is a naive process-local MemoryStore. It offers:
//  1. Session scoped key/value memory (Get / Put)
//  2. Append-only stored memories with substring Search
//
// Search is a linear scan with case-insensitive substring matching assigning
// a constant score of 1.0 to every hit, returned in insertion order. Suitable
// for tests and demos; swap for a vector index for real retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	kv      map[string]map[string]any      // sessionID -> key -> value
	entries map[string][]storedMemory      // sessionID -> stored memories
	byID    map[string]map[string]struct{} // sessionID -> memoryID presence
}

// NewInMemoryStore creates a new in-memory memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		kv:      make(map[string]map[string]any),
		entries: make(map[string][]storedMemory),
		byID:    make(map[string]map[string]struct{}),
	}
}

// Get returns a shallow copy of the key/value memory map for the session.
func (m *InMemoryStore) Get(sessionID string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any, len(m.kv[sessionID]))
	for k, v := range m.kv[sessionID] {
		result[k] = v
	}

	return result, nil
}

// Put merges the provided delta map into the session's key/value memory.
func (m *InMemoryStore) Put(sessionID string, delta map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.kv[sessionID]; !ok {
		m.kv[sessionID] = make(map[string]any)
	}

	for k, v := range delta {
		m.kv[sessionID][k] = v
	}

	return nil
}

// Search performs a case-insensitive substring match over stored memories.
// Results are returned in insertion order up to the provided limit, each with
// a constant score of 1.0.
func (m *InMemoryStore) Search(sessionID string, query string, limit int) ([]core.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)

	results := make([]core.SearchResult, 0, limit)
	for _, stored := range m.entries[sessionID] {
		if limit > 0 && len(results) >= limit {
			break
		}

		if needle != "" && !strings.Contains(strings.ToLower(stored.content), needle) {
			continue
		}

		md := make(map[string]any, len(stored.metadata))
		for k, v := range stored.metadata {
			md[k] = v
		}

		results = append(results, core.SearchResult{
			ID:       stored.id,
			Content:  stored.content,
			Score:    1.0,
			Metadata: md,
		})
	}

	return results, nil
}

// Store appends a new stored memory generating a simple incremental id.
func (m *InMemoryStore) Store(sessionID string, content string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[sessionID]; !ok {
		m.byID[sessionID] = make(map[string]struct{})
	}

	memoryID := fmt.Sprintf("mem_%d", len(m.entries[sessionID]))
	m.entries[sessionID] = append(m.entries[sessionID], storedMemory{
		id:       memoryID,
		content:  content,
		metadata: metadata,
	})
	m.byID[sessionID][memoryID] = struct{}{}

	return nil
}

// Delete removes a stored memory entry by id.
func (m *InMemoryStore) Delete(sessionID string, memoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[sessionID][memoryID]; !ok {
		return ErrNotFound
	}

	delete(m.byID[sessionID], memoryID)

	entries := m.entries[sessionID]
	for i := range entries {
		if entries[i].id == memoryID {
			m.entries[sessionID] = append(entries[:i], entries[i+1:]...)
			break
		}
	}

	return nil
}
