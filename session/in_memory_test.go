package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStoreClonesOnRead(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)

	// Mutating the returned clone must not leak into the store.
	sess.SetState("k", "local")

	again, err := store.Get("s1")
	require.NoError(t, err)

	_, ok := again.GetState("k")
	assert.False(t, ok)
}

func TestInMemoryStoreAppendAndDelta(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendEvent("s1", core.NewUserMessageEvent("r1", "hello")))
	require.NoError(t, store.ApplyDelta("s1", map[string]any{"name": "test"}))

	sess, err := store.Get("s1")
	require.NoError(t, err)

	assert.Len(t, sess.GetEvents(), 1)

	v, ok := sess.GetState("name")
	require.True(t, ok)
	assert.Equal(t, "test", v)
}
