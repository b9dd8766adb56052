package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntkjh80/mcp-study/core"
)

var _ core.ArtifactStore = (*InMemoryStore)(nil)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Save("s1", "a1", []byte("payload")))

	data, err := store.Get("s1", "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	// The returned slice is a copy.
	data[0] = 'X'
	again, err := store.Get("s1", "a1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), again)
}

func TestInMemoryStoreList(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Save("s1", "b", []byte("1")))
	require.NoError(t, store.Save("s1", "a", []byte("2")))

	ids, err := store.List("s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = store.List("unknown")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInMemoryStoreNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("s1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete("s1", "missing"), ErrNotFound)
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Save("s1", "a1", []byte("x")))
	require.NoError(t, store.Delete("s1", "a1"))

	_, err := store.Get("s1", "a1")
	assert.ErrorIs(t, err, ErrNotFound)
}
