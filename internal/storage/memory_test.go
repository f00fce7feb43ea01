package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage()

	require.NoError(t, store.Store("content/reddit/2026-03-02.json", []byte(`[]`)))
	require.NoError(t, store.Store("content/reddit/2026-02-23.json", []byte(`[{"id":"a"}]`)))
	require.NoError(t, store.Store("content/youtube/2026-03-02.json", []byte(`[]`)))

	names, err := store.List("content/reddit/")
	require.NoError(t, err)
	assert.Equal(t, []string{"content/reddit/2026-02-23.json", "content/reddit/2026-03-02.json"}, names)

	data, err := store.Retrieve("content/reddit/2026-02-23.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a"}]`, string(data))

	// Callers must not be able to alias stored bytes
	data[0] = 'x'
	again, err := store.Retrieve("content/reddit/2026-02-23.json")
	require.NoError(t, err)
	assert.Equal(t, byte('['), again[0])

	require.NoError(t, store.Delete("content/reddit/2026-02-23.json"))
	_, err = store.Retrieve("content/reddit/2026-02-23.json")
	assert.Error(t, err)

	names, err = store.List("content/")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}
