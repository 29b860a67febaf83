package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore(t *testing.T) {
	ctx := context.Background()

	t.Run("put and get round trip", func(t *testing.T) {
		store := NewMemoryBlobStore()

		require.NoError(t, store.Put(ctx, "invoices/a.pdf", []byte("content"), "application/pdf"))

		data, err := store.Get(ctx, "invoices/a.pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("put overwrites", func(t *testing.T) {
		store := NewMemoryBlobStore()

		require.NoError(t, store.Put(ctx, "key", []byte("old"), "application/pdf"))
		require.NoError(t, store.Put(ctx, "key", []byte("new"), "application/pdf"))

		data, err := store.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("new"), data)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("empty key rejected", func(t *testing.T) {
		store := NewMemoryBlobStore()
		assert.Error(t, store.Put(ctx, "", []byte("content"), "application/pdf"))
	})

	t.Run("get missing key", func(t *testing.T) {
		store := NewMemoryBlobStore()

		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		store := NewMemoryBlobStore()
		require.NoError(t, store.Put(ctx, "key", []byte("content"), "application/pdf"))

		ok, err := store.Exists(ctx, "key")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := NewMemoryBlobStore()
		require.NoError(t, store.Put(ctx, "key", []byte("content"), "application/pdf"))

		require.NoError(t, store.Delete(ctx, "key"))
		require.NoError(t, store.Delete(ctx, "key"))

		ok, _ := store.Exists(ctx, "key")
		assert.False(t, ok)
	})

	t.Run("stored data is isolated from the caller's slice", func(t *testing.T) {
		store := NewMemoryBlobStore()
		payload := []byte("content")
		require.NoError(t, store.Put(ctx, "key", payload, "application/pdf"))

		payload[0] = 'X'

		data, err := store.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("content"), data)
	})
}
