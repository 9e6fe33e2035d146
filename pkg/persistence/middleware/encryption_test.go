package middleware_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/statorhq/stator/pkg/adapters/memory"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/persistence/middleware"
	"github.com/statorhq/stator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptionMiddleware_RoundTrip(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey('a'),
	})(inner)

	rec := domain.NewDocument("order-1", map[string]string{
		"status": "pending",
		"owner":  "alice",
	})

	ok, err := store.Persist(ctx, rec, ports.PersistOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	// The wrapped store holds only the opaque envelope.
	raw, err := inner.Load(ctx, "order-1")
	require.NoError(t, err)
	assert.Empty(t, raw.Get("status"))
	assert.Empty(t, raw.Get("owner"))
	assert.NotEmpty(t, raw.Get("__encrypted__"))

	// Loading through the middleware restores the real fields.
	loaded, err := store.Load(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", loaded.Get("status"))
	assert.Equal(t, "alice", loaded.Get("owner"))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey('o'),
	})(inner)

	rec := domain.NewDocument("order-1", map[string]string{"status": "opened"})
	ok, err := oldStore.Persist(ctx, rec, ports.PersistOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	// A rotated config decrypts old data via the fallback key.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    testKey('n'),
		FallbackKeys: [][]byte{testKey('o')},
	})(inner)

	loaded, err := rotated.Load(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, "opened", loaded.Get("status"))

	// Without the fallback, decryption fails with all available keys.
	stranger := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey('x'),
	})(inner)
	_, err = stranger.Load(ctx, "order-1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_FailsSecureOnPlainRecords(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()

	// A record written around the middleware has no envelope.
	plain := domain.NewDocument("order-1", map[string]string{"status": "pending"})
	ok, err := inner.Persist(ctx, plain, ports.PersistOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: testKey('a'),
	})(inner)

	_, err = store.Load(ctx, "order-1")
	assert.Error(t, err)
}

func TestNewEncryptionMiddleware_RejectsShortKeys(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: []byte("short"),
		})
	})
}
