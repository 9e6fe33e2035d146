package protocol_test

import (
	"context"
	"errors"
	"testing"

	"github.com/statorhq/stator/internal/protocol"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStore is a DocumentStore stub whose persist result is scripted.
// It counts persist calls and remembers the options of the last one.
type scriptedStore struct {
	ok       bool
	err      error
	calls    int
	lastOpts ports.PersistOptions
}

func (s *scriptedStore) Persist(ctx context.Context, rec ports.Record, opts ports.PersistOptions) (bool, error) {
	s.calls++
	s.lastOpts = opts
	return s.ok, s.err
}

func (s *scriptedStore) Load(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrRecordNotFound
}

func (s *scriptedStore) Delete(ctx context.Context, id string) error {
	return nil
}

func TestReadState(t *testing.T) {
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	assert.Equal(t, domain.State("pending"), protocol.ReadState(rec, "status"))

	// Unset field reads as the blank sentinel.
	assert.Equal(t, domain.State(""), protocol.ReadState(rec, "phase"))
}

func TestReadState_ObservesExternalReloads(t *testing.T) {
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	require.Equal(t, domain.State("pending"), protocol.ReadState(rec, "status"))

	// Simulate a reload mutating the record behind the coordinator's back.
	rec.Set("status", "opened")
	assert.Equal(t, domain.State("opened"), protocol.ReadState(rec, "status"),
		"read must reflect the fresh value, not a cached one")
}

func TestEnsureInitialState(t *testing.T) {
	supplier := ports.StaticSupplier("pending")

	t.Run("populates blank field", func(t *testing.T) {
		rec := domain.NewDocument("r1", nil)
		state, wrote := protocol.EnsureInitialState(rec, "status", supplier)
		assert.True(t, wrote)
		assert.Equal(t, domain.State("pending"), state)
		assert.Equal(t, "pending", rec.Get("status"))
	})

	t.Run("treats whitespace as blank", func(t *testing.T) {
		rec := domain.NewDocument("r1", map[string]string{"status": "  "})
		_, wrote := protocol.EnsureInitialState(rec, "status", supplier)
		assert.True(t, wrote)
		assert.Equal(t, "pending", rec.Get("status"))
	})

	t.Run("idempotent on repeat calls", func(t *testing.T) {
		rec := domain.NewDocument("r1", nil)
		_, wrote := protocol.EnsureInitialState(rec, "status", supplier)
		require.True(t, wrote)

		_, wrote = protocol.EnsureInitialState(rec, "status", supplier)
		assert.False(t, wrote, "second call must be a no-op")
		assert.Equal(t, "pending", rec.Get("status"))
	})

	t.Run("never clobbers non-blank values", func(t *testing.T) {
		// "0" is falsy in some ecosystems but it is not blank.
		for _, existing := range []string{"opened", "0", "false"} {
			rec := domain.NewDocument("r1", map[string]string{"status": existing})
			_, wrote := protocol.EnsureInitialState(rec, "status", supplier)
			assert.False(t, wrote)
			assert.Equal(t, existing, rec.Get("status"))
		}
	})

	t.Run("supplier may inspect record data", func(t *testing.T) {
		conditional := ports.SupplierFunc(func(rec ports.Record) domain.State {
			if rec.Get("kind") == "corporate" {
				return "vip"
			}
			return "pending"
		})

		rec := domain.NewDocument("r1", map[string]string{"kind": "corporate"})
		state, wrote := protocol.EnsureInitialState(rec, "status", conditional)
		assert.True(t, wrote)
		assert.Equal(t, domain.State("vip"), state)
	})
}

func TestWriteDurable_Commit(t *testing.T) {
	ctx := context.Background()
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	store := &scriptedStore{ok: true}

	outcome, err := protocol.WriteDurable(ctx, rec, "status", "opened", store)
	require.NoError(t, err)
	assert.True(t, outcome.Committed)
	assert.False(t, outcome.RolledBack())
	assert.Equal(t, "pending", outcome.Previous)
	assert.Equal(t, "opened", rec.Get("status"))

	assert.Equal(t, 1, store.calls, "exactly one persist attempt per call")
	assert.False(t, store.lastOpts.Validate, "durable write must bypass validation")
}

func TestWriteDurable_Rollback(t *testing.T) {
	ctx := context.Background()
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	store := &scriptedStore{ok: false}

	outcome, err := protocol.WriteDurable(ctx, rec, "status", "opened", store)
	require.NoError(t, err)
	assert.True(t, outcome.RolledBack())
	assert.Equal(t, "pending", outcome.Previous)
	assert.Equal(t, "pending", rec.Get("status"), "field must revert to its exact pre-write value")
	assert.Equal(t, 1, store.calls)
}

func TestWriteDurable_RollbackRestoresBlank(t *testing.T) {
	ctx := context.Background()
	rec := domain.NewDocument("r1", nil)
	store := &scriptedStore{ok: false}

	outcome, err := protocol.WriteDurable(ctx, rec, "status", "opened", store)
	require.NoError(t, err)
	assert.True(t, outcome.RolledBack())
	assert.Equal(t, "", outcome.Previous)
	assert.Equal(t, "", rec.Get("status"), "blank pre-write value must be restored as blank")
}

func TestWriteDurable_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	boom := errors.New("connection reset")
	store := &scriptedStore{err: boom}

	_, err := protocol.WriteDurable(ctx, rec, "status", "opened", store)
	require.ErrorIs(t, err, boom)

	// The store's outcome is unknown, so the field is deliberately left at
	// the target value rather than rewritten.
	assert.Equal(t, "opened", rec.Get("status"))
}

func TestWriteDeferred(t *testing.T) {
	rec := domain.NewDocument("r1", map[string]string{"status": "pending"})
	store := &scriptedStore{ok: true}

	protocol.WriteDeferred(rec, "status", "opened")
	assert.Equal(t, "opened", rec.Get("status"))
	assert.Equal(t, 0, store.calls, "deferred write must never touch a store")
}

// Mirrors the canonical lifecycle: blank record acquires its initial state,
// a hard event commits, and a refused save rolls back to the committed value.
func TestProtocol_Lifecycle(t *testing.T) {
	ctx := context.Background()
	rec := domain.NewDocument("order-1", map[string]string{"status": ""})

	_, wrote := protocol.EnsureInitialState(rec, "status", ports.StaticSupplier("pending"))
	require.True(t, wrote)
	require.Equal(t, "pending", rec.Get("status"))

	outcome, err := protocol.WriteDurable(ctx, rec, "status", "opened", &scriptedStore{ok: true})
	require.NoError(t, err)
	require.True(t, outcome.Committed)
	require.Equal(t, "opened", rec.Get("status"))

	outcome, err = protocol.WriteDurable(ctx, rec, "status", "closed", &scriptedStore{ok: false})
	require.NoError(t, err)
	require.True(t, outcome.RolledBack())
	require.Equal(t, "opened", outcome.Previous)
	require.Equal(t, "opened", rec.Get("status"))
}
