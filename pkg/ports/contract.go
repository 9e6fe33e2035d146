package ports

import (
	"context"
	"testing"
	"time"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a
// DocumentStore implementation adheres to the defined interface contract.
// If the store also implements StateFinder, the state-query behavior is
// verified as well.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	recordID := "contract-test-record-" + time.Now().Format("20060102150405")

	t.Run("Persist and Load", func(t *testing.T) {
		rec := domain.NewDocument(recordID, map[string]string{
			"status": "pending",
			"owner":  "alice",
		})

		ok, err := store.Persist(ctx, rec, PersistOptions{Validate: true})
		require.NoError(t, err, "Persist should not return error")
		require.True(t, ok, "Persist should succeed")

		loaded, err := store.Load(ctx, recordID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, recordID, loaded.ID())
		assert.Equal(t, "pending", loaded.Get("status"))
		assert.Equal(t, "alice", loaded.Get("owner"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+recordID)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Persist Overwrites", func(t *testing.T) {
		rec := domain.NewDocument(recordID, map[string]string{"status": "opened"})
		ok, err := store.Persist(ctx, rec, PersistOptions{Validate: false})
		require.NoError(t, err)
		require.True(t, ok)

		loaded, err := store.Load(ctx, recordID)
		require.NoError(t, err)
		assert.Equal(t, "opened", loaded.Get("status"))
	})

	t.Run("Delete", func(t *testing.T) {
		rec := domain.NewDocument(recordID, map[string]string{"status": "pending"})
		ok, err := store.Persist(ctx, rec, PersistOptions{Validate: true})
		require.NoError(t, err)
		require.True(t, ok)

		err = store.Delete(ctx, recordID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, recordID)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "Load after Delete should return ErrRecordNotFound")
	})

	finder, ok := store.(StateFinder)
	if !ok {
		return
	}

	t.Run("FindByState", func(t *testing.T) {
		id1 := recordID + "-1"
		id2 := recordID + "-2"
		id3 := recordID + "-3"
		seed := func(id, status string) {
			rec := domain.NewDocument(id, map[string]string{"status": status})
			ok, err := store.Persist(ctx, rec, PersistOptions{Validate: false})
			require.NoError(t, err)
			require.True(t, ok)
		}
		seed(id1, "pending")
		seed(id2, "pending")
		seed(id3, "opened")

		// Ensure cleanup
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
			_ = store.Delete(ctx, id3)
		}()

		pending, err := finder.FindByState(ctx, "status", "pending")
		require.NoError(t, err)
		assert.Contains(t, pending, id1)
		assert.Contains(t, pending, id2)
		assert.NotContains(t, pending, id3)

		opened, err := finder.FindByState(ctx, "status", "opened")
		require.NoError(t, err)
		assert.Contains(t, opened, id3)

		none, err := finder.FindByState(ctx, "status", "closed")
		require.NoError(t, err)
		assert.NotContains(t, none, id1)
		assert.NotContains(t, none, id2)
		assert.NotContains(t, none, id3)
	})

	t.Run("FindByState After Transition", func(t *testing.T) {
		id := recordID + "-move"
		rec := domain.NewDocument(id, map[string]string{"status": "pending"})
		ok, err := store.Persist(ctx, rec, PersistOptions{Validate: false})
		require.NoError(t, err)
		require.True(t, ok)
		defer func() { _ = store.Delete(ctx, id) }()

		rec.Set("status", "opened")
		ok, err = store.Persist(ctx, rec, PersistOptions{Validate: false})
		require.NoError(t, err)
		require.True(t, ok)

		pending, err := finder.FindByState(ctx, "status", "pending")
		require.NoError(t, err)
		assert.NotContains(t, pending, id, "record should leave its previous state index")

		opened, err := finder.FindByState(ctx, "status", "opened")
		require.NoError(t, err)
		assert.Contains(t, opened, id)
	})
}
