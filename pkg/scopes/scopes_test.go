package scopes_test

import (
	"context"
	"testing"

	"github.com/statorhq/stator/pkg/adapters/memory"
	"github.com/statorhq/stator/pkg/domain"
	"github.com/statorhq/stator/pkg/ports"
	"github.com/statorhq/stator/pkg/scopes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet_CollisionCheckedAtSetup(t *testing.T) {
	_, err := scopes.NewSet("status", []domain.State{"pending", "opened", "pending"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scope "pending" already declared`)
}

func TestNewSet_RejectsBlankInput(t *testing.T) {
	_, err := scopes.NewSet("", []domain.State{"pending"})
	assert.Error(t, err)

	_, err = scopes.NewSet("status", []domain.State{"pending", "  "})
	assert.Error(t, err)
}

func TestSet_Query(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	seed := func(id, status string) {
		rec := domain.NewDocument(id, map[string]string{"status": status})
		ok, err := store.Persist(ctx, rec, ports.PersistOptions{})
		require.NoError(t, err)
		require.True(t, ok)
	}
	seed("order-1", "pending")
	seed("order-2", "opened")
	seed("order-3", "pending")

	set, err := scopes.NewSet("status", []domain.State{"pending", "opened", "closed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"closed", "opened", "pending"}, set.Names())

	pending, ok := set.Scope("pending")
	require.True(t, ok)
	ids, err := pending.Query(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []string{"order-1", "order-3"}, ids)

	ids, err = set.Query(ctx, store, "closed")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = set.Query(ctx, store, "archived")
	assert.Error(t, err, "undeclared scopes are not synthesized at runtime")
}
