package domain_test

import (
	"testing"

	"github.com/statorhq/stator/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_FieldsAreIsolated(t *testing.T) {
	seed := map[string]string{"status": "pending"}
	doc := domain.NewDocument("order-1", seed)

	// Mutating the seed map must not reach the document.
	seed["status"] = "opened"
	assert.Equal(t, "pending", doc.Get("status"))

	// Mutating a snapshot must not reach the document either.
	snap := doc.Fields()
	snap["status"] = "closed"
	assert.Equal(t, "pending", doc.Get("status"))
}

func TestDocument_GetSet(t *testing.T) {
	doc := domain.NewDocument("order-1", nil)
	assert.Equal(t, "", doc.Get("status"), "unset fields read as empty")

	doc.Set("status", "pending")
	assert.Equal(t, "pending", doc.Get("status"))
	assert.Equal(t, "order-1", doc.ID())
}

func TestDocument_Decode(t *testing.T) {
	doc := domain.NewDocument("order-1", map[string]string{
		"status":   "opened",
		"attempts": "3",
		"priority": "true",
	})

	var view struct {
		Status   string `mapstructure:"status"`
		Attempts int    `mapstructure:"attempts"`
		Priority bool   `mapstructure:"priority"`
	}
	require.NoError(t, doc.Decode(&view))

	assert.Equal(t, "opened", view.Status)
	assert.Equal(t, 3, view.Attempts)
	assert.True(t, view.Priority)
}
