// Package tests provides reusable contract suites for ports
// implementations. Adapters call these from their own tests to prove
// they honor the interface semantics.
package tests

import (
	"context"
	"testing"

	"github.com/lablia/docflow/pkg/domain"
	"github.com/lablia/docflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract exercises the StateStore semantics every adapter
// must satisfy.
func RunStateStoreContract(t *testing.T, store ports.StateStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("SaveLoadRoundTrip", func(t *testing.T) {
		sess := domain.NewSession("contract-rt", "agents", "user_1")
		sess.Slots["document_data"] = map[string]any{"nome_completo": "Jane Doe"}
		sess.History = append(sess.History, domain.Message{Role: domain.RoleUser, Text: "oi"})
		sess.Seq = 3

		require.NoError(t, store.Save(ctx, sess.ID, sess))

		got, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, got.ID)
		assert.Equal(t, uint64(3), got.Seq)
		assert.Len(t, got.History, 1)
		assert.Contains(t, got.Slots, "document_data")
	})

	t.Run("LoadIsolation", func(t *testing.T) {
		sess := domain.NewSession("contract-iso", "agents", "user_1")
		sess.Slots["k"] = "v"
		require.NoError(t, store.Save(ctx, sess.ID, sess))

		first, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		first.Slots["k"] = "mutated"

		second, err := store.Load(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, "v", second.Slots["k"])
	})

	t.Run("Delete", func(t *testing.T) {
		sess := domain.NewSession("contract-del", "agents", "user_1")
		require.NoError(t, store.Save(ctx, sess.ID, sess))
		require.NoError(t, store.Delete(ctx, sess.ID))

		_, err := store.Load(ctx, sess.ID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		sess := domain.NewSession("contract-list", "agents", "user_1")
		require.NoError(t, store.Save(ctx, sess.ID, sess))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, sess.ID)
	})
}
