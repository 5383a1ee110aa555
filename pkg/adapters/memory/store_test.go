package memory_test

import (
	"context"
	"testing"

	"github.com/lablia/docflow/pkg/adapters/memory"
	"github.com/lablia/docflow/pkg/domain"
	contract "github.com/lablia/docflow/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	contract.RunStateStoreContract(t, memory.NewStore())
}

func TestStore_SavedSessionIsIsolated(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	sess := domain.NewSession("s1", "agents", "u1")
	sess.Slots["document_data"] = map[string]any{"nome_completo": "Jane Doe"}
	require.NoError(t, store.Save(ctx, "s1", sess))

	// Mutating the caller's copy after Save must not affect the store.
	sess.Slots["document_data"] = "corrupted"
	sess.History = append(sess.History, domain.Message{Role: domain.RoleUser, Text: "hi"})

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"nome_completo": "Jane Doe"}, loaded.Slots["document_data"])
	assert.Empty(t, loaded.History)
}
