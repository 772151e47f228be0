package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports/tests"
)

func TestMemoryStore_Contract(t *testing.T) {
	tests.RunTreeStoreContract(t, memory.NewStore())
}

func TestMemoryChangeStore_Contract(t *testing.T) {
	tests.RunChangeStoreContract(t, memory.NewChangeStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	snap := &domain.Snapshot{
		SessionID: "s1",
		Tree: &domain.UITree{Root: "r", Elements: map[string]domain.UINode{
			"r": {Key: "r", Type: "Text", Props: map[string]any{"text": "before"}},
		}},
	}
	require.NoError(t, store.Save(ctx, snap))

	snap.Tree.Elements["r"].Props["text"] = "mutated after save"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "before", loaded.Tree.Elements["r"].Props["text"])

	loaded.Tree.Elements["r"].Props["text"] = "mutated after load"
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "before", again.Tree.Elements["r"].Props["text"])
}
