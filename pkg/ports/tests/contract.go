// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// RunTreeStoreContract verifies that a TreeStore implementation adheres to the
// interface contract.
func RunTreeStoreContract(t *testing.T, store ports.TreeStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-tree-" + time.Now().Format("20060102150405")

	snapshot := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID: id,
			Tree: &domain.UITree{
				Root: "root",
				Elements: map[string]domain.UINode{
					"root": {Key: "root", Type: "Metric", Props: map[string]any{"label": "Revenue", "value": 42}},
				},
			},
			Context: map[string]any{"source": "pipeline"},
			Source:  "generated",
			Version: 1,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(sessionID)))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "root", loaded.Tree.Root)
		assert.Equal(t, "Metric", loaded.Tree.Elements["root"].Type)
		assert.Equal(t, "Revenue", loaded.Tree.Elements["root"].Props["label"])
		// JSON persistence may turn ints into float64 or json.Number.
		assert.NotNil(t, loaded.Tree.Elements["root"].Props["value"])
		assert.Equal(t, "pipeline", loaded.Context["source"])
		assert.Equal(t, int64(1), loaded.Version)
	})

	t.Run("Save replaces", func(t *testing.T) {
		snap := snapshot(sessionID)
		snap.Version = 2
		require.NoError(t, store.Save(ctx, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), loaded.Version)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := sessionID+"-1", sessionID+"-2"
		require.NoError(t, store.Save(ctx, snapshot(id1)))
		require.NoError(t, store.Save(ctx, snapshot(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, snapshot(sessionID)))
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})
}

// RunChangeStoreContract verifies that a ChangeStore implementation keeps insertion
// order, does not deduplicate and isolates sessions.
func RunChangeStoreContract(t *testing.T, store ports.ChangeStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-changes-" + time.Now().Format("20060102150405")

	change := func(i int, desc string) domain.PendingChange {
		return domain.PendingChange{
			ID:          fmt.Sprintf("chg-%d", i),
			Type:        "move_card",
			Args:        map[string]any{"card_id": "c1", "to": "won"},
			Timestamp:   time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
			Description: desc,
		}
	}

	t.Run("Empty", func(t *testing.T) {
		list, err := store.List(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, list)

		n, err := store.Len(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("Append keeps order and duplicates", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, sessionID, change(1, "Move Alice to Won")))
		require.NoError(t, store.Append(ctx, sessionID, change(2, "Move Bob to Lost")))
		require.NoError(t, store.Append(ctx, sessionID, change(3, "Move Bob to Lost")))

		list, err := store.List(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "Move Alice to Won", list[0].Description)
		assert.Equal(t, "Move Bob to Lost", list[1].Description)
		assert.Equal(t, "chg-3", list[2].ID)
		assert.Equal(t, "won", list[0].Args["to"])
		assert.True(t, list[0].Timestamp.Equal(change(1, "").Timestamp))

		n, err := store.Len(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("Sessions are isolated", func(t *testing.T) {
		list, err := store.List(ctx, sessionID+"-other")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, sessionID))

		n, err := store.Len(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, store.Clear(ctx, sessionID), "clearing an empty log is not an error")
	})
}
