package file_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports/tests"
)

func TestFileStore_Contract(t *testing.T) {
	tests.RunTreeStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_RejectsPathEscapes(t *testing.T) {
	store := file.NewStore(t.TempDir())
	ctx := context.Background()

	for _, id := range []string{"", "..", "a/b", `..\x`} {
		err := store.Save(ctx, &domain.Snapshot{SessionID: id})
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, file.ErrInvalidSessionID, id)
	}
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.NewStore(t.TempDir() + "/absent")
	sessions, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
