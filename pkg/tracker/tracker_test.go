package tracker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
)

func TestSummary(t *testing.T) {
	ctx := context.Background()
	tr := New(memory.NewChangeStore(), "s1")

	summary, err := tr.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "No pending changes", summary)

	_, err = tr.Track(ctx, domain.ActionRequest{Type: "move_card", Description: "Move Alice to Won"})
	require.NoError(t, err)

	summary, err = tr.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1 change:\n- Move Alice to Won", summary)

	_, err = tr.Track(ctx, domain.ActionRequest{Type: "move_card", Description: "Move Bob to Lost"})
	require.NoError(t, err)

	summary, err = tr.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2 changes:\n- Move Alice to Won\n- Move Bob to Lost", summary)
}

func TestTrack_NoDedup(t *testing.T) {
	ctx := context.Background()
	tr := New(memory.NewChangeStore(), "s1")
	req := domain.ActionRequest{Type: "refresh"}

	a, err := tr.Track(ctx, req)
	require.NoError(t, err)
	b, err := tr.Track(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	changes, err := tr.Changes(ctx)
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestTrack_FillsChange(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := New(memory.NewChangeStore(), "s1",
		WithClock(func() time.Time { return at }),
		WithIDGenerator(func() string { return "chg-1" }),
	)

	args := map[string]any{"card_id": "c1", "to": "won"}
	change, err := tr.Track(ctx, domain.ActionRequest{Type: "move_card", Args: args})
	require.NoError(t, err)

	assert.Equal(t, "chg-1", change.ID)
	assert.Equal(t, at, change.Timestamp)
	assert.Equal(t, "move_card map[card_id:c1 to:won]", change.Description)

	args["to"] = "lost"
	assert.Equal(t, "won", change.Args["to"], "args are copied")
}

func TestTrack_Cap(t *testing.T) {
	ctx := context.Background()
	tr := New(memory.NewChangeStore(), "s1", WithMaxChanges(2))

	for i := 0; i < 2; i++ {
		_, err := tr.Track(ctx, domain.ActionRequest{Type: fmt.Sprintf("a%d", i)})
		require.NoError(t, err)
	}
	_, err := tr.Track(ctx, domain.ActionRequest{Type: "a2"})
	assert.ErrorIs(t, err, domain.ErrTrackerFull)

	require.NoError(t, tr.Clear(ctx))
	_, err = tr.Track(ctx, domain.ActionRequest{Type: "a3"})
	assert.NoError(t, err)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Append(ctx context.Context, sessionID string, change domain.PendingChange) error {
	return m.Called(ctx, sessionID, change).Error(0)
}

func (m *mockStore) List(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).([]domain.PendingChange), args.Error(1)
}

func (m *mockStore) Len(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Clear(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func TestTrack_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("Len", ctx, "s1").Return(0, nil)
	store.On("Append", ctx, "s1", mock.Anything).Return(errors.New("connection refused"))

	_, err := New(store, "s1").Track(ctx, domain.ActionRequest{Type: "x"})
	assert.ErrorContains(t, err, "connection refused")
	store.AssertExpectations(t)
}

func TestSaveStatus(t *testing.T) {
	tr := New(memory.NewChangeStore(), "s1")

	status, err := tr.SaveStatus()
	assert.Equal(t, domain.SaveIdle, status)
	assert.NoError(t, err)

	tr.SetSaveStatus(domain.SaveSaving, nil)
	status, _ = tr.SaveStatus()
	assert.Equal(t, domain.SaveSaving, status)

	tr.SetSaveStatus(domain.SaveError, errors.New("timeout"))
	status, err = tr.SaveStatus()
	assert.Equal(t, domain.SaveError, status)
	assert.EqualError(t, err, "timeout")

	tr.SetSaveStatus(domain.SaveSaved, errors.New("ignored"))
	status, err = tr.SaveStatus()
	assert.Equal(t, domain.SaveSaved, status)
	assert.NoError(t, err)
}
