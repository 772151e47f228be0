package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	tree := &domain.UITree{Root: "r", Elements: map[string]domain.UINode{"r": {Key: "r", Type: "Text", Props: map[string]any{"text": "x"}}}}

	for i := range 1000 {
		sid := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Inject(ctx, sid, tree, nil, "")
		_ = mgr.Delete(ctx, sid)
	}

	assert.Empty(t, mgr.locks, "locks must be released after use")
	assert.Empty(t, mgr.live)
}

func TestManager_ReadsOnUnknownSessionsLeaveNoState(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := range 100 {
		sid := fmt.Sprintf("ghost-%d", i)
		changes, err := mgr.Changes(ctx, sid)
		assert.NoError(t, err)
		assert.Empty(t, changes)

		summary, err := mgr.Summary(ctx, sid)
		assert.NoError(t, err)
		assert.Equal(t, "No pending changes", summary)

		status, err := mgr.SaveStatus(sid)
		assert.NoError(t, err)
		assert.Equal(t, domain.SaveIdle, status)

		_, err = mgr.Snapshot(ctx, sid)
		assert.ErrorIs(t, err, domain.ErrNoView)
	}
	assert.Empty(t, mgr.live)
	assert.Empty(t, mgr.locks)
}

func TestManager_ExecuteWithoutViewRunsDetached(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	res := mgr.Execute(ctx, "ghost", domain.ActionRequest{Type: "create_task", Description: "Create task"})
	assert.True(t, res.Success)
	assert.True(t, res.Queued)
	assert.Empty(t, mgr.live)

	// The queued intent is still recorded in the change store.
	changes, err := mgr.Changes(ctx, "ghost")
	assert.NoError(t, err)
	assert.Len(t, changes, 1)

	tree := &domain.UITree{Root: "r", Elements: map[string]domain.UINode{"r": {Key: "r", Type: "Text", Props: map[string]any{"text": "x"}}}}
	_, err = mgr.Inject(ctx, "real", tree, nil, "")
	assert.NoError(t, err)
	mgr.Execute(ctx, "real", domain.ActionRequest{Type: "create_task"})
	assert.Contains(t, mgr.live, "real")
	assert.Len(t, mgr.live, 1)
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("s")
	for i := range subscriberBuffer * 2 {
		h.Publish(Event{Type: EventView, SessionID: "s", Version: int64(i)})
	}
	assert.Len(t, ch, subscriberBuffer)
	cancel()
	cancel()

	h.Publish(Event{Type: EventView, SessionID: "s"})
	_, open := <-drain(ch)
	assert.False(t, open)
}

func drain(ch <-chan Event) <-chan Event {
	for range ch {
	}
	return ch
}
