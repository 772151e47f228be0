package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tracker"
)

type mockInvoker struct {
	mock.Mock
}

func (m *mockInvoker) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	a := m.Called(ctx, name, args)
	return a.Get(0), a.Error(1)
}

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) Narrate(ctx context.Context, sessionID, message string) error {
	return m.Called(ctx, sessionID, message).Error(0)
}

var move = domain.ActionRequest{
	Type:        "move_card",
	Args:        map[string]any{"card_id": "c1", "from": "open", "to": "won"},
	Description: "Move Alice to Won",
}

func newTracker(opts ...tracker.Option) *tracker.Tracker {
	return tracker.New(memory.NewChangeStore(), "s1", opts...)
}

func pending(t *testing.T, tr *tracker.Tracker) []domain.PendingChange {
	t.Helper()
	changes, err := tr.Changes(context.Background())
	require.NoError(t, err)
	return changes
}

func TestExecute_DirectSuccess(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, "move_card", move.Args).Return("ok", nil)
	nar := new(mockNarrator)
	tr := newTracker()

	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, tr,
		WithInvoker(inv), WithNarrator(nar)).Execute(context.Background(), move)

	assert.Equal(t, domain.ActionResult{Success: true}, res)
	assert.Empty(t, pending(t, tr))
	inv.AssertExpectations(t)
	nar.AssertNotCalled(t, "Narrate", mock.Anything, mock.Anything, mock.Anything)

	status, _ := tr.SaveStatus()
	assert.Equal(t, domain.SaveSaved, status)
}

func TestExecute_DirectFailureFallsBack(t *testing.T) {
	boom := errors.New("tool unavailable")
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, "move_card", move.Args).Return(nil, boom)
	nar := new(mockNarrator)
	nar.On("Narrate", mock.Anything, "s1", "Action queued because direct call failed: Move Alice to Won (tool unavailable)").Return(nil)
	tr := newTracker()

	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, tr,
		WithInvoker(inv), WithNarrator(nar)).Execute(context.Background(), move)

	assert.False(t, res.Success)
	assert.True(t, res.Queued)
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, res.HardFailure())

	changes := pending(t, tr)
	require.Len(t, changes, 1)
	assert.Equal(t, "Move Alice to Won", changes[0].Description)
	nar.AssertExpectations(t)

	status, statusErr := tr.SaveStatus()
	assert.Equal(t, domain.SaveError, status)
	assert.ErrorIs(t, statusErr, boom)
}

func TestExecute_NoDirectCalls(t *testing.T) {
	reqs := []domain.ActionRequest{
		move,
		{Type: "refresh"},
		{Type: "update_field", Args: map[string]any{"record_id": "r1", "field": "stage", "value": nil}},
	}
	for _, req := range reqs {
		t.Run(req.Type, func(t *testing.T) {
			inv := new(mockInvoker)
			nar := new(mockNarrator)
			nar.On("Narrate", mock.Anything, "s1", req.Describe()).Return(nil)
			tr := newTracker()

			res := NewExecutor(domain.HostCapabilities{}, tr,
				WithInvoker(inv), WithNarrator(nar)).Execute(context.Background(), req)

			assert.Equal(t, domain.ActionResult{Success: true, Queued: true}, res)
			assert.Len(t, pending(t, tr), 1)
			inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything, mock.Anything)
			nar.AssertExpectations(t)
		})
	}
}

func TestExecute_NoInvokerMeansNoDirectCalls(t *testing.T) {
	tr := newTracker()
	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, tr).Execute(context.Background(), move)
	assert.Equal(t, domain.ActionResult{Success: true, Queued: true}, res)
	assert.Len(t, pending(t, tr), 1)
}

func TestExecute_NarrationFailureIsSwallowed(t *testing.T) {
	nar := new(mockNarrator)
	nar.On("Narrate", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("host gone"))
	tr := newTracker()

	res := NewExecutor(domain.HostCapabilities{}, tr, WithNarrator(nar)).Execute(context.Background(), move)
	assert.Equal(t, domain.ActionResult{Success: true, Queued: true}, res)

	panicky := newTracker()
	res = NewExecutor(domain.HostCapabilities{}, panicky,
		WithNarrator(narratorFunc(func() { panic("nope") }))).Execute(context.Background(), move)
	assert.Equal(t, domain.ActionResult{Success: true, Queued: true}, res)
}

type narratorFunc func()

func (f narratorFunc) Narrate(context.Context, string, string) error {
	f()
	return nil
}

func TestExecute_TrackerFullIsHardFailure(t *testing.T) {
	tr := newTracker(tracker.WithMaxChanges(1))
	exec := NewExecutor(domain.HostCapabilities{}, tr)

	require.Equal(t, domain.ActionResult{Success: true, Queued: true}, exec.Execute(context.Background(), move))

	res := exec.Execute(context.Background(), move)
	assert.True(t, res.HardFailure())
	assert.ErrorIs(t, res.Err, domain.ErrTrackerFull)
}

func TestExecute_FallbackWithFullTrackerIsHardFailure(t *testing.T) {
	boom := errors.New("boom")
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)
	full := newTracker(tracker.WithMaxChanges(1))
	_, err := full.Track(context.Background(), move)
	require.NoError(t, err)

	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, full, WithInvoker(inv)).Execute(context.Background(), move)
	assert.True(t, res.HardFailure())
	assert.ErrorIs(t, res.Err, boom)
	assert.ErrorIs(t, res.Err, domain.ErrTrackerFull)
}

func TestExecute_Timeout(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, "slow", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.DeadlineExceeded)
	tr := newTracker()

	start := time.Now()
	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, tr,
		WithInvoker(inv), WithTimeout(50*time.Millisecond)).Execute(context.Background(), domain.ActionRequest{Type: "slow"})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, res.Queued)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestExecute_PanickingToolFallsBack(t *testing.T) {
	inv := new(mockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("bad tool") })
	tr := newTracker()

	res := NewExecutor(domain.HostCapabilities{CanCallTools: true}, tr, WithInvoker(inv)).Execute(context.Background(), move)
	assert.True(t, res.Queued)
	assert.ErrorContains(t, res.Err, "bad tool")
}

func TestExecute_Hooks(t *testing.T) {
	var events []*domain.ActionEvent
	hooks := domain.LifecycleHooks{OnAction: func(_ context.Context, e *domain.ActionEvent) { events = append(events, e) }}

	NewExecutor(domain.HostCapabilities{}, newTracker(), WithHooks(hooks)).Execute(context.Background(), move)

	require.Len(t, events, 1)
	assert.Equal(t, "move_card", events[0].ActionType)
	assert.Equal(t, OutcomeQueued, events[0].Outcome)
	assert.Equal(t, "s1", events[0].SessionID)
}
