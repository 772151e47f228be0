// Package tracker records user intents that could not be applied directly, so the
// operator can review and confirm them later.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultMaxChanges caps the log of one session.
const DefaultMaxChanges = 500

// EmptySummary is the summary of a tracker with nothing pending.
const EmptySummary = "No pending changes"

// Tracker is the ordered change log of one render session. Entries are never
// deduplicated: every recorded intent stays until Clear.
type Tracker struct {
	store     ports.ChangeStore
	sessionID string
	max       int
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	status    domain.SaveStatus
	statusErr error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxChanges sets the capacity. Zero or less disables the cap.
func WithMaxChanges(n int) Option {
	return func(t *Tracker) { t.max = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides how change ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) { t.newID = fn }
}

// New creates a tracker for one session backed by store.
func New(store ports.ChangeStore, sessionID string, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		sessionID: sessionID,
		max:       DefaultMaxChanges,
		logger:    logging.NewNop(),
		now:       time.Now,
		newID:     uuid.NewString,
		status:    domain.SaveIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SessionID returns the session this tracker belongs to.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Track appends the request as a pending change. When the log is full the change
// is refused with domain.ErrTrackerFull rather than dropping an older intent.
func (t *Tracker) Track(ctx context.Context, req domain.ActionRequest) (domain.PendingChange, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.max > 0 {
		n, err := t.store.Len(ctx, t.sessionID)
		if err != nil {
			return domain.PendingChange{}, fmt.Errorf("failed to count pending changes: %w", err)
		}
		if n >= t.max {
			return domain.PendingChange{}, fmt.Errorf("%w: %d pending changes", domain.ErrTrackerFull, n)
		}
	}

	change := domain.PendingChange{
		ID:          t.newID(),
		Type:        req.Type,
		Args:        domain.CloneProps(req.Args),
		Timestamp:   t.now(),
		Description: req.Describe(),
	}
	if err := t.store.Append(ctx, t.sessionID, change); err != nil {
		return domain.PendingChange{}, fmt.Errorf("failed to record change: %w", err)
	}

	t.logger.Debug("change tracked", "session_id", t.sessionID, "type", change.Type, "id", change.ID)
	return change, nil
}

// Changes returns the pending changes in insertion order.
func (t *Tracker) Changes(ctx context.Context) ([]domain.PendingChange, error) {
	return t.store.List(ctx, t.sessionID)
}

// Summary renders the pending changes as an ordered, human-readable list.
func (t *Tracker) Summary(ctx context.Context) (string, error) {
	changes, err := t.Changes(ctx)
	if err != nil {
		return "", err
	}
	return Summarize(changes), nil
}

// Clear empties the log, e.g. after the operator confirmed the changes.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Clear(ctx, t.sessionID)
}

// SetSaveStatus moves the save indicator to status. There is no automatic retry;
// err is kept only for the error status.
func (t *Tracker) SetSaveStatus(status domain.SaveStatus, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if status == domain.SaveError {
		t.statusErr = err
	} else {
		t.statusErr = nil
	}
}

// SaveStatus returns the current save indicator and, for the error status, its cause.
func (t *Tracker) SaveStatus() (domain.SaveStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.statusErr
}

// Summarize formats changes as "N changes:\n- d1\n- d2".
func Summarize(changes []domain.PendingChange) string {
	if len(changes) == 0 {
		return EmptySummary
	}
	var b strings.Builder
	if len(changes) == 1 {
		b.WriteString("1 change:")
	} else {
		fmt.Fprintf(&b, "%d changes:", len(changes))
	}
	for _, c := range changes {
		b.WriteString("\n- ")
		b.WriteString(c.Description)
	}
	return b.String()
}
