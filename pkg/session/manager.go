package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/internal/validator"
	"github.com/aretw0/canopy/pkg/action"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/host"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/render"
	"github.com/aretw0/canopy/pkg/tracker"
)

// DefaultLockTTL bounds how long a distributed session lock may be held.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.TreeStore
	changes ports.ChangeStore
	caps    *host.Registry
	interp  *render.Interpreter
	hub     *Hub

	invoker    ports.ToolInvoker
	narrator   ports.Narrator
	hooks      domain.LifecycleHooks
	timeout    time.Duration
	maxChanges int

	mu    sync.Mutex
	locks map[string]*lockEntry
	live  map[string]*Session

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLockTTL sets the TTL used for distributed locks.
func WithLockTTL(d time.Duration) Option {
	return func(m *Manager) { m.lockTTL = d }
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithChangeStore sets where pending changes are kept. Defaults to memory.
func WithChangeStore(s ports.ChangeStore) Option {
	return func(m *Manager) { m.changes = s }
}

// WithCapabilities shares a capability registry, e.g. with a transport adapter.
func WithCapabilities(r *host.Registry) Option {
	return func(m *Manager) { m.caps = r }
}

func WithInterpreter(i *render.Interpreter) Option {
	return func(m *Manager) { m.interp = i }
}

// WithInvoker sets the tool surface used for direct calls.
func WithInvoker(inv ports.ToolInvoker) Option {
	return func(m *Manager) { m.invoker = inv }
}

// WithNarrator forwards narration to the supervising agent. Narration is also
// published on the session hub.
func WithNarrator(n ports.Narrator) Option {
	return func(m *Manager) { m.narrator = n }
}

func WithHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) { m.hooks = h }
}

// WithActionTimeout bounds direct tool calls.
func WithActionTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithMaxChanges caps each session's pending change log.
func WithMaxChanges(n int) Option {
	return func(m *Manager) { m.maxChanges = n }
}

// WithClock overrides time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new session manager with the given tree store.
func NewManager(store ports.TreeStore, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		locks:      make(map[string]*lockEntry),
		live:       make(map[string]*Session),
		timeout:    action.DefaultTimeout,
		maxChanges: tracker.DefaultMaxChanges,
		lockTTL:    DefaultLockTTL,
		logger:     logging.NewNop(),
		now:        time.Now,
		hub:        NewHub(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.changes == nil {
		m.changes = memory.NewChangeStore()
	}
	if m.caps == nil {
		m.caps = host.NewRegistry()
	}
	if m.interp == nil {
		m.interp = render.New(render.WithLogger(m.logger), render.WithHooks(m.hooks))
	}
	return m
}

// Hub returns the event hub that carries view and narration updates.
func (m *Manager) Hub() *Hub { return m.hub }

// Interpreter returns the interpreter used for views and widgets.
func (m *Manager) Interpreter() *render.Interpreter { return m.interp }

// Store returns the underlying tree store.
func (m *Manager) Store() ports.TreeStore { return m.store }

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}
	return fn(ctx)
}

// Connect records the capabilities the host declared for a session. Only the first
// declaration counts; later ones are ignored and reported as false.
func (m *Manager) Connect(sessionID string, caps domain.HostCapabilities) bool {
	ok := m.caps.Set(sessionID, caps)
	if ok {
		m.logger.Info("host connected", "session_id", sessionID,
			"can_call_tools", caps.CanCallTools, "can_narrate", caps.CanNarrate)
	}
	return ok
}

// Capabilities returns what the host declared for the session. Sessions whose
// host never declared anything get the zero value: no direct calls.
func (m *Manager) Capabilities(sessionID string) domain.HostCapabilities {
	caps, _ := m.caps.Get(sessionID)
	return caps
}

// session returns the replica-local state, creating it on first use.
func (m *Manager) session(sessionID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	if !ok {
		s = newSession(m, sessionID)
		m.live[sessionID] = s
	}
	return s
}

// lookup returns the replica-local state without creating it.
func (m *Manager) lookup(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.live[sessionID]
	return s, ok
}

// trackerFor returns the live session's tracker, or an uncached one over the change
// store so that reads on unknown ids leave no state behind.
func (m *Manager) trackerFor(sessionID string) *tracker.Tracker {
	if s, ok := m.lookup(sessionID); ok {
		return s.tracker
	}
	return newSession(m, sessionID).tracker
}

// Inject stores tree as the session's latest view and resets local widget state.
// Structural issues are logged, never rejected; the interpreter degrades on them.
func (m *Manager) Inject(ctx context.Context, sessionID string, tree *domain.UITree, data map[string]any, source string) (*domain.Snapshot, error) {
	if tree == nil {
		return nil, errors.New("tree is nil")
	}
	for _, issue := range validator.Validate(tree, validator.WithCatalog(m.interp.Catalog())) {
		m.logger.Warn("injected tree issue", "session_id", sessionID, "issue", issue.String())
	}

	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var version int64
		prev, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			version = prev.Version
		case !errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("failed to load session: %w", err)
		}

		snap = &domain.Snapshot{
			SessionID: sessionID,
			Tree:      tree,
			Context:   data,
			Source:    source,
			Version:   version + 1,
			UpdatedAt: m.now().UTC(),
		}
		if err := m.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		m.session(sessionID).adopt(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.hub.Publish(Event{Type: EventView, SessionID: sessionID, Version: snap.Version})
	return snap, nil
}

// load reads the persisted snapshot and syncs local state with it.
func (m *Manager) load(ctx context.Context, sessionID string) (*Session, error) {
	var s *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrNoView, sessionID)
			}
			return err
		}
		s = m.session(sessionID)
		s.adopt(snap)
		return nil
	})
	return s, err
}

// Snapshot returns the session's effective snapshot: the persisted tree with local
// optimistic widget state applied. The persisted tree is never modified.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.effective(), nil
}

// Render interprets the session's effective tree.
func (m *Manager) Render(ctx context.Context, sessionID string) (*render.View, error) {
	snap, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.interp.Render(ctx, snap.Tree), nil
}

// View renders the session's effective tree as an HTML document.
func (m *Manager) View(ctx context.Context, sessionID string) ([]byte, error) {
	snap, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.interp.Document(ctx, snap, m.Capabilities(sessionID))
}

// Execute runs a free-form action (e.g. a Button) through the execution protocol.
func (m *Manager) Execute(ctx context.Context, sessionID string, req domain.ActionRequest) domain.ActionResult {
	s, ok := m.lookup(sessionID)
	if !ok {
		// Only sessions with a stored view are kept live; others run detached.
		_, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			s = m.session(sessionID)
		case errors.Is(err, domain.ErrSessionNotFound):
			s = newSession(m, sessionID)
		default:
			return domain.ActionResult{Err: fmt.Errorf("failed to load session: %w", err)}
		}
	}
	res := s.Execute(ctx, req)
	if res.Queued {
		m.hub.Publish(Event{Type: EventChanges, SessionID: sessionID})
	}
	return res
}

// Changes lists the session's pending changes.
func (m *Manager) Changes(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	return m.trackerFor(sessionID).Changes(ctx)
}

// Summary describes the session's pending changes for a human.
func (m *Manager) Summary(ctx context.Context, sessionID string) (string, error) {
	return m.trackerFor(sessionID).Summary(ctx)
}

// SaveStatus reports the outcome of the session's last direct call.
func (m *Manager) SaveStatus(sessionID string) (domain.SaveStatus, error) {
	return m.trackerFor(sessionID).SaveStatus()
}

// Confirm hands the pending changes to the operator and clears them. The caller
// applies them and injects the resulting tree.
func (m *Manager) Confirm(ctx context.Context, sessionID string) ([]domain.PendingChange, error) {
	var changes []domain.PendingChange
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		t := m.trackerFor(sessionID)
		var err error
		if changes, err = t.Changes(ctx); err != nil {
			return err
		}
		if err := t.Clear(ctx); err != nil {
			return err
		}
		t.SetSaveStatus(domain.SaveIdle, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.hub.Publish(Event{Type: EventChanges, SessionID: sessionID})
	return changes, nil
}

// Delete removes every trace of the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		return m.changes.Clear(ctx, sessionID)
	})
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.live, sessionID)
	m.mu.Unlock()
	m.caps.Forget(sessionID)
	m.hub.Close(sessionID)
	return nil
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) executor(s *Session) *action.Executor {
	return action.NewExecutor(m.Capabilities(s.id), s.tracker,
		action.WithInvoker(m.invoker),
		action.WithNarrator(ports.NarratorFunc(m.narrate)),
		action.WithTimeout(m.timeout),
		action.WithLogger(m.logger),
		action.WithHooks(m.hooks),
	)
}

// narrate publishes on the hub, then forwards to the configured narrator.
func (m *Manager) narrate(ctx context.Context, sessionID, message string) error {
	m.hub.Publish(Event{Type: EventNarration, SessionID: sessionID, Message: message})
	if m.narrator == nil {
		return nil
	}
	return m.narrator.Narrate(ctx, sessionID, message)
}
