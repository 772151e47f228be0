package session

import (
	"context"
	"maps"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tracker"
	"github.com/aretw0/canopy/pkg/widget"
)

// Session is the replica-local state of one render session.
type Session struct {
	id      string
	m       *Manager
	tracker *tracker.Tracker

	mu      sync.Mutex
	snap    *domain.Snapshot
	boards  map[string]*widget.Board
	editors map[string]*widget.Editor
}

func newSession(m *Manager, id string) *Session {
	return &Session{
		id: id,
		m:  m,
		tracker: tracker.New(m.changes, id,
			tracker.WithMaxChanges(m.maxChanges),
			tracker.WithLogger(m.logger),
		),
		boards:  make(map[string]*widget.Board),
		editors: make(map[string]*widget.Editor),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// adopt keeps the current snapshot pointer unless the store holds a different
// version. Widgets only reload when that pointer changes.
func (s *Session) adopt(snap *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && s.snap.Version == snap.Version && s.snap.UpdatedAt.Equal(snap.UpdatedAt) {
		return
	}
	s.snap = snap
}

// Execute runs req with the session's capabilities and tracker.
func (s *Session) Execute(ctx context.Context, req domain.ActionRequest) domain.ActionResult {
	return s.m.executor(s).Execute(ctx, req)
}

// board returns the synced state of a KanbanBoard node.
func (s *Session) board(nodeID string) (*widget.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, domain.ErrNoView
	}
	b, ok := s.boards[nodeID]
	if !ok {
		b = widget.NewBoard(nodeID, s.m.interp, s)
	}
	if _, err := b.Sync(s.snap.Tree); err != nil {
		delete(s.boards, nodeID)
		return nil, err
	}
	s.boards[nodeID] = b
	return b, nil
}

// editor returns the synced state of an InlineEditor or Picker node.
func (s *Session) editor(nodeID string) (*widget.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, domain.ErrNoView
	}
	e, ok := s.editors[nodeID]
	if !ok {
		e = widget.NewEditor(nodeID, s.m.interp, s)
	}
	if _, err := e.Sync(s.snap.Tree); err != nil {
		delete(s.editors, nodeID)
		return nil, err
	}
	s.editors[nodeID] = e
	return e, nil
}

type propSource interface {
	Sync(*domain.UITree) (bool, error)
	Props() map[string]any
}

// effective returns a copy of the snapshot whose tree carries local widget state.
func (s *Session) effective() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.boards) == 0 && len(s.editors) == 0 {
		return s.snap
	}

	out := *s.snap
	out.Tree = s.snap.Tree.Clone()
	apply := func(id string, w propSource) bool {
		if _, err := w.Sync(s.snap.Tree); err != nil {
			return false
		}
		node := out.Tree.Elements[id]
		if node.Props == nil {
			node.Props = make(map[string]any)
		}
		maps.Copy(node.Props, w.Props())
		out.Tree.Elements[id] = node
		return true
	}
	for id, b := range s.boards {
		if !apply(id, b) {
			delete(s.boards, id)
		}
	}
	for id, e := range s.editors {
		if !apply(id, e) {
			delete(s.editors, id)
		}
	}
	return &out
}
