package session

import (
	"context"

	"github.com/aretw0/canopy/pkg/widget"
)

// Board returns the board widget for a KanbanBoard node, for callers that drive
// drag and drop step by step.
func (m *Manager) Board(ctx context.Context, sessionID, nodeID string) (*widget.Board, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.board(nodeID)
}

// MoveCard moves a card between columns of a board node. The session lock is not
// held while the action runs, so concurrent moves settle independently.
func (m *Manager) MoveCard(ctx context.Context, sessionID, nodeID, cardID, to string) (widget.Result, error) {
	b, err := m.Board(ctx, sessionID, nodeID)
	if err != nil {
		return widget.Result{}, err
	}
	res, err := b.Move(ctx, cardID, to)
	if err != nil {
		return res, err
	}
	m.settled(sessionID, res)
	return res, nil
}

// EditField commits a new value for an InlineEditor or Picker node.
func (m *Manager) EditField(ctx context.Context, sessionID, nodeID string, value any) (widget.Result, error) {
	s, err := m.load(ctx, sessionID)
	if err != nil {
		return widget.Result{}, err
	}
	e, err := s.editor(nodeID)
	if err != nil {
		return widget.Result{}, err
	}
	res, err := e.Commit(ctx, value)
	if err != nil {
		return res, err
	}
	m.settled(sessionID, res)
	return res, nil
}

func (m *Manager) settled(sessionID string, res widget.Result) {
	if res.Outcome == widget.OutcomeNoop {
		return
	}
	version := int64(0)
	m.mu.Lock()
	if s, ok := m.live[sessionID]; ok {
		s.mu.Lock()
		if s.snap != nil {
			version = s.snap.Version
		}
		s.mu.Unlock()
	}
	m.mu.Unlock()

	m.hub.Publish(Event{Type: EventView, SessionID: sessionID, Version: version})
	if res.Action.Queued {
		m.hub.Publish(Event{Type: EventChanges, SessionID: sessionID})
	}
}
