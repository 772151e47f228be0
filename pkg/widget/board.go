package widget

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/render"
)

// Card is one item on a board.
type Card struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	Value    *float64 `json:"value,omitempty"`
}

// Column is a group of cards.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Cards []Card `json:"cards"`
	Count int    `json:"count"`
}

// DragState is the single in-flight drag gesture of a board.
type DragState struct {
	CardID string
	From   string

	snapshot []Column
}

// Board is the local state of one KanbanBoard node.
type Board struct {
	nodeID string
	interp *render.Interpreter
	exec   Executor

	mu         sync.Mutex
	source     *domain.UITree
	title      string
	moveAction string
	columns    []Column
	drag       *DragState
}

// NewBoard creates the state of the board node nodeID. Call Sync before use.
func NewBoard(nodeID string, interp *render.Interpreter, exec Executor) *Board {
	return &Board{nodeID: nodeID, interp: interp, exec: exec}
}

// NodeID returns the id of the board node.
func (b *Board) NodeID() string { return b.nodeID }

// Sync re-reads the columns from tree when tree is a different reference from the
// last one seen. Passing the same pointer again keeps local optimistic state. It
// reports whether the local copy was replaced.
func (b *Board) Sync(tree *domain.UITree) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if tree == b.source {
		return false, nil
	}
	node, ok := tree.Node(b.nodeID)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrWidgetNotFound, b.nodeID)
	}
	el, _ := b.interp.Decode(node)
	kb, ok := el.(*render.KanbanBoard)
	if !ok {
		return false, fmt.Errorf("%w: %q is a %s", domain.ErrWidgetNotFound, b.nodeID, node.Type)
	}

	b.source = tree
	b.title = kb.Title
	b.moveAction = kb.MoveAction
	b.columns = fromRender(kb.Columns)
	b.drag = nil
	return true, nil
}

func fromRender(cols []render.BoardColumn) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		cards := make([]Card, len(c.Cards))
		for j, card := range c.Cards {
			cards[j] = Card{ID: card.ID, Title: card.Title, Subtitle: card.Subtitle, Value: card.Value}
		}
		out[i] = Column{ID: c.ID, Title: c.Title, Cards: cards, Count: len(cards)}
	}
	return out
}

func cloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		c.Cards = slices.Clone(c.Cards)
		out[i] = c
	}
	return out
}

func columnIndex(cols []Column, id string) int {
	return slices.IndexFunc(cols, func(c Column) bool { return c.ID == id })
}

func locate(cols []Column, cardID string) (col, pos int) {
	for i, c := range cols {
		for j, card := range c.Cards {
			if card.ID == cardID {
				return i, j
			}
		}
	}
	return -1, -1
}

// Columns returns a copy of the local columns.
func (b *Board) Columns() []Column {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneColumns(b.columns)
}

// Drag returns the in-flight drag, if any.
func (b *Board) Drag() (DragState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag == nil {
		return DragState{}, false
	}
	return DragState{CardID: b.drag.CardID, From: b.drag.From}, true
}

// StartDrag begins dragging a card and snapshots the columns. A drag already in
// progress is replaced.
func (b *Board) StartDrag(cardID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	col, _ := locate(b.columns, cardID)
	if col < 0 {
		return fmt.Errorf("%w: %q", ErrCardNotFound, cardID)
	}
	b.drag = &DragState{
		CardID:   cardID,
		From:     b.columns[col].ID,
		snapshot: cloneColumns(b.columns),
	}
	return nil
}

// CancelDrag abandons the in-flight drag without any action.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drag = nil
}

// Drop ends the drag over column to. Dropping on the originating column is a no-op.
// Otherwise the card moves locally first, then the move action runs; the two
// affected columns are restored from the drag snapshot only on a hard failure.
func (b *Board) Drop(ctx context.Context, to string) (Result, error) {
	b.mu.Lock()
	drag := b.drag
	if drag == nil {
		b.mu.Unlock()
		return Result{}, ErrNoDrag
	}
	if to == drag.From {
		b.drag = nil
		b.mu.Unlock()
		return Result{Outcome: OutcomeNoop}, nil
	}
	toIdx := columnIndex(b.columns, to)
	if toIdx < 0 {
		b.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %q", ErrColumnNotFound, to)
	}
	fromIdx, pos := locate(b.columns, drag.CardID)
	if fromIdx < 0 {
		b.drag = nil
		b.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %q", ErrCardNotFound, drag.CardID)
	}
	b.drag = nil

	// Optimistic move.
	from := &b.columns[fromIdx]
	card := from.Cards[pos]
	from.Cards = slices.Delete(from.Cards, pos, pos+1)
	from.Count = len(from.Cards)
	target := &b.columns[toIdx]
	target.Cards = append(target.Cards, card)
	target.Count = len(target.Cards)

	req := domain.ActionRequest{
		Type: b.moveAction,
		Args: map[string]any{
			"card_id": card.ID,
			"from":    from.ID,
			"to":      target.ID,
		},
		Description: fmt.Sprintf("Move %s to %s", card.Title, target.Title),
	}
	fromID, toID := from.ID, target.ID
	source := b.source
	b.mu.Unlock()

	res := b.exec.Execute(ctx, req)
	outcome := settle(res)
	if outcome == OutcomeRolledBack {
		b.restore(source, drag.snapshot, fromID, toID)
	}
	return Result{Outcome: outcome, Action: res}, nil
}

// restore puts the named columns back as they were in snapshot, unless a newer tree
// has replaced the local copy in the meantime.
func (b *Board) restore(source *domain.UITree, snapshot []Column, ids ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.source != source {
		return
	}
	for _, id := range ids {
		src := columnIndex(snapshot, id)
		dst := columnIndex(b.columns, id)
		if src < 0 || dst < 0 {
			continue
		}
		col := snapshot[src]
		col.Cards = slices.Clone(col.Cards)
		b.columns[dst] = col
	}
}

// Move is StartDrag followed by Drop.
func (b *Board) Move(ctx context.Context, cardID, to string) (Result, error) {
	if err := b.StartDrag(cardID); err != nil {
		return Result{}, err
	}
	return b.Drop(ctx, to)
}

// Props returns the local state in the KanbanBoard prop shape, for overlaying on
// the session's tree.
func (b *Board) Props() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()

	cols := make([]any, len(b.columns))
	for i, c := range b.columns {
		cards := make([]any, len(c.Cards))
		for j, card := range c.Cards {
			m := map[string]any{"id": card.ID, "title": card.Title}
			if card.Subtitle != "" {
				m["subtitle"] = card.Subtitle
			}
			if card.Value != nil {
				m["value"] = *card.Value
			}
			cards[j] = m
		}
		cols[i] = map[string]any{"id": c.ID, "title": c.Title, "cards": cards}
	}
	props := map[string]any{"columns": cols, "moveAction": b.moveAction}
	if b.title != "" {
		props["title"] = b.title
	}
	return props
}
