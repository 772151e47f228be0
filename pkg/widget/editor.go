package widget

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/render"
)

// Editor is the local state of an InlineEditor or Picker node.
type Editor struct {
	nodeID string
	interp *render.Interpreter
	exec   Executor

	mu       sync.Mutex
	source   *domain.UITree
	label    string
	field    string
	recordID string
	action   string
	options  []string
	value    any
}

// NewEditor creates the state of the editor node nodeID. Call Sync before use.
func NewEditor(nodeID string, interp *render.Interpreter, exec Executor) *Editor {
	return &Editor{nodeID: nodeID, interp: interp, exec: exec}
}

// NodeID returns the id of the editor node.
func (e *Editor) NodeID() string { return e.nodeID }

// Sync re-reads the node from tree when tree is a different reference from the
// last one seen.
func (e *Editor) Sync(tree *domain.UITree) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tree == e.source {
		return false, nil
	}
	node, ok := tree.Node(e.nodeID)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrWidgetNotFound, e.nodeID)
	}

	el, _ := e.interp.Decode(node)
	switch w := el.(type) {
	case *render.InlineEditor:
		e.label, e.field, e.recordID, e.action = w.Label, w.Field, w.RecordID, w.Action
		e.options = nil
		e.value = w.Value
	case *render.Picker:
		e.label, e.field, e.recordID, e.action = w.Label, w.Field, w.RecordID, w.Action
		e.options = make([]string, len(w.Options))
		for i, o := range w.Options {
			e.options[i] = o.Value
		}
		e.value = w.Value
	default:
		return false, fmt.Errorf("%w: %q is a %s", domain.ErrWidgetNotFound, e.nodeID, node.Type)
	}
	e.source = tree
	return true, nil
}

// Value returns the current local value.
func (e *Editor) Value() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Commit sets a new value locally and runs the editor's action with record_id,
// field and value. The previous value comes back only on a hard failure.
// Committing the current value is a no-op.
func (e *Editor) Commit(ctx context.Context, value any) (Result, error) {
	e.mu.Lock()
	if e.options != nil {
		s, ok := value.(string)
		if !ok || !slices.Contains(e.options, s) {
			e.mu.Unlock()
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidOption, value)
		}
	}
	if reflect.DeepEqual(e.value, value) {
		e.mu.Unlock()
		return Result{Outcome: OutcomeNoop}, nil
	}

	previous := e.value
	e.value = value
	source := e.source

	name := e.label
	if name == "" {
		name = e.field
	}
	req := domain.ActionRequest{
		Type: e.action,
		Args: map[string]any{
			"record_id": e.recordID,
			"field":     e.field,
			"value":     value,
		},
		Description: fmt.Sprintf("Set %s to %v", name, value),
	}
	e.mu.Unlock()

	res := e.exec.Execute(ctx, req)
	outcome := settle(res)
	if outcome == OutcomeRolledBack {
		e.mu.Lock()
		// Only undo our own write.
		if e.source == source && reflect.DeepEqual(e.value, value) {
			e.value = previous
		}
		e.mu.Unlock()
	}
	return Result{Outcome: outcome, Action: res}, nil
}

// Props returns the local overrides for the node's props.
func (e *Editor) Props() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return map[string]any{"value": e.value}
}
