package widget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/render"
)

func editorTree() *domain.UITree {
	return &domain.UITree{
		Root: "amount",
		Elements: map[string]domain.UINode{
			"amount": {Key: "amount", Type: "InlineEditor", Props: map[string]any{
				"label": "Amount", "field": "amount", "recordId": "deal-1", "value": 1000.0, "inputType": "number",
			}},
			"stage": {Key: "stage", Type: "Picker", Props: map[string]any{
				"field": "stage", "recordId": "deal-1", "value": "open", "action": "set_stage",
				"options": []any{map[string]any{"value": "open"}, map[string]any{"value": "won"}},
			}},
		},
	}
}

func newEditor(t *testing.T, id string, exec Executor) *Editor {
	t.Helper()
	e := NewEditor(id, render.New(), exec)
	_, err := e.Sync(editorTree())
	require.NoError(t, err)
	return e
}

func TestEditor_Commit(t *testing.T) {
	exec := &fakeExec{result: queued}
	e := newEditor(t, "amount", exec)

	res, err := e.Commit(context.Background(), 2500.0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, 2500.0, e.Value())

	require.Len(t, exec.calls, 1)
	assert.Equal(t, domain.ActionRequest{
		Type:        "update_field",
		Args:        map[string]any{"record_id": "deal-1", "field": "amount", "value": 2500.0},
		Description: "Set Amount to 2500",
	}, exec.calls[0])
}

func TestEditor_HardFailureRestoresValue(t *testing.T) {
	e := newEditor(t, "amount", &fakeExec{result: hardFailure})

	res, err := e.Commit(context.Background(), 2500.0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRolledBack, res.Outcome)
	assert.Equal(t, 1000.0, e.Value())
}

func TestEditor_SameValueIsNoop(t *testing.T) {
	exec := &fakeExec{result: queued}
	e := newEditor(t, "amount", exec)

	res, err := e.Commit(context.Background(), 1000.0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoop, res.Outcome)
	assert.Empty(t, exec.calls)
}

func TestPicker(t *testing.T) {
	exec := &fakeExec{result: direct}
	p := newEditor(t, "stage", exec)

	_, err := p.Commit(context.Background(), "archived")
	assert.ErrorIs(t, err, ErrInvalidOption)
	assert.Empty(t, exec.calls)

	res, err := p.Commit(context.Background(), "won")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCommitted, res.Outcome)
	assert.Equal(t, "set_stage", exec.calls[0].Type)
	assert.Equal(t, "Set stage to won", exec.calls[0].Description)
	assert.Equal(t, map[string]any{"value": "won"}, p.Props())
}
