package render

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
)

func tree(root string, nodes ...domain.UINode) *domain.UITree {
	t := &domain.UITree{Root: root, Elements: map[string]domain.UINode{}}
	for _, n := range nodes {
		t.Elements[n.Key] = n
	}
	return t
}

func n(key, typ string, props map[string]any, children ...string) domain.UINode {
	return domain.UINode{Key: key, Type: typ, Props: props, Children: children}
}

func ids(els []Element) []string {
	out := make([]string, len(els))
	for i, e := range els {
		out[i] = e.ID()
	}
	return out
}

func TestRender_ChildrenOrder(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "c", "a", "b"),
		n("a", "Text", map[string]any{"text": "A"}),
		n("b", "Text", map[string]any{"text": "B"}),
		n("c", "Text", map[string]any{"text": "C"}),
	)
	v := New().Render(context.Background(), tr)

	stack, ok := v.Root.(*Stack)
	require.True(t, ok)
	assert.Equal(t, []string{"c", "a", "b"}, ids(stack.Children))
	assert.Equal(t, 4, v.Elements)
	assert.Empty(t, v.Warnings)
}

func TestRender_MissingRoot(t *testing.T) {
	for _, tr := range []*domain.UITree{
		nil,
		{Root: "ghost"},
		tree("ghost", n("a", "Text", map[string]any{"text": "A"})),
	} {
		var v *View
		require.NotPanics(t, func() { v = New().Render(context.Background(), tr) })
		ph, ok := v.Root.(*Placeholder)
		require.True(t, ok)
		assert.Equal(t, "missing root", ph.Reason)
		assert.Equal(t, 1, v.Placeholders)
		assert.NotEmpty(t, v.Warnings)
	}
}

func TestRender_DanglingChildIsSkipped(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "a", "ghost", "b"),
		n("a", "Text", map[string]any{"text": "A"}),
		n("b", "Text", map[string]any{"text": "B"}),
	)
	v := New().Render(context.Background(), tr)

	stack := v.Root.(*Stack)
	assert.Equal(t, []string{"a", "b"}, ids(stack.Children))
	require.Len(t, v.Warnings, 1)
	assert.Equal(t, "ghost", v.Warnings[0].NodeID)
}

func TestRender_CycleTerminates(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "card"),
		n("card", "Card", nil, "inner", "root"),
		n("inner", "Card", nil, "card"),
	)

	var v *View
	require.NotPanics(t, func() { v = New().Render(context.Background(), tr) })

	card := v.Root.(*Stack).Children[0].(*Card)
	assert.Equal(t, []string{"inner"}, ids(card.Children))
	assert.Empty(t, card.Children[0].(*Card).Children)
	assert.Len(t, v.Warnings, 2)
}

func TestRender_SharedSubtreeRendersTwice(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "shared", "shared"),
		n("shared", "Badge", map[string]any{"label": "x"}),
	)
	v := New().Render(context.Background(), tr)
	assert.Len(t, v.Root.(*Stack).Children, 2)
	assert.Empty(t, v.Warnings)
}

func TestRender_UnknownTypeBecomesPlaceholder(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "x", "y"),
		n("x", "Carousel", map[string]any{"slides": 3}),
		n("y", "", nil),
	)
	v := New().Render(context.Background(), tr)

	children := v.Root.(*Stack).Children
	require.Len(t, children, 2)
	ph := children[0].(*Placeholder)
	assert.Equal(t, "Carousel", ph.RawType)
	assert.Equal(t, "x", ph.ID())
	assert.Equal(t, 2, v.Placeholders)
}

func TestRender_PropsFallBackToDefaults(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", map[string]any{"direction": "diagonal", "gap": "wide"}, "h"),
		n("h", "Heading", map[string]any{"text": "Pipeline", "level": 3.0}),
	)
	v := New().Render(context.Background(), tr)

	stack := v.Root.(*Stack)
	assert.Equal(t, "vertical", stack.Direction)
	assert.Equal(t, 8, stack.Gap)
	assert.Equal(t, "stretch", stack.Align)
	assert.Len(t, v.Warnings, 2)

	h := stack.Children[0].(*Heading)
	assert.Equal(t, "Pipeline", h.Text)
	assert.Equal(t, 3, h.Level)
}

func TestRender_MissingRequiredPropStillRenders(t *testing.T) {
	v := New().Render(context.Background(), tree("m", n("m", "Metric", nil)))
	m, ok := v.Root.(*Metric)
	require.True(t, ok)
	assert.Equal(t, "number", m.Format)
	assert.Len(t, v.Warnings, 2)
}

func TestRender_DecodesNestedProps(t *testing.T) {
	var props map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"columns": [
			{"id": "open", "title": "Open", "cards": [{"id": "c1", "title": "Acme", "value": 1200}]},
			{"id": "won", "title": "Won"}
		]
	}`), &props))

	v := New().Render(context.Background(), tree("b", n("b", "KanbanBoard", props)))
	board := v.Root.(*KanbanBoard)
	require.Len(t, board.Columns, 2)
	assert.Equal(t, "move_card", board.MoveAction)
	require.Len(t, board.Columns[0].Cards, 1)
	assert.Equal(t, 1200.0, *board.Columns[0].Cards[0].Value)
	assert.Empty(t, board.Columns[1].Cards)
}

func TestRender_TableTruncation(t *testing.T) {
	rows := make([]any, 12)
	for i := range rows {
		rows[i] = map[string]any{"name": fmt.Sprintf("row %d", i)}
	}
	v := New().Render(context.Background(), tree("t", n("t", "Table", map[string]any{
		"columns": []any{map[string]any{"key": "name"}},
		"rows":    rows,
		"maxRows": 5,
	})))

	table := v.Root.(*Table)
	assert.Len(t, table.Rows, 5)
	assert.Equal(t, 7, table.Hidden)
}

func TestRender_ChildrenOnLeafAreIgnored(t *testing.T) {
	tr := tree("root",
		n("root", "Text", map[string]any{"text": "hi"}, "a"),
		n("a", "Text", map[string]any{"text": "A"}),
	)
	v := New().Render(context.Background(), tr)
	assert.IsType(t, &Text{}, v.Root)
	assert.Equal(t, 1, v.Elements)
	assert.Len(t, v.Warnings, 1)
}

func TestRender_Budget(t *testing.T) {
	// Each level references the next twice: 2^10 expansions without a budget.
	tr := &domain.UITree{Root: "l0", Elements: map[string]domain.UINode{}}
	for i := 0; i < 10; i++ {
		id, next := fmt.Sprintf("l%d", i), fmt.Sprintf("l%d", i+1)
		tr.Elements[id] = n(id, "Stack", nil, next, next)
	}
	tr.Elements["l10"] = n("l10", "Divider", nil)

	v := New(WithBudget(50)).Render(context.Background(), tr)
	assert.Equal(t, 50, v.Elements)
	assert.Len(t, v.Warnings, 1)
}

func TestRender_Hooks(t *testing.T) {
	var got *domain.RenderEvent
	hooks := domain.LifecycleHooks{OnRender: func(_ context.Context, e *domain.RenderEvent) { got = e }}

	New(WithHooks(hooks)).Render(context.Background(), tree("x", n("x", "Nope", nil)))
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Elements)
	assert.Equal(t, 1, got.Placeholders)
	assert.Equal(t, domain.EventRender, got.Type)
}

func TestView_MarshalJSON(t *testing.T) {
	tr := tree("root",
		n("root", "Card", map[string]any{"title": "Deals"}, "x"),
		n("x", "Mystery", nil),
	)
	b, err := json.Marshal(New().Render(context.Background(), tr))
	require.NoError(t, err)

	var out struct {
		Root struct {
			ID       string           `json:"id"`
			Type     string           `json:"type"`
			Title    string           `json:"title"`
			Children []map[string]any `json:"children"`
		} `json:"root"`
		Placeholders int `json:"placeholders"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "Card", out.Root.Type)
	assert.Equal(t, "Deals", out.Root.Title)
	require.Len(t, out.Root.Children, 1)
	assert.Equal(t, "Placeholder", out.Root.Children[0]["type"])
	assert.Equal(t, "Mystery", out.Root.Children[0]["raw_type"])
	assert.Equal(t, 1, out.Placeholders)
}

func TestFind(t *testing.T) {
	tr := tree("root",
		n("root", "Stack", nil, "card"),
		n("card", "Card", nil, "b"),
		n("b", "Button", map[string]any{"label": "Go", "action": "refresh"}),
	)
	v := New().Render(context.Background(), tr)
	b, ok := Find(v.Root, "b").(*Button)
	require.True(t, ok)
	assert.Equal(t, "refresh", b.Action)
	assert.Nil(t, Find(v.Root, "ghost"))
}

func TestDecode(t *testing.T) {
	el, warnings := New().Decode(n("p", "Picker", map[string]any{
		"field":   "stage",
		"options": []any{map[string]any{"value": "open"}, map[string]any{"value": "won", "label": "Won"}},
	}, "ignored"))

	p, ok := el.(*Picker)
	require.True(t, ok)
	assert.Equal(t, "update_field", p.Action)
	assert.Len(t, p.Options, 2)
	assert.Empty(t, warnings)
}
