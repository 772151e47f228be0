package generate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/catalog"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/render"
)

// fakeGenerator records the last request and replies with a canned answer.
type fakeGenerator struct {
	reply  string
	err    error
	system string
	user   string
	calls  int
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

type fakeSource struct {
	name     string
	keywords []string
	data     any
	err      error
	fetched  atomic.Int32
}

func (s *fakeSource) Name() string       { return s.name }
func (s *fakeSource) Keywords() []string { return s.keywords }
func (s *fakeSource) Fetch(context.Context) (any, error) {
	s.fetched.Add(1)
	return s.data, s.err
}

const pipelineTree = `{
  "root": "root",
  "elements": {
    "root": {"key": "root", "type": "Stack", "children": ["title", "metrics", "deals"]},
    "title": {"key": "title", "type": "Heading", "props": {"text": "Pipeline"}},
    "metrics": {"key": "metrics", "type": "Grid", "props": {"columns": 2}, "children": ["open", "won"]},
    "open": {"key": "open", "type": "Metric", "props": {"label": "Open", "value": 128400.5, "format": "currency"}},
    "won": {"key": "won", "type": "Metric", "props": {"label": "Won", "value": 42}},
    "deals": {"key": "deals", "type": "KanbanBoard", "props": {"columns": [
      {"id": "lead", "title": "Lead", "cards": [{"id": "d1", "title": "Acme"}]},
      {"id": "won", "title": "Won", "cards": []}
    ]}}
  }
}`

func TestGenerate_RoundTrip(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + pipelineTree + "\n```"}
	deals := &fakeSource{name: "pipeline", keywords: []string{"deals", "funnel"}, data: json.RawMessage(`[{"id":"d1","amount":128400.50}]`)}
	invoices := &fakeSource{name: "invoices", keywords: []string{"billing"}, data: []any{}}

	p := New(gen, WithSources(deals, invoices))
	res, err := p.Generate(context.Background(), "Show my open DEALS by stage")
	require.NoError(t, err)

	assert.Equal(t, []string{"pipeline"}, res.Sources)
	assert.Empty(t, res.Issues)
	assert.LessOrEqual(t, res.Tree.Len(), DefaultLimits.MaxNodes)
	assert.Equal(t, int32(0), invoices.fetched.Load())

	// Numbers are forwarded verbatim.
	assert.Contains(t, gen.user, "128400.50")
	assert.Contains(t, gen.user, "Show my open DEALS by stage")
	assert.NotContains(t, gen.user, SyntheticDataInstruction)

	// Props keep the model's numbers as json.Number.
	assert.Equal(t, json.Number("128400.5"), res.Tree.Elements["open"].Props["value"])

	view := render.New().Render(context.Background(), res.Tree)
	assert.Empty(t, view.Placeholders)
	assert.Empty(t, view.Warnings)
}

func TestGenerate_SystemPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: pipelineTree}
	p := New(gen, WithLimits(Limits{MaxNodes: 9, MaxTableRows: 4}))

	_, err := p.Generate(context.Background(), "overview")
	require.NoError(t, err)

	assert.Contains(t, gen.system, "At most 9 elements")
	assert.Contains(t, gen.system, "At most 4 rows per Table")
	assert.Contains(t, gen.system, "single viewport")
	for _, name := range catalog.Default().Names() {
		assert.Contains(t, gen.system, name)
	}
}

func TestGenerate_Hints(t *testing.T) {
	deals := &fakeSource{name: "pipeline", keywords: []string{"deals"}, data: map[string]any{"n": 1}}
	contacts := &fakeSource{name: "contacts", keywords: []string{"people"}, data: map[string]any{"n": 2}}
	gen := &fakeGenerator{reply: pipelineTree}
	p := New(gen, WithSources(deals, contacts))

	// Hints override keyword matching; unknown hints are ignored.
	res, err := p.Generate(context.Background(), "deals please", "Contacts", "nope")
	require.NoError(t, err)
	assert.Equal(t, []string{"contacts"}, res.Sources)
	assert.Equal(t, int32(0), deals.fetched.Load())
}

func TestGenerate_SyntheticDataFallback(t *testing.T) {
	broken := &fakeSource{name: "pipeline", data: nil, err: errors.New("crm down")}
	gen := &fakeGenerator{reply: pipelineTree}
	p := New(gen, WithSources(broken))

	res, err := p.Generate(context.Background(), "pipeline health")
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.Equal(t, int32(1), broken.fetched.Load())
	assert.Contains(t, gen.user, SyntheticDataInstruction)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		genErr error
		want   error
	}{
		{name: "generator error", genErr: errors.New("503"), want: domain.ErrGenerationFailed},
		{name: "missing credential passes through", genErr: domain.ErrMissingCredential, want: domain.ErrMissingCredential},
		{name: "prose", reply: "Here is your dashboard!", want: domain.ErrInvalidJSON},
		{name: "truncated", reply: `{"root": "a", "elements": {`, want: domain.ErrInvalidJSON},
		{name: "array", reply: `[1, 2]`, want: domain.ErrInvalidJSON},
		{name: "trailing data", reply: `{"root":"a","elements":{}} {}`, want: domain.ErrInvalidJSON},
		{name: "missing elements", reply: `{"root": "a"}`, want: domain.ErrInvalidTree},
		{name: "missing root", reply: `{"elements": {}}`, want: domain.ErrInvalidTree},
		{name: "root not a string", reply: `{"root": 1, "elements": {}}`, want: domain.ErrInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeGenerator{reply: tt.reply, err: tt.genErr})
			res, err := p.Generate(context.Background(), "anything")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerate_IssuesDoNotBlock(t *testing.T) {
	reply := `{"root": "r", "elements": {
		"r": {"key": "r", "type": "Stack", "children": ["x", "ghost"]},
		"x": {"key": "x", "type": "Sparkline"}
	}}`
	p := New(&fakeGenerator{reply: reply})

	res, err := p.Generate(context.Background(), "anything")
	require.NoError(t, err)

	codes := make([]domain.IssueCode, 0, len(res.Issues))
	for _, i := range res.Issues {
		codes = append(codes, i.Code)
	}
	assert.Contains(t, codes, domain.IssueDanglingChild)
	assert.Contains(t, codes, domain.IssueUnknownType)
}

func TestGenerate_RejectsBadPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: pipelineTree}
	p := New(gen)

	_, err := p.Generate(context.Background(), "   ")
	assert.Error(t, err)
	assert.Equal(t, 0, gen.calls)

	_, err = p.Generate(context.Background(), strings.Repeat("a", 9000))
	assert.Error(t, err)
}

func TestGenerate_PromptLimit(t *testing.T) {
	gen := &fakeGenerator{reply: pipelineTree}
	limits := DefaultLimits
	limits.MaxPromptSize = 16
	p := New(gen, WithLimits(limits))

	_, err := p.Generate(context.Background(), "show the whole pipeline")
	assert.Error(t, err)
	assert.Equal(t, 0, gen.calls)

	_, err = p.Generate(context.Background(), "show pipeline")
	require.NoError(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerate_Hooks(t *testing.T) {
	var events []*domain.GenerateEvent
	hooks := domain.LifecycleHooks{OnGenerate: func(_ context.Context, e *domain.GenerateEvent) {
		events = append(events, e)
	}}

	p := New(&fakeGenerator{reply: pipelineTree}, WithHooks(hooks))
	_, err := p.Generate(context.Background(), "x")
	require.NoError(t, err)

	p = New(&fakeGenerator{reply: "nope"}, WithHooks(hooks))
	_, err = p.Generate(context.Background(), "x")
	require.Error(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, 6, events[0].Nodes)
	assert.Empty(t, events[0].Error)
	assert.NotEmpty(t, events[1].Error)
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"{}":                 "{}",
		"```json\n{}\n```":   "{}",
		"```\n{}\n```":       "{}",
		"  ```JSON\n{}```  ": "{}",
		"```{}```":           "{}",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in), "input %q", in)
	}
}
