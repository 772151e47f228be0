package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
)

func dashboard() *domain.UITree {
	return tree("root",
		n("root", "Stack", nil, "title", "kpis", "notes", "board", "odd"),
		n("title", "Heading", map[string]any{"text": "Q3 <Pipeline>", "level": 1}),
		n("kpis", "Grid", map[string]any{"columns": 2}, "revenue", "winrate"),
		n("revenue", "Metric", map[string]any{"label": "Revenue", "value": 125000, "format": "currency", "delta": 4.2}),
		n("winrate", "Metric", map[string]any{"label": "Win rate", "value": 31.5, "format": "percent"}),
		n("notes", "Markdown", map[string]any{"content": "**Hot** deals <script>alert(1)</script>"}),
		n("board", "KanbanBoard", map[string]any{
			"columns": []any{
				map[string]any{"id": "open", "title": "Open", "cards": []any{map[string]any{"id": "c1", "title": "Acme"}}},
			},
		}),
		n("odd", "Sparkline", nil),
	)
}

func TestHTML(t *testing.T) {
	v := New().Render(context.Background(), dashboard())
	out, err := HTML(v)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<h1 data-node=\"title\">Q3 &lt;Pipeline&gt;</h1>")
	assert.Contains(t, html, "$125,000")
	assert.Contains(t, html, `<span class="cn-delta">&#43;4.2%</span>`)
	assert.Contains(t, html, "31.5%")
	assert.Contains(t, html, "<strong>Hot</strong>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `data-card="c1"`)
	assert.Contains(t, html, `data-action="move_card"`)
	assert.Contains(t, html, "Sparkline")

	assert.Less(t, strings.Index(html, `data-node="title"`), strings.Index(html, `data-node="kpis"`))
}

func TestDocument(t *testing.T) {
	snap := &domain.Snapshot{
		SessionID: "s1",
		Tree:      dashboard(),
		Context:   map[string]any{"note": "</script><b>"},
		Source:    "pipeline",
		Version:   3,
	}
	caps := domain.HostCapabilities{CanCallTools: true}
	interp := New()

	first, err := interp.Document(context.Background(), snap, caps)
	require.NoError(t, err)
	second, err := interp.Document(context.Background(), snap, caps)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	page := string(first)
	assert.Contains(t, page, "<title>Canopy · pipeline</title>")
	assert.Equal(t, 1, strings.Count(page, "</script>"))

	start := strings.Index(page, `id="canopy-data">`) + len(`id="canopy-data">`)
	end := strings.LastIndex(page, "</script>")
	require.Greater(t, end, start)

	var blob DataBlob
	require.NoError(t, json.Unmarshal([]byte(page[start:end]), &blob))
	assert.Equal(t, "s1", blob.SessionID)
	assert.Equal(t, int64(3), blob.Version)
	assert.True(t, blob.Capabilities.CanCallTools)
	assert.Equal(t, "root", blob.Tree.Root)
	assert.Equal(t, "</script><b>", blob.Context["note"])
}

func TestDocument_NilSnapshot(t *testing.T) {
	_, err := New().Document(context.Background(), nil, domain.HostCapabilities{})
	assert.ErrorIs(t, err, domain.ErrNoView)
}

func TestFormatMetric(t *testing.T) {
	delta := -2.5
	tests := []struct {
		name string
		m    Metric
		want string
	}{
		{"plain int", Metric{Value: 1234567, Format: "number"}, "1,234,567"},
		{"fraction", Metric{Value: 1234.5, Format: "number"}, "1,234.5"},
		{"currency", Metric{Value: 99.5, Format: "currency", Currency: "usd"}, "$99.50"},
		{"negative currency", Metric{Value: -1500.0, Format: "currency", Currency: "EUR"}, "-€1,500"},
		{"unknown currency", Metric{Value: 10, Format: "currency", Currency: "CHF"}, "CHF 10"},
		{"json number", Metric{Value: json.Number("4200"), Format: "number"}, "4,200"},
		{"percent", Metric{Value: 12.25, Format: "percent"}, "12.25%"},
		{"string", Metric{Value: "n/a", Format: "currency"}, "n/a"},
		{"delta ignored", Metric{Value: 1, Delta: &delta}, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMetric(&tt.m))
		})
	}
	assert.Equal(t, "-2.5%", FormatDelta(&delta))
	assert.Equal(t, "", FormatDelta(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 50.0, Percent(5, 10))
	assert.Equal(t, 100.0, Percent(20, 10))
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 33.3, Percent(1, 3))
}
