package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnAction(ctx, &domain.ActionEvent{ActionType: "move_card", Outcome: "queued", Duration: time.Millisecond})
	hooks.OnAction(ctx, &domain.ActionEvent{ActionType: "move_card", Outcome: "queued"})
	hooks.OnAction(ctx, &domain.ActionEvent{ActionType: "update_field", Outcome: "failed", Error: "full"})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{Nodes: 6})
	hooks.OnGenerate(ctx, &domain.GenerateEvent{Error: "boom"})
	hooks.OnRender(ctx, &domain.RenderEvent{Elements: 12, Placeholders: 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Actions.WithLabelValues("move_card", "queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("update_field", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Placeholders))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RenderElements))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := LogHooks(logging.NewWithWriter(&buf, slog.LevelDebug, false))

	hooks.OnAction(context.Background(), &domain.ActionEvent{ActionType: "move_card", Outcome: "fallback", Error: "timeout"})
	hooks.OnGenerate(context.Background(), &domain.GenerateEvent{Error: "invalid json"})

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=action")
	assert.Contains(t, out, "outcome=fallback")
	assert.Contains(t, out, `msg="generation failed"`)
}
