package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/canopy/pkg/domain"
)

// LogHooks logs lifecycle events. Renders log at debug, actions and generations
// at info, failures at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			logger.DebugContext(ctx, "render",
				"elements", e.Elements,
				"placeholders", e.Placeholders,
				"warnings", e.Warnings,
			)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			level := slog.LevelInfo
			if e.Error != "" {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "action",
				"session_id", e.SessionID,
				"type", e.ActionType,
				"outcome", e.Outcome,
				"duration", e.Duration,
				"err", e.Error,
			)
		},
		OnGenerate: func(ctx context.Context, e *domain.GenerateEvent) {
			if e.Error != "" {
				logger.WarnContext(ctx, "generation failed", "duration", e.Duration, "err", e.Error)
				return
			}
			logger.InfoContext(ctx, "generation",
				"sources", e.Sources,
				"nodes", e.Nodes,
				"issues", e.Issues,
				"duration", e.Duration,
			)
		},
	}
}
