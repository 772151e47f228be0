package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRender   EventType = "render"
	EventAction   EventType = "action"
	EventGenerate EventType = "generate"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// RenderEvent is emitted after a tree has been interpreted.
type RenderEvent struct {
	EventBase
	Elements     int `json:"elements"`
	Placeholders int `json:"placeholders"`
	Warnings     int `json:"warnings"`
}

// ActionEvent is emitted after an action execution completes.
type ActionEvent struct {
	EventBase
	ActionType string        `json:"action_type"`
	Outcome    string        `json:"outcome"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// GenerateEvent is emitted after a generation request completes.
type GenerateEvent struct {
	EventBase
	Sources  []string      `json:"sources,omitempty"`
	Nodes    int           `json:"nodes"`
	Issues   int           `json:"issues"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for observability.
type LifecycleHooks struct {
	OnRender   func(context.Context, *RenderEvent)
	OnAction   func(context.Context, *ActionEvent)
	OnGenerate func(context.Context, *GenerateEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRender: func(ctx context.Context, e *RenderEvent) {
			if h.OnRender != nil {
				h.OnRender(ctx, e)
			}
			if other.OnRender != nil {
				other.OnRender(ctx, e)
			}
		},
		OnAction: func(ctx context.Context, e *ActionEvent) {
			if h.OnAction != nil {
				h.OnAction(ctx, e)
			}
			if other.OnAction != nil {
				other.OnAction(ctx, e)
			}
		},
		OnGenerate: func(ctx context.Context, e *GenerateEvent) {
			if h.OnGenerate != nil {
				h.OnGenerate(ctx, e)
			}
			if other.OnGenerate != nil {
				other.OnGenerate(ctx, e)
			}
		},
	}
}
