package domain

import "time"

// Snapshot is the latest tree injected into a render session.
type Snapshot struct {
	SessionID string         `json:"session_id"`
	Tree      *UITree        `json:"tree"`
	Context   map[string]any `json:"context,omitempty"`
	// Source names the producer of the tree (template name or "generated").
	Source    string    `json:"source,omitempty"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}
