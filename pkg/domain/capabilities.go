package domain

// HostCapabilities describes what the embedding host allows for one session.
// It is derived once when the host connects and never changes afterwards.
type HostCapabilities struct {
	// CanCallTools is true when widgets may invoke tools directly.
	CanCallTools bool `json:"can_call_tools"`
	// CanNarrate is true when the host accepts narration messages for the
	// supervising agent.
	CanNarrate bool `json:"can_narrate"`
}
