package ports

import "context"

// ToolInvoker calls a named remote operation exposed by the host. The result is
// opaque; only success or failure matters to the caller.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args map[string]any) (any, error)
}

// Narrator forwards a human-readable message to the supervising agent.
// Callers treat failures as non-fatal.
type Narrator interface {
	Narrate(ctx context.Context, sessionID, message string) error
}

// NarratorFunc adapts a function to the Narrator interface.
type NarratorFunc func(ctx context.Context, sessionID, message string) error

func (f NarratorFunc) Narrate(ctx context.Context, sessionID, message string) error {
	return f(ctx, sessionID, message)
}

// Generator produces the raw text of a UI tree from a system prompt and a user message.
// The reply is expected to be a single JSON object, optionally wrapped in a code fence.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// DataSource fetches structured records from the CRM collaborator.
type DataSource interface {
	// Name identifies the source, e.g. "pipeline".
	Name() string
	// Keywords are matched against prompts to decide whether the source is relevant.
	Keywords() []string
	// Fetch returns JSON-compatible records.
	Fetch(ctx context.Context) (any, error)
}
