/*
Package canopy renders CRM data as interactive dashboards inside hosts that only
execute declarative instructions.

A dashboard is a UITree: a root id plus a flat map of nodes, each naming a component
from a closed catalog. Trees come from templates or from a language model, and both
are treated as untrusted: the interpreter renders whatever it can and degrades to
placeholders, defaults and omitted children for the rest.

Interactive widgets (boards, inline editors, pickers, buttons) mutate local state
optimistically and hand the intent to the action execution protocol. When the host
lets the widget call tools, the change is applied directly; otherwise it is recorded
as a pending change and narrated to the supervising agent, and the operator confirms
the batch later.

# Usage

	eng := canopy.New(
		canopy.WithInvoker(tools),
		canopy.WithGenerator(gen),
	)

	eng.Connect("session-1", domain.HostCapabilities{CanCallTools: false})
	eng.Inject(ctx, "session-1", tree, nil, "pipeline")

	// A drag and drop on the board node "deals".
	res, err := eng.MoveCard(ctx, "session-1", "deals", "d1", "won")

	// The HTML document for the host's view resource.
	page, err := eng.View(ctx, "session-1")

# Transports

The MCP adapter (pkg/adapters/mcp) exposes the engine as tools and a view resource;
the HTTP adapter (pkg/adapters/http) exposes it as a REST API with a websocket stream.
Both are wired by the canopy command in cmd/canopy.
*/
package canopy
