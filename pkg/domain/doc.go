/*
Package domain contains the core models of the Canopy renderer.

It defines the declarative UI Tree consumed by the interpreter, the action and pending-change
types used by the action execution protocol, and the capability flags a host declares when it
connects. This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - UITree / UINode: a root id plus a flat map of nodes (type, props, children ids).
  - ActionRequest / ActionResult: one user-intended mutation and the outcome of executing it.
  - PendingChange: an action recorded for later confirmation when it could not be applied directly.
  - HostCapabilities: what the embedding host allows (direct tool calls, narration).
  - Snapshot: the latest tree injected into a render session plus its ancillary context.
*/
package domain
