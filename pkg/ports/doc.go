/*
Package ports defines the driven ports (interfaces) of the Canopy engine.

These interfaces decouple the rendering and action core from storage backends, the
host's tool surface and the generation collaborator.

# Key Interfaces

  - TreeStore: persists the latest Snapshot (tree plus context) of each session.
  - ChangeStore: holds the ordered pending changes of each session.
  - DistributedLocker: coordinates session access across replicas.
  - ToolInvoker: calls a named host tool with a flat argument object.
  - Narrator: tells the supervising agent what happened, best-effort.
  - Generator: asks a language model for a UI tree.
  - DataSource: fetches CRM records to ground a generation request.
*/
package ports
