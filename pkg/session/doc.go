/*
Package session owns the render sessions.

A session has a persisted snapshot (the latest injected tree), a pending change log,
host capabilities fixed at connection time, and replica-local widget state that
overlays optimistic edits on the snapshot. Access to a session is serialized with
per-session locks that are reference counted, optionally backed by a distributed
locker so several replicas can share one store.
*/
package session
