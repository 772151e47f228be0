// Package widget holds the local, optimistic state of interactive components.
//
// Each widget keeps its own copy of the props it mutates, re-reads them only when the
// session hands it a different tree, and applies the snapshot-and-commit pattern
// around every action: snapshot, mutate locally, execute, and restore the snapshot
// only when the action failed outright.
package widget
