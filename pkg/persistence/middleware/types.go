// Package middleware wraps a TreeStore with at-rest protections for snapshots.
package middleware

import "github.com/aretw0/canopy/pkg/ports"

// Middleware decorates a TreeStore.
type Middleware func(ports.TreeStore) ports.TreeStore

// Chain applies mws so that the first one is the outermost.
func Chain(store ports.TreeStore, mws ...Middleware) ports.TreeStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
