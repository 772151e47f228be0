// Package redis provides Redis-backed implementations of the session ports: snapshot
// storage, the pending-change log and a distributed session lock.
package redis
