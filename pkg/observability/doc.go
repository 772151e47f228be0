/*
Package observability turns lifecycle events into logs and Prometheus metrics.

Both are exposed as domain.LifecycleHooks, so they can be merged and handed to the
interpreter, the executor and the generation pipeline.
*/
package observability
