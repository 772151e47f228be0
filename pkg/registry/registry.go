// Package registry is the in-process tool surface: named Go functions plus
// fallback invokers (such as the process runner), guarded by interceptors.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// ToolFunction defines the signature for a tool implementation.
// It receives a context and a map of arguments, and returns a result or error.
type ToolFunction func(ctx context.Context, args map[string]any) (any, error)

// Interceptor runs before every invocation. Returning an error blocks the call.
type Interceptor func(ctx context.Context, name string, args map[string]any) error

// Registry manages the available tools. It implements ports.ToolInvoker.
type Registry struct {
	mu           sync.RWMutex
	tools        map[string]ToolFunction
	fallbacks    []ports.ToolInvoker
	interceptors []Interceptor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]ToolFunction),
	}
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Fallback appends an invoker consulted, in order, for names not registered
// locally. Invokers signal "not mine" with domain.ErrToolNotFound.
func (r *Registry) Fallback(inv ports.ToolInvoker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, inv)
}

// Use appends interceptors.
func (r *Registry) Use(interceptors ...Interceptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interceptors = append(r.interceptors, interceptors...)
}

// Names lists locally registered tools, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Invoke looks up a tool by name and executes it.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	fallbacks := slices.Clone(r.fallbacks)
	interceptors := slices.Clone(r.interceptors)
	r.mu.RUnlock()

	for _, ic := range interceptors {
		if err := ic(ctx, name, args); err != nil {
			return nil, err
		}
	}

	if ok {
		return fn(ctx, args)
	}
	for _, inv := range fallbacks {
		out, err := inv.Invoke(ctx, name, args)
		if err == nil || !domain.IsToolNotFound(err) {
			return out, err
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
}

// AllowList blocks every tool not named.
func AllowList(names ...string) Interceptor {
	return func(_ context.Context, name string, _ map[string]any) error {
		if !slices.Contains(names, name) {
			return fmt.Errorf("%w: %s is not allowed", domain.ErrToolNotFound, name)
		}
		return nil
	}
}

// Require blocks calls to tool that lack any of the given argument keys.
func Require(tool string, keys ...string) Interceptor {
	return func(_ context.Context, name string, args map[string]any) error {
		if name != tool {
			return nil
		}
		for _, k := range keys {
			if _, ok := args[k]; !ok {
				return fmt.Errorf("%s: missing argument %q", tool, k)
			}
		}
		return nil
	}
}

// Logging records every invocation attempt at debug level.
func Logging(logger *slog.Logger) Interceptor {
	return func(ctx context.Context, name string, args map[string]any) error {
		logger.DebugContext(ctx, "tool call", "tool", name, "args", len(args))
		return nil
	}
}
