// Package host derives the capabilities an embedding host grants to a session.
//
// Capabilities are read once, when the host connects, and never change for the
// lifetime of the session. Nothing here retries or polls.
package host

import (
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// FeatureKey is the name of the feature block a host declares.
const FeatureKey = "canopy"

// Detect reads the capability block from a host's declared features, e.g. the
// experimental capabilities of an MCP initialize request:
//
//	{"canopy": {"callTools": true, "narrate": true}}
//
// Anything missing or malformed means "not allowed".
func Detect(features map[string]any) domain.HostCapabilities {
	block, ok := features[FeatureKey].(map[string]any)
	if !ok {
		return domain.HostCapabilities{}
	}
	return domain.HostCapabilities{
		CanCallTools: flag(block["callTools"]),
		CanNarrate:   flag(block["narrate"]),
	}
}

// ParseHeader reads capabilities from a comma separated header value such as
// "callTools,narrate".
func ParseHeader(value string) domain.HostCapabilities {
	var caps domain.HostCapabilities
	for _, part := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "calltools":
			caps.CanCallTools = true
		case "narrate":
			caps.CanNarrate = true
		}
	}
	return caps
}

func flag(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, _ := strconv.ParseBool(val)
		return b
	default:
		return false
	}
}

// Registry holds the capabilities of each session. The first value stored for a
// session wins; later writes are ignored.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]domain.HostCapabilities
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]domain.HostCapabilities)}
}

// Set records caps for a session. It reports false when the session already had
// capabilities, in which case the stored value is kept.
func (r *Registry) Set(sessionID string, caps domain.HostCapabilities) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sessionID]; exists {
		return false
	}
	r.sessions[sessionID] = caps
	return true
}

// Get returns the capabilities of a session. Unknown sessions get the zero value,
// which allows nothing.
func (r *Registry) Get(sessionID string) (domain.HostCapabilities, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	caps, ok := r.sessions[sessionID]
	return caps, ok
}

// Forget drops a session, e.g. on teardown.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}
