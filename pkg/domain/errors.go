package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoView is returned when a session has no tree injected yet.
var ErrNoView = errors.New("no view has been rendered for this session")

// ErrToolNotFound is returned by tool invokers for unregistered tool names.
var ErrToolNotFound = errors.New("tool not found")

// ErrTrackerFull is returned when the change tracker has reached its capacity.
var ErrTrackerFull = errors.New("change tracker is full")

// Generation failures. Each is surfaced to the operator as its own category.
var (
	ErrMissingCredential = errors.New("generation credential is not configured")
	ErrGenerationFailed  = errors.New("generation failed")
	ErrInvalidJSON       = errors.New("generation response was not valid JSON")
	ErrInvalidTree       = errors.New("generation response is not a UI tree")
)

// ErrWidgetNotFound is returned when an interaction targets a node that is not an
// interactive widget of the expected type.
var ErrWidgetNotFound = errors.New("widget not found")

// IsToolNotFound reports whether err means "no such tool".
func IsToolNotFound(err error) bool {
	return errors.Is(err, ErrToolNotFound)
}
