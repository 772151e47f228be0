package domain

import (
	"fmt"
	"time"
)

// ActionRequest is a user-intended mutation of remote state, as emitted by an
// interactive widget (board drop, inline edit, picker selection, button).
type ActionRequest struct {
	Type        string         `json:"type"`
	Args        map[string]any `json:"args,omitempty"`
	Description string         `json:"description,omitempty"`
}

// Describe returns the human-readable description, deriving one from the type
// and arguments when none was provided.
func (r ActionRequest) Describe() string {
	if r.Description != "" {
		return r.Description
	}
	if len(r.Args) == 0 {
		return r.Type
	}
	return fmt.Sprintf("%s %v", r.Type, r.Args)
}

// ActionResult is the outcome of one action execution.
//
//   - Success && !Queued: the direct call succeeded.
//   - Success && Queued: direct calls are unavailable; the intent was recorded.
//   - !Success && Queued: the direct call failed; the intent was recorded instead.
//   - !Success && !Queued: hard failure; nothing was recorded and callers should roll back.
type ActionResult struct {
	Success bool  `json:"success"`
	Queued  bool  `json:"queued"`
	Err     error `json:"-"`
}

// HardFailure reports whether the caller should revert its optimistic mutation.
func (r ActionResult) HardFailure() bool {
	return !r.Success && !r.Queued
}

// ErrorString returns the error message, or "" when the action did not fail.
func (r ActionResult) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// PendingChange is an action recorded by the change tracker, awaiting confirmation.
type PendingChange struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Args        map[string]any `json:"args,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Description string         `json:"description"`
}

// SaveStatus reports the state of the operator-facing save indicator.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)
