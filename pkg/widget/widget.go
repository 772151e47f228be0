package widget

import (
	"context"
	"errors"

	"github.com/aretw0/canopy/pkg/domain"
)

var (
	// ErrNoDrag is returned by Drop when no drag is in progress.
	ErrNoDrag = errors.New("no drag in progress")
	// ErrCardNotFound is returned when a card id is not on the board.
	ErrCardNotFound = errors.New("card not found")
	// ErrColumnNotFound is returned when a drop targets an unknown column.
	ErrColumnNotFound = errors.New("column not found")
	// ErrInvalidOption is returned when a picker value is not one of its options.
	ErrInvalidOption = errors.New("value is not one of the picker options")
)

// Executor runs actions. *action.Executor satisfies it.
type Executor interface {
	Execute(ctx context.Context, req domain.ActionRequest) domain.ActionResult
}

// Outcome is how an interaction ended for the local state.
type Outcome string

const (
	// OutcomeNoop: nothing changed and no action ran.
	OutcomeNoop Outcome = "noop"
	// OutcomeCommitted: the optimistic change is kept (applied or queued).
	OutcomeCommitted Outcome = "committed"
	// OutcomeRolledBack: the action failed outright and the snapshot was restored.
	OutcomeRolledBack Outcome = "rolled_back"
)

// Result reports an interaction.
type Result struct {
	Outcome Outcome             `json:"outcome"`
	Action  domain.ActionResult `json:"action"`
}

func settle(res domain.ActionResult) Outcome {
	if res.HardFailure() {
		return OutcomeRolledBack
	}
	return OutcomeCommitted
}
