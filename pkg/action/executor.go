// Package action implements the dual-path mutation protocol shared by every
// interactive widget.
//
// When the host lets widgets call tools, the action runs directly. When it does not,
// or the direct call fails, the intent is recorded in the change tracker and narrated
// to the supervising agent, so no user intent is silently dropped.
package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// DefaultTimeout bounds a direct tool call.
const DefaultTimeout = 30 * time.Second

// Outcomes reported in action events and metrics.
const (
	OutcomeDirect   = "direct"   // direct call succeeded
	OutcomeQueued   = "queued"   // direct calls unavailable, intent recorded
	OutcomeFallback = "fallback" // direct call failed, intent recorded
	OutcomeFailed   = "failed"   // nothing recorded
)

// Recorder is the part of the change tracker the executor needs.
type Recorder interface {
	Track(ctx context.Context, req domain.ActionRequest) (domain.PendingChange, error)
	SetSaveStatus(status domain.SaveStatus, err error)
	SessionID() string
}

// Executor runs actions for one session with fixed host capabilities.
type Executor struct {
	caps     domain.HostCapabilities
	recorder Recorder
	invoker  ports.ToolInvoker
	narrator ports.Narrator
	timeout  time.Duration
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures an Executor.
type Option func(*Executor)

// WithInvoker sets the tool surface used for direct calls.
func WithInvoker(inv ports.ToolInvoker) Option {
	return func(e *Executor) { e.invoker = inv }
}

// WithNarrator sets where queued actions are announced.
func WithNarrator(n ports.Narrator) Option {
	return func(e *Executor) { e.narrator = n }
}

// WithTimeout bounds each direct call. Zero or less disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// WithHooks registers lifecycle hooks fired after each execution.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Executor) { e.hooks = h }
}

// NewExecutor creates an Executor. Capabilities are fixed for its lifetime; without
// an invoker, direct calls are treated as unavailable.
func NewExecutor(caps domain.HostCapabilities, recorder Recorder, opts ...Option) *Executor {
	e := &Executor{
		caps:     caps,
		recorder: recorder,
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Capabilities returns the host capabilities the executor was built with.
func (e *Executor) Capabilities() domain.HostCapabilities {
	return e.caps
}

// Execute runs one action.
//
//   - Direct calls allowed and the call succeeds: {Success}. The tracker is untouched.
//   - Direct calls allowed and the call fails: the change is tracked and narrated,
//     {Queued, Err}.
//   - Direct calls unavailable: the change is tracked and narrated, {Success, Queued}.
//
// If the tracker refuses the change the result is a hard failure (neither Success
// nor Queued) and the caller should revert its optimistic mutation. Narration
// errors never affect the result.
func (e *Executor) Execute(ctx context.Context, req domain.ActionRequest) domain.ActionResult {
	start := time.Now()
	var (
		res     domain.ActionResult
		outcome string
	)

	if e.caps.CanCallTools && e.invoker != nil {
		e.recorder.SetSaveStatus(domain.SaveSaving, nil)
		err := e.call(ctx, req)
		if err == nil {
			e.recorder.SetSaveStatus(domain.SaveSaved, nil)
			res, outcome = domain.ActionResult{Success: true}, OutcomeDirect
		} else {
			e.recorder.SetSaveStatus(domain.SaveError, err)
			e.logger.Warn("direct call failed, queueing", "action", req.Type, "error", err)
			if _, terr := e.recorder.Track(ctx, req); terr != nil {
				res, outcome = domain.ActionResult{Err: errors.Join(err, terr)}, OutcomeFailed
			} else {
				e.narrate(ctx, fmt.Sprintf("Action queued because direct call failed: %s (%v)", req.Describe(), err))
				res, outcome = domain.ActionResult{Queued: true, Err: err}, OutcomeFallback
			}
		}
	} else {
		if _, err := e.recorder.Track(ctx, req); err != nil {
			res, outcome = domain.ActionResult{Err: err}, OutcomeFailed
		} else {
			e.narrate(ctx, req.Describe())
			res, outcome = domain.ActionResult{Success: true, Queued: true}, OutcomeQueued
		}
	}

	if outcome == OutcomeFailed {
		e.logger.Error("action lost", "action", req.Type, "error", res.Err)
	}
	if e.hooks.OnAction != nil {
		e.hooks.OnAction(ctx, &domain.ActionEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventAction, SessionID: e.recorder.SessionID()},
			ActionType: req.Type,
			Outcome:    outcome,
			Duration:   time.Since(start),
			Error:      res.ErrorString(),
		})
	}
	return res
}

func (e *Executor) call(ctx context.Context, req domain.ActionRequest) (err error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %q panicked: %v", req.Type, r)
		}
	}()
	_, err = e.invoker.Invoke(ctx, req.Type, req.Args)
	return err
}

// narrate is best-effort: errors are logged and dropped.
func (e *Executor) narrate(ctx context.Context, msg string) {
	if e.narrator == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("narration panicked", "panic", r)
		}
	}()
	if err := e.narrator.Narrate(ctx, e.recorder.SessionID(), msg); err != nil {
		e.logger.Debug("narration failed", "error", err)
	}
}
