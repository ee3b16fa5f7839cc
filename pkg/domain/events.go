package domain

import (
	"context"
	"time"
)

// Phase names the sequential stages of the transition pipeline.
type Phase string

const (
	PhaseLoad    Phase = "load"
	PhaseResolve Phase = "resolve"
	PhaseGround  Phase = "ground"
	PhasePlace   Phase = "place"
	PhaseShim    Phase = "shim"
)

// PhaseEvent is emitted at the start and end of each pipeline phase.
type PhaseEvent struct {
	Phase       Phase         `json:"phase"`
	Destination string        `json:"destination"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration,omitempty"` // end events only
	Err         error         `json:"-"`
}

// AttemptEvent is emitted after every placement enforcement cycle.
type AttemptEvent struct {
	Destination string           `json:"destination"`
	Attempt     PlacementAttempt `json:"attempt"`
}

// LifecycleHooks defines optional callbacks for engine observability.
// Nil members are skipped. Hooks run synchronously on the pipeline
// goroutine; keep them cheap.
type LifecycleHooks struct {
	OnPhaseStart func(context.Context, *PhaseEvent)
	OnPhaseEnd   func(context.Context, *PhaseEvent)
	OnAttempt    func(context.Context, *AttemptEvent)
	OnFinished   func(context.Context, *TransitionResult)
}
