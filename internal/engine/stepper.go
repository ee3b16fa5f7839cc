package engine

import (
	"context"
	"time"
)

// RealtimeStepper implements ports.Stepper against the wall clock. Used
// when the engine drives a live host; tests use the simulated stepper from
// the memory adapter instead.
type RealtimeStepper struct {
	TickInterval time.Duration
	StepInterval time.Duration
}

// NewRealtimeStepper returns a stepper with host-typical frame and fixed
// step intervals (60 Hz frames, 50 Hz physics).
func NewRealtimeStepper() *RealtimeStepper {
	return &RealtimeStepper{
		TickInterval: 16 * time.Millisecond,
		StepInterval: 20 * time.Millisecond,
	}
}

func (s *RealtimeStepper) Now() time.Time { return time.Now() }

func (s *RealtimeStepper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *RealtimeStepper) Tick(ctx context.Context) error {
	return s.Sleep(ctx, s.TickInterval)
}

func (s *RealtimeStepper) PhysicsStep(ctx context.Context) error {
	return s.Sleep(ctx, s.StepInterval)
}
