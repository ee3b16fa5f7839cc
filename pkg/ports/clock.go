package ports

import (
	"context"
	"time"
)

// Clock abstracts time so tests can drive the pipeline deterministically.
type Clock interface {
	Now() time.Time

	// Sleep waits for d, honoring context cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// Stepper is the engine's only suspension primitive. The whole pipeline
// runs on one logical thread of control; every wait goes through here, so
// an implementation backed by simulated time makes the entire state machine
// testable without real sleeps.
type Stepper interface {
	Clock

	// Tick suspends until the next frame boundary.
	Tick(ctx context.Context) error

	// PhysicsStep suspends until the next fixed simulation step, giving
	// the physics layer a chance to observe transform writes.
	PhysicsStep(ctx context.Context) error
}
