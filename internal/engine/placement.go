package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// placementExecutor applies a grounded point to the subject with
// enforcement-and-monitor semantics.
//
// Each attempt: resolve the subject fresh, silence its movement components,
// write the position, let the simulation settle, re-enable movement, verify
// arrival, then watch for a third party silently moving the subject away.
// An override during the monitor window restarts the whole cycle. True
// mutual exclusion with the host's other systems is not achievable, so this
// detect-and-absorb loop is the only defense.
type placementExecutor struct {
	world   ports.World
	stepper ports.Stepper
	tun     Tunables
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

func newPlacementExecutor(world ports.World, stepper ports.Stepper, tun Tunables, hooks domain.LifecycleHooks, logger *slog.Logger) *placementExecutor {
	return &placementExecutor{world: world, stepper: stepper, tun: tun.normalized(), hooks: hooks, logger: logger}
}

// place runs up to MaxAttempts enforcement cycles toward target.
//
// Returns the attempt records alongside the outcome. A missing subject is
// terminal for the executor (wraps domain.ErrSubjectNotFound); exhausted
// retries wrap domain.ErrAttemptsExhausted so the coordinator can decide on
// the shim.
func (e *placementExecutor) place(ctx context.Context, destination string, target domain.Vec3) ([]domain.PlacementAttempt, error) {
	attempts := make([]domain.PlacementAttempt, 0, e.tun.MaxAttempts)

	for n := 1; n <= e.tun.MaxAttempts; n++ {
		attempt, err := e.attempt(ctx, n, target)
		if attempt != nil {
			attempts = append(attempts, *attempt)
			if e.hooks.OnAttempt != nil {
				e.hooks.OnAttempt(ctx, &domain.AttemptEvent{Destination: destination, Attempt: *attempt})
			}
		}
		if err != nil {
			return attempts, err
		}
		if attempt.Succeeded && !attempt.Overridden {
			return attempts, nil
		}
		e.logger.Info("placement attempt failed, retrying",
			"attempt", n,
			"distance_error", attempt.DistanceError,
			"overridden", attempt.Overridden)
	}

	return attempts, fmt.Errorf("%w after %d attempts", domain.ErrAttemptsExhausted, e.tun.MaxAttempts)
}

// attempt runs one full enforce-settle-verify-monitor cycle.
func (e *placementExecutor) attempt(ctx context.Context, n int, target domain.Vec3) (*domain.PlacementAttempt, error) {
	// Resolve fresh. Component references from a previous attempt may be
	// stale: the host can reparent or recreate the entity between ticks.
	subj, err := e.world.ResolveSubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubjectNotFound, err)
	}

	// Silence movement so the position write is not immediately contested.
	subj.SetKinematic(true)
	subj.SetControllerEnabled(false)

	subj.SetPosition(target)

	// Let the simulation recognize the new transform.
	for i := 0; i < e.tun.SettleSteps; i++ {
		if err := e.stepper.PhysicsStep(ctx); err != nil {
			e.restore(ctx)
			return nil, err
		}
	}

	// Hand control back, then nudge downward through the controller (not
	// a raw write) so the capsule catches the surface.
	subj.SetControllerEnabled(true)
	subj.SetKinematic(false)
	subj.Move(domain.Vec3{Y: -e.tun.ControllerNudge})
	if err := e.stepper.PhysicsStep(ctx); err != nil {
		return nil, err
	}

	// Verify arrival.
	subj, err = e.world.ResolveSubject(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSubjectNotFound, err)
	}
	settled := subj.Position()
	attempt := &domain.PlacementAttempt{
		Number:        n,
		Applied:       target,
		Settled:       settled,
		DistanceError: settled.Dist(target),
	}
	if attempt.DistanceError > e.tun.PlacementTolerance {
		return attempt, nil
	}
	attempt.Succeeded = true

	// Monitor: an external system may still yank the subject away right
	// after an apparently clean write.
	overridden, err := e.monitor(ctx, target)
	if err != nil {
		return attempt, err
	}
	attempt.Overridden = overridden
	return attempt, nil
}

// monitor watches the subject for MonitorWindow and reports whether
// something moved it beyond tolerance. The handle is re-resolved on every
// check; the monitored entity is exactly as volatile as the placed one.
func (e *placementExecutor) monitor(ctx context.Context, target domain.Vec3) (bool, error) {
	deadline := e.stepper.Now().Add(e.tun.MonitorWindow)
	for e.stepper.Now().Before(deadline) {
		if err := e.stepper.PhysicsStep(ctx); err != nil {
			return false, err
		}
		subj, err := e.world.ResolveSubject(ctx)
		if err != nil {
			return false, fmt.Errorf("%w: during monitor: %v", domain.ErrSubjectNotFound, err)
		}
		if subj.Position().Dist(target) > e.tun.PlacementTolerance {
			e.logger.Warn("subject moved during monitor window",
				"target", target.String(),
				"observed", subj.Position().String())
			return true, nil
		}
	}
	return false, nil
}

// restore is a best-effort cleanup after a mid-attempt abort: never leave
// the subject permanently frozen.
func (e *placementExecutor) restore(ctx context.Context) {
	subj, err := e.world.ResolveSubject(ctx)
	if err != nil {
		return
	}
	subj.SetControllerEnabled(true)
	subj.SetKinematic(false)
}
