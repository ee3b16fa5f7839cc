package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// compatibilityShim is the minimal coordinate-only placement path, used
// when the primary executor is unavailable or has exhausted its attempts.
//
// It locates the subject by loose heuristics, freezes its movement
// components, writes the position, runs one shallow clear-spot search,
// waits a couple of steps and restores the captured component state.
// Success is judged by the caller from the position delta, not reported
// here.
type compatibilityShim struct {
	world   ports.World
	stepper ports.Stepper
	overlap *OverlapResolver
	tun     Tunables
	logger  *slog.Logger
}

func newCompatibilityShim(world ports.World, stepper ports.Stepper, overlap *OverlapResolver, tun Tunables, logger *slog.Logger) *compatibilityShim {
	return &compatibilityShim{world: world, stepper: stepper, overlap: overlap, tun: tun.normalized(), logger: logger}
}

// placeByCoordinates best-effort moves the subject to p. The only error is
// a subject that cannot be located at all.
func (s *compatibilityShim) placeByCoordinates(ctx context.Context, p domain.Vec3) error {
	subj, err := s.world.ResolveSubjectLoose(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSubjectNotFound, err)
	}

	// Capture prior state up front. Whatever happens below, this is what
	// gets restored — leaving the subject permanently non-simulated would
	// be worse than a failed relocation.
	prevKinematic := subj.Kinematic()
	prevController := subj.ControllerEnabled()

	subj.SetKinematic(true)
	subj.SetControllerEnabled(false)

	subj.SetPosition(p)

	if !s.overlap.Clear(p) {
		if clearPoint, ok := s.overlap.SearchShallow(p); ok {
			subj.SetPosition(clearPoint)
		} else {
			s.logger.Warn("shallow overlap search found nothing clear", "point", p.String())
		}
	}

	// A couple of steps so the simulation sees the write. Restore happens
	// as an explicit post-step on every path, including step errors.
	var stepErr error
	for i := 0; i < s.tun.ShimSettleSteps; i++ {
		if stepErr = s.stepper.PhysicsStep(ctx); stepErr != nil {
			break
		}
	}

	subj.SetKinematic(prevKinematic)
	subj.SetControllerEnabled(prevController)

	return stepErr
}
