package engine

import (
	"log/slog"
	"math"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// OverlapResolver decides whether a candidate point collides with
// non-subject geometry and searches for a nearby clear spot when it does.
// Stateless: every answer is a pure function of the world at call time.
type OverlapResolver struct {
	world  ports.World
	tun    Tunables
	logger *slog.Logger
}

// NewOverlapResolver creates a resolver with the given capsule/search
// budgets.
func NewOverlapResolver(world ports.World, tun Tunables, logger *slog.Logger) *OverlapResolver {
	return &OverlapResolver{world: world, tun: tun.normalized(), logger: logger}
}

// Clear reports whether the subject's capsule volume at p is free of
// non-subject geometry.
func (o *OverlapResolver) Clear(p domain.Vec3) bool {
	return !o.world.Overlaps(p, o.tun.CapsuleRadius, o.tun.CapsuleHalfHeight)
}

// RaiseToClear searches straight up from p in RaiseStep increments for a
// clear spot, capped at MaxRaise total lift.
//
// When the cap is reached without success it returns the maximum-raise
// point with clear=false: a best-effort answer, not a hard failure. The
// caller degrades rather than aborts (taxonomy: PlacementOverlapUnresolved).
func (o *OverlapResolver) RaiseToClear(p domain.Vec3) (point domain.Vec3, raised float64, clear bool) {
	candidate := p
	for raised = 0; raised <= o.tun.MaxRaise+1e-9; raised += o.tun.RaiseStep {
		candidate = p.Raised(raised)
		if o.Clear(candidate) {
			return candidate, raised, true
		}
	}
	raised = o.tun.MaxRaise
	candidate = p.Raised(raised)
	o.logger.Warn("overlap search exhausted, returning best-effort point",
		"origin", p.String(), "raised", raised)
	return candidate, raised, false
}

// SearchShallow is the compatibility shim's cheaper variant: a short
// vertical climb plus a small radial sweep around each height. Budgets are
// deliberately tighter than RaiseToClear; this path is a last resort and
// must stay cheap.
func (o *OverlapResolver) SearchShallow(p domain.Vec3) (domain.Vec3, bool) {
	for step := 0; step <= o.tun.ShimMaxSteps; step++ {
		base := p.Raised(float64(step) * o.tun.ShimRaiseStep)
		if o.Clear(base) {
			return base, true
		}
		for ring := 1; ring <= o.tun.ShimRadialRings; ring++ {
			r := float64(ring) * o.tun.ShimRadialStep
			// Eight compass offsets per ring is enough resolution for a
			// capsule-sized probe.
			for i := 0; i < 8; i++ {
				angle := float64(i) * math.Pi / 4
				c := base.Add(domain.Vec3{X: r * math.Cos(angle), Z: r * math.Sin(angle)})
				if o.Clear(c) {
					return c, true
				}
			}
		}
	}
	return p, false
}
