package engine

import (
	"log/slog"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// GroundingProbe adjusts a raw candidate point so the subject rests on
// valid geometry instead of spawning embedded in it (or floating).
//
// Strategy order: downward ray probe, navigable-surface sample, then the
// overlap resolver's iterative raise. No shared state; safe to reuse across
// transitions.
type GroundingProbe struct {
	world   ports.World
	overlap *OverlapResolver
	tun     Tunables
	logger  *slog.Logger
}

// NewGroundingProbe wires a probe over the given world and overlap
// resolver.
func NewGroundingProbe(world ports.World, overlap *OverlapResolver, tun Tunables, logger *slog.Logger) *GroundingProbe {
	return &GroundingProbe{world: world, overlap: overlap, tun: tun.normalized(), logger: logger}
}

// Ground resolves raw into a placement the executor can apply.
//
// preserveRequested marks the vertical component of raw as caller intent
// (an explicit coordinate hint, e.g. a save-point height): the unmodified
// point is overlap-tested first and kept when clear. Automatic grounding
// only takes over when the requested point is actually blocked.
func (g *GroundingProbe) Ground(raw domain.Vec3, preserveRequested bool) domain.GroundedPlacement {
	if preserveRequested && g.overlap.Clear(raw) {
		return domain.GroundedPlacement{
			Point:    raw,
			Strategy: domain.GroundNone,
			Clear:    true,
		}
	}

	// 1. Downward ray from a little above the candidate. The hit is
	// raised by the clearance margin; too small a margin reproduces the
	// half-embedded spawn defect.
	origin := raw.Raised(g.tun.RayProbeHeight)
	if hit, ok := g.world.RaycastDown(origin, g.tun.RayMaxDistance); ok {
		return g.clearAbove(hit.Raised(g.tun.ClearanceMargin), domain.GroundRay)
	}

	// 2. Nearest navigable-surface sample.
	if sample, ok := g.world.SampleNavSurface(raw, g.tun.NavSampleRadius); ok {
		return g.clearAbove(sample.Raised(g.tun.ClearanceMargin), domain.GroundSurfaceSample)
	}

	// 3. Raise-to-clear from the raw point itself.
	point, raised, clear := g.overlap.RaiseToClear(raw)
	g.logger.Debug("grounding fell through to overlap raise",
		"raw", raw.String(), "point", point.String(), "clear", clear)
	return domain.GroundedPlacement{
		Point:    point,
		Strategy: domain.GroundOverlapRaise,
		Raised:   raised,
		Clear:    clear,
	}
}

// clearAbove runs the candidate from a surface strategy through the raise
// search so a grounded point, re-checked, never reports as overlapping.
func (g *GroundingProbe) clearAbove(candidate domain.Vec3, strategy domain.GroundStrategy) domain.GroundedPlacement {
	point, raised, clear := g.overlap.RaiseToClear(candidate)
	return domain.GroundedPlacement{
		Point:    point,
		Strategy: strategy,
		Raised:   raised,
		Clear:    clear,
	}
}
