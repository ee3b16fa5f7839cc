package ports

import (
	"context"

	"github.com/averycross/waygate/pkg/domain"
)

// Subject is a live handle to the controllable entity and its
// movement-affecting components.
//
// Handles are cheap and MUST be re-resolved at the start of every placement
// attempt (and across any suspension point): the host may reparent or
// recreate the entity between ticks, leaving old handles stale.
type Subject interface {
	Position() domain.Vec3

	// SetPosition writes the transform directly, bypassing the movement
	// controller. Only meaningful while the subject is kinematic.
	SetPosition(p domain.Vec3)

	// Kinematic / SetKinematic control the physical proxy's simulation
	// mode. Kinematic means the simulation will not contest a position
	// write on the next step.
	Kinematic() bool
	SetKinematic(on bool)

	// ControllerEnabled / SetControllerEnabled toggle the capsule movement
	// controller component.
	ControllerEnabled() bool
	SetControllerEnabled(on bool)

	// Move displaces the subject through the controller API rather than a
	// raw transform write, letting it "catch" nearby surfaces.
	Move(delta domain.Vec3)
}

// World exposes the physical queries the grounding and placement logic
// needs. Implementations answer against the world state at call time; the
// engine never assumes two calls observe the same state.
type World interface {
	// RaycastDown casts straight down from origin and returns the first
	// walkable hit within maxDist.
	RaycastDown(origin domain.Vec3, maxDist float64) (domain.Vec3, bool)

	// SampleNavSurface returns the nearest point on a navigable surface
	// within radius of near.
	SampleNavSurface(near domain.Vec3, radius float64) (domain.Vec3, bool)

	// Overlaps reports whether a capsule volume centered at p intersects
	// any non-subject geometry.
	Overlaps(p domain.Vec3, radius, halfHeight float64) bool

	// ResolveSubject finds the subject by its primary identity (tag).
	// Returns domain.ErrSubjectNotFound when the entity is absent.
	ResolveSubject(ctx context.Context) (Subject, error)

	// ResolveSubjectLoose finds the subject by best-effort heuristics:
	// tag, then name pattern, then "has a movement controller". Used by
	// the compatibility shim, which must work when the primary identity
	// is missing.
	ResolveSubjectLoose(ctx context.Context) (Subject, error)
}
