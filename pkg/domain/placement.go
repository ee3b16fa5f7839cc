package domain

import "time"

// GroundStrategy records which probe produced the grounded point.
type GroundStrategy string

const (
	// GroundNone means the requested point was already clear and was kept
	// as-is (caller intent preserved, no adjustment).
	GroundNone GroundStrategy = "none"
	// GroundRay means a downward ray hit a walkable surface.
	GroundRay GroundStrategy = "ray"
	// GroundSurfaceSample means the point was snapped to the nearest
	// navigable-surface sample.
	GroundSurfaceSample GroundStrategy = "surface-sample"
	// GroundOverlapRaise means the point was found (or best-effort chosen)
	// by the iterative raise-to-clear search.
	GroundOverlapRaise GroundStrategy = "overlap-raise"
)

// GroundedPlacement is a candidate point adjusted to rest on valid geometry.
type GroundedPlacement struct {
	Point    Vec3           `json:"point"`
	Strategy GroundStrategy `json:"strategy"`

	// Raised is the total vertical lift applied by overlap resolution,
	// zero when the probe point was clear immediately.
	Raised float64 `json:"raised"`

	// Clear reports whether the final point passed the overlap test.
	// False means the search exhausted its budget and the point is a
	// best-effort maximum-raise candidate.
	Clear bool `json:"clear"`
}

// PlacementAttempt is the record of one enforcement cycle inside the
// placement executor. Ephemeral; kept only for the retry decision and for
// diagnostics in the completion result.
type PlacementAttempt struct {
	Number        int     `json:"number"`
	Applied       Vec3    `json:"applied"`
	Settled       Vec3    `json:"settled"`
	DistanceError float64 `json:"distance_error"`
	Succeeded     bool    `json:"succeeded"`

	// Overridden is set when a third party moved the subject away during
	// the post-success monitor window.
	Overridden bool `json:"overridden,omitempty"`
}

// TransitionResult is the single completion record of a pipeline run.
type TransitionResult struct {
	Request TransitionRequest `json:"request"`
	Success bool              `json:"success"`

	// Reason is the human-readable terminal explanation. Mirrors the
	// message sent to the user notifier on failure paths.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`

	Target    *ResolvedTarget    `json:"target,omitempty"`
	Placement *GroundedPlacement `json:"placement,omitempty"`
	Attempts  []PlacementAttempt `json:"attempts,omitempty"`

	// UsedShim is set when the coordinate-only compatibility path decided
	// the outcome instead of the primary executor.
	UsedShim bool `json:"used_shim,omitempty"`

	// FinalPosition is the subject position observed when the completion
	// signal fired.
	FinalPosition Vec3 `json:"final_position"`

	// Variant is the destination variant name recorded by bookkeeping,
	// empty when detection was skipped or found nothing.
	Variant string `json:"variant,omitempty"`

	// CostHint is the request's opaque cost token, echoed back so the
	// caller can settle pricing. Only meaningful on success.
	CostHint any `json:"cost_hint,omitempty"`

	Duration time.Duration `json:"duration"`
}
