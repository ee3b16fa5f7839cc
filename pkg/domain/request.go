package domain

import "time"

// TransitionRequest describes one relocation: move the subject into the
// context identified by DestinationID, ideally at the anchor named by
// AnchorHint, or at CoordinateHint when no anchor is available.
// A request is immutable once accepted by the coordinator.
type TransitionRequest struct {
	// DestinationID identifies the context to load. May be empty only when
	// a CoordinateHint is supplied (relocation inside the current context).
	DestinationID string `json:"destination_id"`

	// AnchorHint is the name of a reference point inside the destination.
	// Optional; resolution falls through to heuristics when absent.
	AnchorHint string `json:"anchor_hint,omitempty"`

	// CoordinateHint is an explicit destination point. Optional.
	// When set, its vertical component is treated as caller intent: the
	// unmodified point is tried before any automatic grounding.
	CoordinateHint *Vec3 `json:"coordinate_hint,omitempty"`

	// CostHint is opaque to the engine. It is carried through to the
	// completion result so the caller can settle pricing after success;
	// the engine never decides affordability.
	CostHint any `json:"cost_hint,omitempty"`

	RequestedAt time.Time `json:"requested_at"`
}

// Valid reports whether the request names any destination at all.
// An empty id with no coordinate hint is unplaceable and rejected upfront.
func (r TransitionRequest) Valid() bool {
	return r.DestinationID != "" || r.CoordinateHint != nil
}

// TargetStrategy records which resolution rule produced a target point.
type TargetStrategy string

const (
	TargetAnchor         TargetStrategy = "anchor"
	TargetHeuristic      TargetStrategy = "heuristic"
	TargetRootFallback   TargetStrategy = "root-fallback"
	TargetCoordinateHint TargetStrategy = "coordinate-hint"
)

// ResolvedTarget is the destination point chosen inside a loaded context.
type ResolvedTarget struct {
	Point    Vec3           `json:"point"`
	Strategy TargetStrategy `json:"strategy"`

	// AnchorName is the object name the point came from, when any.
	AnchorName string `json:"anchor_name,omitempty"`

	// Confidence is a coarse quality signal (1.0 exact anchor, lower for
	// fallbacks). Diagnostic only; no control flow depends on it.
	Confidence float64 `json:"confidence"`
}
