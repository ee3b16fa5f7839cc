package ports

import (
	"context"
	"errors"
	"time"
)

// ErrVisitNotFound is returned when a context has no visit record.
var ErrVisitNotFound = errors.New("visit record not found")

// Visit is the bookkeeping record of a successfully entered context.
type Visit struct {
	ContextID string    `json:"context_id"`
	Variant   string    `json:"variant,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
	Count     int       `json:"count"`
}

// VisitRecorder persists which contexts were visited and which named
// variant of the destination was actually present.
//
// The coordinator calls MarkVisited fire-and-forget after a successful
// transition; a slow or failing recorder must never block or fail the
// transition itself.
type VisitRecorder interface {
	// MarkVisited records (or increments) a visit. variant may be empty.
	MarkVisited(ctx context.Context, contextID, variant string) error

	// Visit returns the record for a context, or ErrVisitNotFound.
	Visit(ctx context.Context, contextID string) (*Visit, error)

	// List returns all visit records.
	List(ctx context.Context) ([]Visit, error)
}
