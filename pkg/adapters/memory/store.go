package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/averycross/waygate/pkg/ports"
)

// Recorder implements ports.VisitRecorder in memory.
// Safe for concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	visits map[string]*ports.Visit
	clock  ports.Clock
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock injects a clock (defaults to wall time).
func WithClock(c ports.Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// NewRecorder creates an empty in-memory recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{visits: make(map[string]*ports.Visit)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) now() time.Time {
	if r.clock != nil {
		return r.clock.Now()
	}
	return time.Now()
}

// MarkVisited records or increments a visit.
func (r *Recorder) MarkVisited(ctx context.Context, contextID, variant string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visits[contextID]
	if !ok {
		v = &ports.Visit{ContextID: contextID}
		r.visits[contextID] = v
	}
	v.Count++
	v.VisitedAt = r.now()
	if variant != "" {
		v.Variant = variant
	}
	return nil
}

// Visit returns the record for a context.
func (r *Recorder) Visit(ctx context.Context, contextID string) (*ports.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.visits[contextID]
	if !ok {
		return nil, ports.ErrVisitNotFound
	}
	// Copy on read; callers must not mutate store state by pointer.
	ret := *v
	return &ret, nil
}

// List returns all visit records, ordered by context id.
func (r *Recorder) List(ctx context.Context) ([]ports.Visit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	visits := make([]ports.Visit, 0, len(r.visits))
	for _, v := range r.visits {
		visits = append(visits, *v)
	}
	sort.Slice(visits, func(i, j int) bool { return visits[i].ContextID < visits[j].ContextID })
	return visits, nil
}

// PriceList is a static ports.PricingProvider backed by a map.
type PriceList map[string]float64

// Price returns the configured price, defaulting to 0 for unknown
// destinations (free travel rather than blocked travel).
func (p PriceList) Price(ctx context.Context, destinationID string) (float64, error) {
	return p[destinationID], nil
}
