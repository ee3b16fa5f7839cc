// Package memory provides in-memory implementations of the Waygate ports:
// a simulated physical world (geometry, subject, clock), an asynchronous
// context loader and a visit recorder.
//
// The simulation advances on simulated time only when the pipeline steps
// it, which makes every timeout and monitor window in the engine fully
// deterministic under test. The same adapter backs the CLI demo.
package memory

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// Box is an axis-aligned block of solid geometry. Walkable boxes answer
// downward raycasts with their top face.
type Box struct {
	Name     string      `yaml:"name"`
	Min      domain.Vec3 `yaml:"min"`
	Max      domain.Vec3 `yaml:"max"`
	Walkable bool        `yaml:"walkable"`
}

// NavPatch is a horizontal disc of navigable surface.
type NavPatch struct {
	Center domain.Vec3 `yaml:"center"`
	Radius float64     `yaml:"radius"`
}

// SubjectSpec describes the controllable entity placed in the world.
type SubjectSpec struct {
	Tag           string      `yaml:"tag"`
	Name          string      `yaml:"name"`
	Position      domain.Vec3 `yaml:"position"`
	HasController bool        `yaml:"has_controller"`
}

type subjectState struct {
	SubjectSpec
	kinematic  bool
	controller bool
	missing    bool
}

// World is a minimal simulated host: solid boxes, nav patches, one subject
// and a simulated clock. It implements ports.World and ports.Stepper.
type World struct {
	mu sync.Mutex

	now          time.Time
	tickInterval time.Duration
	stepInterval time.Duration

	boxes   []Box
	nav     []NavPatch
	subject *subjectState

	// Capsule dimensions used by the simulated controller's collision.
	// Keep these in line with the engine's tunables when overriding either.
	capsuleRadius     float64
	capsuleHalfHeight float64

	// physicsHooks run on every physics step, under the world lock. Tests
	// register interference here to exercise the monitor/retry path.
	physicsHooks []func(*World)
}

// WorldOption configures a World.
type WorldOption func(*World)

// WithIntervals overrides the simulated frame and physics step lengths.
func WithIntervals(tick, step time.Duration) WorldOption {
	return func(w *World) {
		w.tickInterval = tick
		w.stepInterval = step
	}
}

// WithStart sets the simulated epoch.
func WithStart(t time.Time) WorldOption {
	return func(w *World) { w.now = t }
}

// WithCapsule overrides the controller capsule used for move collision.
func WithCapsule(radius, halfHeight float64) WorldOption {
	return func(w *World) {
		w.capsuleRadius = radius
		w.capsuleHalfHeight = halfHeight
	}
}

// NewWorld creates an empty world with 16ms frames and 20ms physics steps.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		now:               time.Unix(1_700_000_000, 0),
		tickInterval:      16 * time.Millisecond,
		stepInterval:      20 * time.Millisecond,
		capsuleRadius:     0.35,
		capsuleHalfHeight: 0.9,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AddBox adds solid geometry.
func (w *World) AddBox(b Box) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.boxes = append(w.boxes, b)
}

// AddNavPatch adds a navigable-surface disc.
func (w *World) AddNavPatch(p NavPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nav = append(w.nav, p)
}

// PlaceSubject creates (or replaces) the subject entity.
func (w *World) PlaceSubject(spec SubjectSpec) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subject = &subjectState{SubjectSpec: spec, controller: spec.HasController}
}

// RemoveSubject simulates the entity disappearing from the host.
func (w *World) RemoveSubject() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subject != nil {
		w.subject.missing = true
	}
}

// OnPhysicsStep registers a hook that runs on every physics step. The hook
// executes under the world lock and must use the raw mutators below.
func (w *World) OnPhysicsStep(fn func(*World)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.physicsHooks = append(w.physicsHooks, fn)
}

// MoveSubjectRaw repositions the subject from inside a physics hook,
// bypassing the handle API. Callers outside hooks should use the Subject
// handle instead.
func (w *World) MoveSubjectRaw(p domain.Vec3) {
	if w.subject != nil && !w.subject.missing {
		w.subject.Position = p
	}
}

// RemoveSubjectRaw marks the subject missing from inside a physics hook.
func (w *World) RemoveSubjectRaw() {
	if w.subject != nil {
		w.subject.missing = true
	}
}

// SubjectStateRaw exposes the subject's position and movement-component
// state to physics hooks, which already hold the world lock.
func (w *World) SubjectStateRaw() (pos domain.Vec3, kinematic, controller bool) {
	if w.subject == nil || w.subject.missing {
		return domain.Vec3{}, false, false
	}
	return w.subject.Position, w.subject.kinematic, w.subject.controller
}

// SubjectPosition returns the subject's current position (zero when
// missing). Test helper.
func (w *World) SubjectPosition() domain.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subject == nil || w.subject.missing {
		return domain.Vec3{}
	}
	return w.subject.Position
}

// --- ports.World ---

// RaycastDown returns the highest walkable top face under origin.
func (w *World) RaycastDown(origin domain.Vec3, maxDist float64) (domain.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	bestY := origin.Y - maxDist - 1
	found := false
	for _, b := range w.boxes {
		if !b.Walkable {
			continue
		}
		if origin.X < b.Min.X || origin.X > b.Max.X || origin.Z < b.Min.Z || origin.Z > b.Max.Z {
			continue
		}
		top := b.Max.Y
		if top > origin.Y || origin.Y-top > maxDist {
			continue
		}
		if top > bestY {
			bestY = top
			found = true
		}
	}
	if !found {
		return domain.Vec3{}, false
	}
	return domain.Vec3{X: origin.X, Y: bestY, Z: origin.Z}, true
}

// SampleNavSurface returns the nearest point on a nav patch within radius.
func (w *World) SampleNavSurface(near domain.Vec3, radius float64) (domain.Vec3, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var best domain.Vec3
	bestDist := radius + 1
	for _, p := range w.nav {
		candidate := closestOnPatch(p, near)
		d := candidate.Dist(near)
		if d <= radius && d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best, bestDist <= radius
}

func closestOnPatch(p NavPatch, near domain.Vec3) domain.Vec3 {
	dx := near.X - p.Center.X
	dz := near.Z - p.Center.Z
	horiz := dx*dx + dz*dz
	if horiz <= p.Radius*p.Radius {
		return domain.Vec3{X: near.X, Y: p.Center.Y, Z: near.Z}
	}
	scale := p.Radius / math.Sqrt(horiz)
	return domain.Vec3{X: p.Center.X + dx*scale, Y: p.Center.Y, Z: p.Center.Z + dz*scale}
}

// Overlaps tests the subject capsule (as an AABB envelope) against every
// solid box.
func (w *World) Overlaps(p domain.Vec3, radius, halfHeight float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overlapsLocked(p, radius, halfHeight)
}

// ResolveSubject finds the subject by tag.
func (w *World) ResolveSubject(ctx context.Context) (ports.Subject, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.subject == nil || w.subject.missing {
		return nil, domain.ErrSubjectNotFound
	}
	if w.subject.Tag == "" {
		return nil, fmt.Errorf("%w: subject has no tag", domain.ErrSubjectNotFound)
	}
	return &subjectHandle{world: w}, nil
}

// ResolveSubjectLoose falls back from tag to name pattern to "has a
// movement controller".
func (w *World) ResolveSubjectLoose(ctx context.Context) (ports.Subject, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.subject
	if s == nil || s.missing {
		return nil, domain.ErrSubjectNotFound
	}
	if s.Tag != "" || strings.Contains(strings.ToLower(s.Name), "player") || s.HasController {
		return &subjectHandle{world: w}, nil
	}
	return nil, domain.ErrSubjectNotFound
}

// --- ports.Stepper ---

func (w *World) Now() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.now
}

// Tick advances one simulated frame.
func (w *World) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.now = w.now.Add(w.tickInterval)
	w.mu.Unlock()
	return nil
}

// PhysicsStep advances one simulated fixed step and runs interference
// hooks.
func (w *World) PhysicsStep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.now = w.now.Add(w.stepInterval)
	hooks := w.physicsHooks
	for _, fn := range hooks {
		fn(w)
	}
	w.mu.Unlock()
	return nil
}

// Sleep advances simulated time in physics-step chunks so scheduled
// interference still fires during long waits.
func (w *World) Sleep(ctx context.Context, d time.Duration) error {
	remaining := d
	for remaining > 0 {
		if err := w.PhysicsStep(ctx); err != nil {
			return err
		}
		remaining -= w.stepInterval
	}
	return nil
}

// subjectHandle is a live view into the world's subject. Every method
// re-checks existence: the entity can vanish between the resolve and the
// call.
type subjectHandle struct {
	world *World
}

func (h *subjectHandle) Position() domain.Vec3 {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.world.subject == nil {
		return domain.Vec3{}
	}
	return h.world.subject.Position
}

func (h *subjectHandle) SetPosition(p domain.Vec3) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.world.subject != nil && !h.world.subject.missing {
		h.world.subject.Position = p
	}
}

func (h *subjectHandle) Kinematic() bool {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	return h.world.subject != nil && h.world.subject.kinematic
}

func (h *subjectHandle) SetKinematic(on bool) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.world.subject != nil {
		h.world.subject.kinematic = on
	}
}

func (h *subjectHandle) ControllerEnabled() bool {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	return h.world.subject != nil && h.world.subject.controller
}

func (h *subjectHandle) SetControllerEnabled(on bool) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	if h.world.subject != nil {
		h.world.subject.controller = on
	}
}

// Move displaces through the controller: ignored while the controller is
// disabled, clamped against solid geometry the way a capsule controller
// would stop at a floor.
func (h *subjectHandle) Move(delta domain.Vec3) {
	h.world.mu.Lock()
	defer h.world.mu.Unlock()
	s := h.world.subject
	if s == nil || s.missing || !s.controller {
		return
	}
	next := s.Position.Add(delta)
	// Controller collision: refuse a move that ends inside geometry.
	if h.world.overlapsLocked(next, h.world.capsuleRadius, h.world.capsuleHalfHeight) {
		return
	}
	s.Position = next
}

func (w *World) overlapsLocked(p domain.Vec3, radius, halfHeight float64) bool {
	minX, maxX := p.X-radius, p.X+radius
	minY, maxY := p.Y-halfHeight, p.Y+halfHeight
	minZ, maxZ := p.Z-radius, p.Z+radius
	for _, b := range w.boxes {
		if maxX > b.Min.X && minX < b.Max.X &&
			maxY > b.Min.Y && minY < b.Max.Y &&
			maxZ > b.Min.Z && minZ < b.Max.Z {
			return true
		}
	}
	return false
}
