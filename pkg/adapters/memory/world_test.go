package memory

import (
	"context"
	"testing"
	"time"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorld() *World {
	w := NewWorld()
	w.AddBox(Box{
		Name:     "floor",
		Min:      domain.Vec3{X: -10, Y: -1, Z: -10},
		Max:      domain.Vec3{X: 10, Y: 0, Z: 10},
		Walkable: true,
	})
	w.PlaceSubject(SubjectSpec{
		Tag:           "Player",
		Name:          "Traveler",
		Position:      domain.Vec3{X: 0, Y: 1, Z: 0},
		HasController: true,
	})
	return w
}

func TestWorld_RaycastDown(t *testing.T) {
	w := testWorld()
	// A non-walkable obstacle above the floor must not answer rays.
	w.AddBox(Box{Name: "crate", Min: domain.Vec3{X: -1, Y: 0, Z: -1}, Max: domain.Vec3{X: 1, Y: 1, Z: 1}})

	hit, ok := w.RaycastDown(domain.Vec3{X: 0, Y: 5, Z: 0}, 50)
	require.True(t, ok)
	assert.Equal(t, domain.Vec3{X: 0, Y: 0, Z: 0}, hit)

	// Outside the slab footprint.
	_, ok = w.RaycastDown(domain.Vec3{X: 50, Y: 5, Z: 0}, 50)
	assert.False(t, ok)

	// Surface below the ray budget.
	_, ok = w.RaycastDown(domain.Vec3{X: 0, Y: 100, Z: 0}, 10)
	assert.False(t, ok)
}

func TestWorld_RaycastDownPicksHighestSurface(t *testing.T) {
	w := testWorld()
	w.AddBox(Box{
		Name:     "platform",
		Min:      domain.Vec3{X: -2, Y: 2, Z: -2},
		Max:      domain.Vec3{X: 2, Y: 3, Z: 2},
		Walkable: true,
	})

	hit, ok := w.RaycastDown(domain.Vec3{X: 0, Y: 10, Z: 0}, 50)
	require.True(t, ok)
	assert.InDelta(t, 3.0, hit.Y, 1e-9)
}

func TestWorld_SampleNavSurface(t *testing.T) {
	w := NewWorld()
	w.AddNavPatch(NavPatch{Center: domain.Vec3{X: 0, Y: 0, Z: 0}, Radius: 2})

	// Inside the patch: projected straight down.
	p, ok := w.SampleNavSurface(domain.Vec3{X: 1, Y: 3, Z: 0}, 5)
	require.True(t, ok)
	assert.Equal(t, domain.Vec3{X: 1, Y: 0, Z: 0}, p)

	// Outside the patch: clamped to the rim.
	p, ok = w.SampleNavSurface(domain.Vec3{X: 6, Y: 0, Z: 0}, 5)
	require.True(t, ok)
	assert.InDelta(t, 2.0, p.X, 1e-9)

	// Beyond the search radius.
	_, ok = w.SampleNavSurface(domain.Vec3{X: 50, Y: 0, Z: 0}, 5)
	assert.False(t, ok)
}

func TestWorld_Overlaps(t *testing.T) {
	w := testWorld()

	assert.True(t, w.Overlaps(domain.Vec3{X: 0, Y: 0, Z: 0}, 0.35, 0.9), "capsule straddling the floor")
	assert.False(t, w.Overlaps(domain.Vec3{X: 0, Y: 1, Z: 0}, 0.35, 0.9), "capsule resting above the floor")
}

func TestWorld_ResolveSubject(t *testing.T) {
	w := testWorld()
	ctx := context.Background()

	subj, err := w.ResolveSubject(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Vec3{X: 0, Y: 1, Z: 0}, subj.Position())

	w.RemoveSubject()
	_, err = w.ResolveSubject(ctx)
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestWorld_ResolveSubjectLoose(t *testing.T) {
	ctx := context.Background()

	w := NewWorld()
	w.PlaceSubject(SubjectSpec{Name: "LocalPlayer", Position: domain.Vec3{Y: 1}})
	_, err := w.ResolveSubjectLoose(ctx)
	assert.NoError(t, err, "name containing 'player' should resolve")

	w = NewWorld()
	w.PlaceSubject(SubjectSpec{Name: "Pawn", HasController: true})
	_, err = w.ResolveSubjectLoose(ctx)
	assert.NoError(t, err, "controller presence should resolve")

	w = NewWorld()
	w.PlaceSubject(SubjectSpec{Name: "Crate"})
	_, err = w.ResolveSubjectLoose(ctx)
	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}

func TestWorld_ControllerMoveRespectsGeometry(t *testing.T) {
	w := testWorld()
	subj, err := w.ResolveSubject(context.Background())
	require.NoError(t, err)

	// A move that would embed the capsule in the floor is refused.
	subj.Move(domain.Vec3{Y: -1})
	assert.Equal(t, domain.Vec3{X: 0, Y: 1, Z: 0}, subj.Position())

	// A lateral move over open floor goes through.
	subj.Move(domain.Vec3{X: 2})
	assert.Equal(t, domain.Vec3{X: 2, Y: 1, Z: 0}, subj.Position())

	// A disabled controller ignores moves entirely.
	subj.SetControllerEnabled(false)
	subj.Move(domain.Vec3{X: 2})
	assert.Equal(t, domain.Vec3{X: 2, Y: 1, Z: 0}, subj.Position())
}

func TestWorld_ControllerCapsuleIsConfigurable(t *testing.T) {
	w := NewWorld(WithCapsule(1.0, 2.0))
	w.AddBox(Box{
		Name:     "floor",
		Min:      domain.Vec3{X: -10, Y: -1, Z: -10},
		Max:      domain.Vec3{X: 10, Y: 0, Z: 10},
		Walkable: true,
	})
	w.PlaceSubject(SubjectSpec{
		Tag:           "Player",
		Position:      domain.Vec3{X: 0, Y: 1, Z: 0},
		HasController: true,
	})
	subj, err := w.ResolveSubject(context.Background())
	require.NoError(t, err)

	// At half-height 2.0 the capsule already reaches into the floor, so a
	// lateral move the default capsule would allow is refused.
	subj.Move(domain.Vec3{X: 2})
	assert.Equal(t, domain.Vec3{X: 0, Y: 1, Z: 0}, subj.Position())

	// Rising clears the floor and the move goes through.
	subj.Move(domain.Vec3{Y: 2})
	assert.Equal(t, domain.Vec3{X: 0, Y: 3, Z: 0}, subj.Position())
}

func TestWorld_SimulatedClock(t *testing.T) {
	epoch := time.Unix(1_700_000_000, 0)
	w := NewWorld(WithStart(epoch), WithIntervals(10*time.Millisecond, 25*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, w.Tick(ctx))
	assert.Equal(t, epoch.Add(10*time.Millisecond), w.Now())

	require.NoError(t, w.PhysicsStep(ctx))
	assert.Equal(t, epoch.Add(35*time.Millisecond), w.Now())

	// Sleep advances in step-sized chunks, never less than requested.
	require.NoError(t, w.Sleep(ctx, 60*time.Millisecond))
	assert.False(t, w.Now().Before(epoch.Add(95*time.Millisecond)))
}

func TestWorld_PhysicsHooksFireOnStep(t *testing.T) {
	w := testWorld()
	steps := 0
	w.OnPhysicsStep(func(mw *World) {
		steps++
		mw.MoveSubjectRaw(domain.Vec3{X: float64(steps), Y: 1, Z: 0})
	})

	require.NoError(t, w.PhysicsStep(context.Background()))
	require.NoError(t, w.Tick(context.Background())) // frames do not run hooks
	require.NoError(t, w.PhysicsStep(context.Background()))

	assert.Equal(t, 2, steps)
	assert.Equal(t, domain.Vec3{X: 2, Y: 1, Z: 0}, w.SubjectPosition())
}

func TestWorld_CancelledContextStopsStepping(t *testing.T) {
	w := testWorld()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, w.Tick(ctx))
	assert.Error(t, w.PhysicsStep(ctx))
	assert.Error(t, w.Sleep(ctx, time.Second))
}
