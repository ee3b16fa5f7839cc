package engine

import (
	"context"
	"testing"

	"github.com/averycross/waygate/internal/logging"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(w *memory.World, tun Tunables, hooks domain.LifecycleHooks) *placementExecutor {
	return newPlacementExecutor(w, w, tun, hooks, logging.NewNop())
}

func TestPlacementExecutor_FirstAttemptSucceeds(t *testing.T) {
	w := plazaWorld()
	exec := newExecutor(w, DefaultTunables(), domain.LifecycleHooks{})
	target := domain.Vec3{X: 8, Y: 1, Z: -4}

	attempts, err := exec.place(context.Background(), "harbor", target)

	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.True(t, attempts[0].Succeeded)
	assert.False(t, attempts[0].Overridden)
	assert.LessOrEqual(t, attempts[0].DistanceError, DefaultTunables().PlacementTolerance)
	// The controller nudge must not end up ignored or doubled: the subject
	// rests at the target, not embedded below it.
	assert.InDelta(t, target.Y, w.SubjectPosition().Y, DefaultTunables().PlacementTolerance)
}

func TestPlacementExecutor_RestoresMovementComponents(t *testing.T) {
	w := plazaWorld()
	exec := newExecutor(w, DefaultTunables(), domain.LifecycleHooks{})

	_, err := exec.place(context.Background(), "harbor", domain.Vec3{X: 2, Y: 1, Z: 2})
	require.NoError(t, err)

	subj, err := w.ResolveSubject(context.Background())
	require.NoError(t, err)
	assert.False(t, subj.Kinematic())
	assert.True(t, subj.ControllerEnabled())
}

func TestPlacementExecutor_OverrideTriggersRetry(t *testing.T) {
	w := plazaWorld()
	target := domain.Vec3{X: 8, Y: 1, Z: -4}

	// An external system yanks the subject away once, during the first
	// monitor window, then leaves it alone. The first simulated step near
	// the target is the post-nudge step of the attempt itself; the second
	// is already inside the monitor window.
	fired := false
	seen := 0
	w.OnPhysicsStep(func(mw *memory.World) {
		pos, kinematic, _ := mw.SubjectStateRaw()
		if fired || kinematic || pos.Dist(target) > 0.6 {
			return
		}
		seen++
		if seen == 2 {
			mw.MoveSubjectRaw(domain.Vec3{X: -15, Y: 1, Z: 15})
			fired = true
		}
	})

	exec := newExecutor(w, DefaultTunables(), domain.LifecycleHooks{})
	attempts, err := exec.place(context.Background(), "harbor", target)

	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.True(t, attempts[0].Succeeded)
	assert.True(t, attempts[0].Overridden)
	assert.True(t, attempts[1].Succeeded)
	assert.False(t, attempts[1].Overridden)
}

func TestPlacementExecutor_ExhaustsAttempts(t *testing.T) {
	w := plazaWorld()
	target := domain.Vec3{X: 8, Y: 1, Z: -4}

	// Persistent interference: every time the subject is simulated near
	// the target, something moves it away.
	w.OnPhysicsStep(func(mw *memory.World) {
		pos, kinematic, _ := mw.SubjectStateRaw()
		if kinematic {
			return
		}
		if pos.Dist(target) <= 0.6 {
			mw.MoveSubjectRaw(domain.Vec3{X: -15, Y: 1, Z: 15})
		}
	})

	tun := DefaultTunables()
	exec := newExecutor(w, tun, domain.LifecycleHooks{})
	attempts, err := exec.place(context.Background(), "harbor", target)

	assert.ErrorIs(t, err, domain.ErrAttemptsExhausted)
	assert.Len(t, attempts, tun.MaxAttempts)
	for _, a := range attempts {
		assert.True(t, a.Overridden || !a.Succeeded)
	}
}

func TestPlacementExecutor_AttemptHookFiresPerAttempt(t *testing.T) {
	w := plazaWorld()
	var events []domain.AttemptEvent
	hooks := domain.LifecycleHooks{
		OnAttempt: func(ctx context.Context, ev *domain.AttemptEvent) {
			events = append(events, *ev)
		},
	}
	exec := newExecutor(w, DefaultTunables(), hooks)

	_, err := exec.place(context.Background(), "harbor", domain.Vec3{X: 1, Y: 1, Z: 1})

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "harbor", events[0].Destination)
	assert.Equal(t, 1, events[0].Attempt.Number)
}

func TestPlacementExecutor_MissingSubject(t *testing.T) {
	w := plazaWorld()
	w.RemoveSubject()
	exec := newExecutor(w, DefaultTunables(), domain.LifecycleHooks{})

	attempts, err := exec.place(context.Background(), "harbor", domain.Vec3{X: 1, Y: 1, Z: 1})

	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
	assert.Empty(t, attempts)
}

func TestPlacementExecutor_SubjectVanishesMidAttempt(t *testing.T) {
	w := plazaWorld()
	removed := false
	w.OnPhysicsStep(func(mw *memory.World) {
		pos, kinematic, _ := mw.SubjectStateRaw()
		if removed || kinematic {
			return
		}
		if pos.Dist(domain.Vec3{X: 8, Y: 1, Z: -4}) <= 0.6 {
			mw.RemoveSubjectRaw()
			removed = true
		}
	})
	exec := newExecutor(w, DefaultTunables(), domain.LifecycleHooks{})

	_, err := exec.place(context.Background(), "harbor", domain.Vec3{X: 8, Y: 1, Z: -4})

	assert.ErrorIs(t, err, domain.ErrSubjectNotFound)
}
