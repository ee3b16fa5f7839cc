package engine

import (
	"testing"

	"github.com/averycross/waygate/internal/logging"
	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestOverlapResolver_Clear(t *testing.T) {
	w := plazaWorld()
	o := NewOverlapResolver(w, DefaultTunables(), logging.NewNop())

	assert.True(t, o.Clear(domain.Vec3{X: 0, Y: 1, Z: 0}), "point above slab should be clear")
	assert.False(t, o.Clear(domain.Vec3{X: 0, Y: -0.5, Z: 0}), "point inside slab should overlap")
}

func TestOverlapResolver_RaiseToClear(t *testing.T) {
	w := plazaWorld()
	// A ceiling block directly over the origin, 0..3 high.
	w.AddBox(memory.Box{
		Name: "debris",
		Min:  domain.Vec3{X: -1, Y: 0, Z: -1},
		Max:  domain.Vec3{X: 1, Y: 3, Z: 1},
	})
	o := NewOverlapResolver(w, DefaultTunables(), logging.NewNop())

	point, raised, clear := o.RaiseToClear(domain.Vec3{X: 0, Y: 1, Z: 0})
	assert.True(t, clear, "search should find the space above the debris")
	assert.Greater(t, raised, 0.0)
	assert.True(t, o.Clear(point), "returned point must re-check as clear")
}

func TestOverlapResolver_RaiseToClear_Exhausted(t *testing.T) {
	w := memory.NewWorld()
	// Solid column far taller than the raise budget.
	w.AddBox(memory.Box{
		Name: "tower",
		Min:  domain.Vec3{X: -2, Y: 0, Z: -2},
		Max:  domain.Vec3{X: 2, Y: 50, Z: 2},
	})
	tun := DefaultTunables()
	o := NewOverlapResolver(w, tun, logging.NewNop())

	point, raised, clear := o.RaiseToClear(domain.Vec3{X: 0, Y: 1, Z: 0})
	assert.False(t, clear, "blocked search reports not clear")
	assert.InDelta(t, tun.MaxRaise, raised, 1e-9, "best-effort point sits at the raise cap")
	assert.InDelta(t, 1+tun.MaxRaise, point.Y, 1e-9)
}

func TestOverlapResolver_SearchShallow_Radial(t *testing.T) {
	w := memory.NewWorld()
	// A tall narrow pillar: vertical climbing inside the shim budget
	// stays blocked, but one radial ring to the side is free.
	w.AddBox(memory.Box{
		Name: "pillar",
		Min:  domain.Vec3{X: -0.5, Y: 0, Z: -0.5},
		Max:  domain.Vec3{X: 0.5, Y: 30, Z: 0.5},
	})
	o := NewOverlapResolver(w, DefaultTunables(), logging.NewNop())

	point, ok := o.SearchShallow(domain.Vec3{X: 0, Y: 1, Z: 0})
	assert.True(t, ok)
	assert.True(t, o.Clear(point))
	assert.NotEqual(t, 0.0, point.X*point.X+point.Z*point.Z, "clear spot should be off-axis")
}
