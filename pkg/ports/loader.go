package ports

import (
	"context"

	"github.com/averycross/waygate/pkg/domain"
)

// SceneObject is a top-level object inside a loaded context.
type SceneObject struct {
	Name     string      `json:"name"`
	Position domain.Vec3 `json:"position"`
}

// ContextHandle is a reference to a (possibly still activating) loaded
// context.
type ContextHandle interface {
	// Name is the loaded context's actual name, which may differ from the
	// requested id (variant suffixes, localized names).
	Name() string

	// Active reports whether the context is fully active. Objects may
	// keep appearing for a few ticks after this flips true.
	Active() bool

	// ForceActivate signals readiness regardless of actual state. Called
	// by the load waiter when the hard activation timeout expires;
	// proceeding with a partially active context beats an infinite stall.
	ForceActivate()

	// FindAnchor looks up a named reference point. Objects can activate
	// late, so a miss now does not mean a miss forever.
	FindAnchor(name string) (domain.Vec3, bool)

	// Roots lists the context's top-level objects.
	Roots() []SceneObject
}

// LoadHandle is a pollable in-flight context load.
type LoadHandle interface {
	// Progress reports load completion in [0, 1].
	Progress() float64

	// Done reports whether the load operation finished.
	Done() bool

	// Context returns the handle of the loading/loaded context, once the
	// host has materialized it. ok is false before that point.
	Context() (h ContextHandle, ok bool)
}

// ContextLoader starts asynchronous context loads.
type ContextLoader interface {
	// StartLoad begins loading the context with the given id. An error
	// here means the load never started — terminal for the transition.
	StartLoad(ctx context.Context, id string) (LoadHandle, error)
}
