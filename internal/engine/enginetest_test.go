package engine

import (
	"context"
	"sync"

	"github.com/averycross/waygate/pkg/adapters/memory"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// plazaWorld builds the standard test fixture: a flat walkable slab from
// -20..20 with its top face at y=0, and a tagged subject standing on it.
func plazaWorld() *memory.World {
	w := memory.NewWorld()
	w.AddBox(memory.Box{
		Name:     "plaza",
		Min:      domain.Vec3{X: -20, Y: -1, Z: -20},
		Max:      domain.Vec3{X: 20, Y: 0, Z: 20},
		Walkable: true,
	})
	w.PlaceSubject(memory.SubjectSpec{
		Tag:           "Player",
		Name:          "Traveler",
		Position:      domain.Vec3{X: 0, Y: 1, Z: 0},
		HasController: true,
	})
	return w
}

// recordingNotifier counts user-facing messages.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) NotifyUser(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// gateStepper wraps a stepper and blocks every Tick until released. Lets a
// test hold a pipeline mid-phase deterministically.
type gateStepper struct {
	ports.Stepper
	release chan struct{}
	once    sync.Once
}

func newGateStepper(inner ports.Stepper) *gateStepper {
	return &gateStepper{Stepper: inner, release: make(chan struct{})}
}

func (g *gateStepper) open() {
	g.once.Do(func() { close(g.release) })
}

func (g *gateStepper) Tick(ctx context.Context) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.Stepper.Tick(ctx)
}

// panicLoader simulates a host whose load API faults internally.
type panicLoader struct{}

func (panicLoader) StartLoad(ctx context.Context, id string) (ports.LoadHandle, error) {
	panic("host load API fault")
}
