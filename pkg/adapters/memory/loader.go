package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ContextSpec describes one loadable context and how its load behaves.
// The failure knobs exist so tests (and demo scenarios) can exercise every
// branch of the load waiter.
type ContextSpec struct {
	ID string `yaml:"id"`

	// LoadedName is the name the context reports once loaded; defaults to
	// ID. Hosts substitute variant names here (e.g. "Harbor_Destroyed").
	LoadedName string `yaml:"loaded_name"`

	// LoadDuration is how long (simulated) the load takes to reach 100%.
	LoadDuration time.Duration `yaml:"load_duration"`

	// ActivateDelay is the extra time between loaded and fully active.
	ActivateDelay time.Duration `yaml:"activate_delay"`

	// AnchorDelay delays anchor visibility past the loaded instant,
	// simulating late object activation.
	AnchorDelay time.Duration `yaml:"anchor_delay"`

	// FailStart makes StartLoad error outright.
	FailStart bool `yaml:"fail_start"`

	// NeverActivate keeps Active false until ForceActivate.
	NeverActivate bool `yaml:"never_activate"`

	Anchors map[string]domain.Vec3 `yaml:"anchors"`
	Roots   []ports.SceneObject    `yaml:"roots"`
}

// UnmarshalYAML accepts Go duration strings ("1s", "200ms") for the
// duration knobs, which plain yaml decoding of time.Duration does not.
func (c *ContextSpec) UnmarshalYAML(value *yaml.Node) error {
	type rawSpec struct {
		ID            string                 `yaml:"id"`
		LoadedName    string                 `yaml:"loaded_name"`
		LoadDuration  string                 `yaml:"load_duration"`
		ActivateDelay string                 `yaml:"activate_delay"`
		AnchorDelay   string                 `yaml:"anchor_delay"`
		FailStart     bool                   `yaml:"fail_start"`
		NeverActivate bool                   `yaml:"never_activate"`
		Anchors       map[string]domain.Vec3 `yaml:"anchors"`
		Roots         []ports.SceneObject    `yaml:"roots"`
	}
	var raw rawSpec
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parse := func(field, s string) (time.Duration, error) {
		if s == "" {
			return 0, nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("context %q: bad %s: %w", raw.ID, field, err)
		}
		return d, nil
	}
	var err error
	c.ID = raw.ID
	c.LoadedName = raw.LoadedName
	c.FailStart = raw.FailStart
	c.NeverActivate = raw.NeverActivate
	c.Anchors = raw.Anchors
	c.Roots = raw.Roots
	if c.LoadDuration, err = parse("load_duration", raw.LoadDuration); err != nil {
		return err
	}
	if c.ActivateDelay, err = parse("activate_delay", raw.ActivateDelay); err != nil {
		return err
	}
	if c.AnchorDelay, err = parse("anchor_delay", raw.AnchorDelay); err != nil {
		return err
	}
	return nil
}

// Loader implements ports.ContextLoader over registered ContextSpecs,
// using the world's simulated clock for progress.
type Loader struct {
	mu       sync.Mutex
	world    *World
	contexts map[string]ContextSpec
}

// NewLoader creates a loader bound to the world's clock.
func NewLoader(world *World) *Loader {
	return &Loader{world: world, contexts: make(map[string]ContextSpec)}
}

// AddContext registers a loadable context.
func (l *Loader) AddContext(spec ContextSpec) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if spec.LoadedName == "" {
		spec.LoadedName = spec.ID
	}
	l.contexts[spec.ID] = spec
}

// Contexts lists the registered context ids, sorted.
func (l *Loader) Contexts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.contexts))
	for id := range l.contexts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartLoad begins an asynchronous load of the context with the given id.
func (l *Loader) StartLoad(ctx context.Context, id string) (ports.LoadHandle, error) {
	l.mu.Lock()
	spec, ok := l.contexts[id]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown context %q", id)
	}
	if spec.FailStart {
		return nil, fmt.Errorf("host refused load of %q", id)
	}
	h := &loadHandle{
		world:     l.world,
		spec:      spec,
		startedAt: l.world.Now(),
	}
	h.ctxHandle = &contextHandle{load: h}
	return h, nil
}

type loadHandle struct {
	world     *World
	spec      ContextSpec
	startedAt time.Time
	ctxHandle *contextHandle
}

func (h *loadHandle) elapsed() time.Duration {
	return h.world.Now().Sub(h.startedAt)
}

func (h *loadHandle) Progress() float64 {
	if h.spec.LoadDuration <= 0 {
		return 1
	}
	p := float64(h.elapsed()) / float64(h.spec.LoadDuration)
	if p > 1 {
		p = 1
	}
	return p
}

func (h *loadHandle) Done() bool {
	return h.Progress() >= 1
}

func (h *loadHandle) Context() (ports.ContextHandle, bool) {
	// The host materializes the context object slightly before full
	// progress, matching engines that expose a scene at ~90%.
	if h.Progress() < 0.9 {
		return nil, false
	}
	return h.ctxHandle, true
}

type contextHandle struct {
	mu     sync.Mutex
	load   *loadHandle
	forced bool
}

func (c *contextHandle) Name() string { return c.load.spec.LoadedName }

func (c *contextHandle) Active() bool {
	c.mu.Lock()
	forced := c.forced
	c.mu.Unlock()
	if forced {
		return true
	}
	if c.load.spec.NeverActivate {
		return false
	}
	return c.load.elapsed() >= c.load.spec.LoadDuration+c.load.spec.ActivateDelay
}

func (c *contextHandle) ForceActivate() {
	c.mu.Lock()
	c.forced = true
	c.mu.Unlock()
}

func (c *contextHandle) FindAnchor(name string) (domain.Vec3, bool) {
	// Anchors activate late on purpose; before the delay they simply do
	// not exist yet.
	if c.load.elapsed() < c.load.spec.LoadDuration+c.load.spec.AnchorDelay {
		return domain.Vec3{}, false
	}
	p, ok := c.load.spec.Anchors[name]
	return p, ok
}

func (c *contextHandle) Roots() []ports.SceneObject {
	if !c.Active() {
		// Top-level objects appear with activation.
		return nil
	}
	roots := make([]ports.SceneObject, len(c.load.spec.Roots))
	copy(roots, c.load.spec.Roots)
	return roots
}
