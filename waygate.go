package waygate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averycross/waygate/internal/engine"
	"github.com/averycross/waygate/internal/logging"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// Tunables re-exports the pipeline constants so embedders can override
// them without reaching into internal packages.
type Tunables = engine.Tunables

// DefaultTunables returns the field-tuned pipeline defaults.
func DefaultTunables() Tunables { return engine.DefaultTunables() }

// Engine is the high-level entry point for the Waygate library.
// It wraps the internal transition coordinator and provides a simplified
// API for consumers.
type Engine struct {
	coord *engine.Coordinator

	stepper  ports.Stepper
	notifier ports.Notifier
	recorder ports.VisitRecorder
	locker   ports.DistributedLocker
	lockKey  string
	hooks    domain.LifecycleHooks
	tunables Tunables
	logger   *slog.Logger

	Name string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithTunables overrides pipeline constants; zero fields keep defaults.
func WithTunables(t Tunables) Option {
	return func(e *Engine) { e.tunables = t }
}

// WithNotifier sets the user-facing notification sink.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithVisitRecorder enables visit bookkeeping after successful transitions.
func WithVisitRecorder(r ports.VisitRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithDistributedLock adds a cross-replica single-flight lock (typically
// the Redis locker), keyed by the shared subject's identity.
func WithDistributedLock(l ports.DistributedLocker, key string) Option {
	return func(e *Engine) {
		e.locker = l
		e.lockKey = key
	}
}

// WithStepper overrides the suspension primitive. Defaults to the world
// itself when it implements ports.Stepper (the in-memory simulation does),
// otherwise a wall-clock stepper.
func WithStepper(s ports.Stepper) Option {
	return func(e *Engine) { e.stepper = s }
}

// WithName labels the engine instance in logs.
func WithName(name string) Option {
	return func(e *Engine) { e.Name = name }
}

// New initializes a Waygate Engine over a physical world and a context
// loader. Both are required; everything else has defaults.
func New(world ports.World, loader ports.ContextLoader, opts ...Option) (*Engine, error) {
	if world == nil {
		return nil, fmt.Errorf("world is required")
	}
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}

	eng := &Engine{tunables: engine.DefaultTunables()}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("engine", eng.Name)
	}
	if eng.stepper == nil {
		if s, ok := world.(ports.Stepper); ok {
			eng.stepper = s
		} else {
			eng.stepper = engine.NewRealtimeStepper()
		}
	}

	coordOpts := []engine.Option{
		engine.WithLogger(eng.logger),
		engine.WithTunables(eng.tunables),
		engine.WithLifecycleHooks(eng.hooks),
	}
	if eng.notifier != nil {
		coordOpts = append(coordOpts, engine.WithNotifier(eng.notifier))
	}
	if eng.recorder != nil {
		coordOpts = append(coordOpts, engine.WithVisitRecorder(eng.recorder))
	}
	if eng.locker != nil {
		coordOpts = append(coordOpts, engine.WithDistributedLock(eng.locker, eng.lockKey))
	}

	eng.coord = engine.NewCoordinator(world, loader, eng.stepper, coordOpts...)
	return eng, nil
}

// Begin accepts or rejects a transition request. Acceptance starts the
// asynchronous pipeline; completion arrives on Finished(). A second call
// while a transition is in progress returns false immediately.
func (e *Engine) Begin(ctx context.Context, req domain.TransitionRequest) (bool, error) {
	return e.coord.Begin(ctx, req)
}

// InProgress reports whether a transition pipeline is currently running.
func (e *Engine) InProgress() bool {
	return e.coord.InProgress()
}

// Finished returns the completion channel: one buffered result per
// accepted request.
func (e *Engine) Finished() <-chan domain.TransitionResult {
	return e.coord.Finished()
}
