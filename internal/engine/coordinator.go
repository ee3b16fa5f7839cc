package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/averycross/waygate/internal/logging"
	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// lockTTL bounds how long the distributed single-flight lock may outlive a
// crashed holder.
const lockTTL = 2 * time.Minute

// lockAcquireTimeout keeps Begin synchronous-ish: if the cross-replica lock
// is held elsewhere, reject instead of queueing.
const lockAcquireTimeout = 500 * time.Millisecond

// Coordinator is the top-level single-flight state machine. It owns the
// in-progress flag, sequences the pipeline phases and emits exactly one
// completion signal per accepted request.
//
// One instance with explicit lifetime replaces the global singleton the
// problem invites: construct it once and hand it to whatever drives the
// scheduling loop.
type Coordinator struct {
	world   ports.World
	loader  ports.ContextLoader
	stepper ports.Stepper

	notifier ports.Notifier
	recorder ports.VisitRecorder
	locker   ports.DistributedLocker
	lockKey  string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	tun    Tunables

	waiter   *loadWaiter
	resolver *targetResolver
	probe    *GroundingProbe
	overlap  *OverlapResolver
	executor *placementExecutor
	shim     *compatibilityShim

	inProgress atomic.Bool
	finished   chan domain.TransitionResult
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithTunables overrides the pipeline constants. Zero fields fall back to
// defaults.
func WithTunables(t Tunables) Option {
	return func(c *Coordinator) { c.tun = t.normalized() }
}

// WithNotifier sets the user-facing notification sink.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithVisitRecorder enables fire-and-forget visit bookkeeping.
func WithVisitRecorder(r ports.VisitRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(c *Coordinator) { c.hooks = h }
}

// WithDistributedLock layers a cross-replica lock over the in-process
// single-flight guard. key namespaces the lock (usually the subject id).
func WithDistributedLock(l ports.DistributedLocker, key string) Option {
	return func(c *Coordinator) {
		c.locker = l
		c.lockKey = key
	}
}

// NewCoordinator assembles the pipeline around the given world, loader and
// stepper.
func NewCoordinator(world ports.World, loader ports.ContextLoader, stepper ports.Stepper, opts ...Option) *Coordinator {
	c := &Coordinator{
		world:    world,
		loader:   loader,
		stepper:  stepper,
		tun:      DefaultTunables(),
		finished: make(chan domain.TransitionResult, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.notifier == nil {
		c.notifier = ports.NotifierFunc(func(string) {})
	}

	c.overlap = NewOverlapResolver(world, c.tun, c.logger)
	c.waiter = newLoadWaiter(loader, stepper, c.tun, c.logger)
	c.resolver = newTargetResolver(stepper, c.tun, c.logger)
	c.probe = NewGroundingProbe(world, c.overlap, c.tun, c.logger)
	c.executor = newPlacementExecutor(world, stepper, c.tun, c.hooks, c.logger)
	c.shim = newCompatibilityShim(world, stepper, c.overlap, c.tun, c.logger)
	return c
}

// Begin accepts or rejects a transition request. On acceptance the pipeline
// runs asynchronously; completion is delivered on Finished(). A second call
// while a pipeline is in progress is rejected synchronously, never queued.
func (c *Coordinator) Begin(ctx context.Context, req domain.TransitionRequest) (bool, error) {
	if !req.Valid() {
		c.notifier.NotifyUser("Cannot travel: no destination was given.")
		return false, domain.ErrRequestRejected
	}
	if !c.inProgress.CompareAndSwap(false, true) {
		c.notifier.NotifyUser("Travel already in progress, please wait.")
		return false, domain.ErrTransitionBusy
	}

	var unlock ports.UnlockFunc
	if c.locker != nil {
		lockCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
		var err error
		unlock, err = c.locker.Lock(lockCtx, c.lockKey, lockTTL)
		cancel()
		if err != nil {
			c.inProgress.Store(false)
			c.notifier.NotifyUser("Travel already in progress elsewhere, please wait.")
			return false, fmt.Errorf("%w: %v", domain.ErrTransitionBusy, err)
		}
	}

	if req.RequestedAt.IsZero() {
		req.RequestedAt = c.stepper.Now()
	}

	go c.run(ctx, req, unlock)
	return true, nil
}

// InProgress reports whether a pipeline is currently running.
func (c *Coordinator) InProgress() bool {
	return c.inProgress.Load()
}

// Finished returns the completion channel (buffered, one result per run).
func (c *Coordinator) Finished() <-chan domain.TransitionResult {
	return c.finished
}

// run drives the whole pipeline on one goroutine. Every exit path — success,
// failure or internal panic — clears the in-progress flag, releases the
// distributed lock and emits exactly one result.
func (c *Coordinator) run(ctx context.Context, req domain.TransitionRequest, unlock ports.UnlockFunc) {
	start := c.stepper.Now()
	result := domain.TransitionResult{Request: req}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("transition pipeline panicked", "panic", r)
			result.Success = false
			result.Err = fmt.Errorf("internal fault: %v", r)
			result.Reason = "Travel failed due to an internal error."
			c.notifier.NotifyUser(result.Reason)
		}
		result.Duration = c.stepper.Now().Sub(start)

		// Clear state before signaling so a completion subscriber can
		// immediately begin the next transition.
		c.inProgress.Store(false)
		if unlock != nil {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := unlock(unlockCtx); err != nil {
				c.logger.Warn("failed to release distributed lock", "err", err)
			}
			cancel()
		}

		if c.hooks.OnFinished != nil {
			c.hooks.OnFinished(ctx, &result)
		}
		// Single-subscriber channel: drop a stale unconsumed result
		// rather than block the pipeline goroutine forever.
		select {
		case <-c.finished:
		default:
		}
		c.finished <- result
	}()

	result = c.pipeline(ctx, req)
}

// pipeline executes load → resolve → ground → place (→ shim) in strict
// order. It returns the per-request result; the caller owns flag clearing
// and signaling.
func (c *Coordinator) pipeline(ctx context.Context, req domain.TransitionRequest) domain.TransitionResult {
	result := domain.TransitionResult{Request: req}
	logger := c.logger.With("destination", req.DestinationID)

	// Phase 1: context load.
	var handle ports.ContextHandle
	err := c.phase(ctx, domain.PhaseLoad, req.DestinationID, func() error {
		var err error
		handle, err = c.waiter.wait(ctx, req.DestinationID)
		return err
	})
	if err != nil {
		result.Err = err
		result.Reason = "Travel failed: the destination could not be loaded."
		c.notifier.NotifyUser(result.Reason)
		return result
	}

	// Phase 2: target resolution.
	var target domain.ResolvedTarget
	err = c.phase(ctx, domain.PhaseResolve, req.DestinationID, func() error {
		var err error
		target, err = c.resolver.resolve(ctx, handle, req.AnchorHint, req.CoordinateHint)
		return err
	})
	if err != nil {
		result.Err = err
		result.Reason = "Travel failed: no arrival point could be found in the destination."
		c.notifier.NotifyUser(result.Reason)
		return result
	}
	result.Target = &target
	logger.Info("target resolved",
		"strategy", string(target.Strategy),
		"point", target.Point.String(),
		"anchor", target.AnchorName)

	// Phase 3: grounding. Best-effort; an unresolved overlap degrades,
	// never aborts.
	var placement domain.GroundedPlacement
	_ = c.phase(ctx, domain.PhaseGround, req.DestinationID, func() error {
		preserve := target.Strategy == domain.TargetCoordinateHint
		placement = c.probe.Ground(target.Point, preserve)
		if !placement.Clear {
			return domain.ErrOverlapUnresolved
		}
		return nil
	})
	result.Placement = &placement

	// Phase 4: enforcement with retries.
	var placeErr error
	_ = c.phase(ctx, domain.PhasePlace, req.DestinationID, func() error {
		var attempts []domain.PlacementAttempt
		attempts, placeErr = c.executor.place(ctx, req.DestinationID, placement.Point)
		result.Attempts = attempts
		return placeErr
	})

	if placeErr == nil {
		return c.succeed(ctx, req, handle, placement.Point, result)
	}
	if errors.Is(placeErr, context.Canceled) || errors.Is(placeErr, context.DeadlineExceeded) {
		result.Err = placeErr
		result.Reason = "Travel was interrupted."
		c.notifier.NotifyUser(result.Reason)
		return result
	}
	logger.Warn("primary placement failed", "err", placeErr)

	// Phase 5: compatibility fallback. Policy: only when a coordinate
	// hint was supplied or no exact anchor was found; a precise anchor
	// placement that could not be enforced should fail loudly instead of
	// being approximated.
	if req.CoordinateHint == nil && target.Strategy == domain.TargetAnchor {
		result.Err = placeErr
		result.Reason = "Travel failed: the arrival point could not be secured."
		c.notifier.NotifyUser(result.Reason)
		return result
	}

	var moved bool
	shimErr := c.phase(ctx, domain.PhaseShim, req.DestinationID, func() error {
		before, err := c.subjectPosition(ctx)
		if err != nil {
			return err
		}
		if err := c.shim.placeByCoordinates(ctx, placement.Point); err != nil {
			return err
		}
		after, err := c.subjectPosition(ctx)
		if err != nil {
			return err
		}
		// Outcome is judged purely by displacement; the shim itself
		// never reports success.
		moved = after.Dist(before) > c.tun.ShimSuccessEpsilon
		return nil
	})
	result.UsedShim = true
	if shimErr != nil || !moved {
		if shimErr == nil {
			shimErr = domain.ErrShimFailed
		}
		result.Err = shimErr
		result.Reason = "Travel failed: the subject could not be moved."
		c.notifier.NotifyUser(result.Reason)
		return result
	}

	return c.succeed(ctx, req, handle, placement.Point, result)
}

// succeed finalizes a successful run: final position snapshot, opaque cost
// pass-through and fire-and-forget variant bookkeeping.
func (c *Coordinator) succeed(ctx context.Context, req domain.TransitionRequest, handle ports.ContextHandle, target domain.Vec3, result domain.TransitionResult) domain.TransitionResult {
	result.Success = true
	result.CostHint = req.CostHint
	if pos, err := c.subjectPosition(ctx); err == nil {
		result.FinalPosition = pos
	} else {
		result.FinalPosition = target
	}

	result.Variant = detectVariant(handle, req.DestinationID)
	if c.recorder != nil {
		// Bookkeeping must never block or fail the transition.
		variant := result.Variant
		go func() {
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.recorder.MarkVisited(rctx, req.DestinationID, variant); err != nil {
				c.logger.Warn("visit bookkeeping failed", "destination", req.DestinationID, "err", err)
			}
		}()
	}

	c.logger.Info("transition complete",
		"destination", req.DestinationID,
		"final", result.FinalPosition.String(),
		"used_shim", result.UsedShim,
		"variant", result.Variant)
	return result
}

// phase wraps one pipeline stage with hooks, logging and duration tracking.
func (c *Coordinator) phase(ctx context.Context, name domain.Phase, destination string, fn func() error) error {
	ev := &domain.PhaseEvent{Phase: name, Destination: destination, StartedAt: c.stepper.Now()}
	if c.hooks.OnPhaseStart != nil {
		c.hooks.OnPhaseStart(ctx, ev)
	}
	err := fn()
	end := &domain.PhaseEvent{
		Phase:       name,
		Destination: destination,
		StartedAt:   ev.StartedAt,
		Duration:    c.stepper.Now().Sub(ev.StartedAt),
		Err:         err,
	}
	if c.hooks.OnPhaseEnd != nil {
		c.hooks.OnPhaseEnd(ctx, end)
	}
	if err != nil {
		c.logger.Debug("phase ended with error", "phase", string(name), "err", err)
	}
	return err
}

func (c *Coordinator) subjectPosition(ctx context.Context) (domain.Vec3, error) {
	subj, err := c.world.ResolveSubjectLoose(ctx)
	if err != nil {
		return domain.Vec3{}, err
	}
	return subj.Position(), nil
}
