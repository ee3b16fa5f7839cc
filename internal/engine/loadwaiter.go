package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/averycross/waygate/pkg/domain"
	"github.com/averycross/waygate/pkg/ports"
)

// loadWaiter drives an asynchronous context load to completion.
//
// Two timeouts govern the wait. The soft timeout covers the progress phase:
// exceeding it logs a warning and keeps waiting, because first loads of a
// heavy asset legitimately take long and abandoning them would waste the
// work. The hard timeout covers activation: exceeding it force-signals
// readiness and proceeds, because a partially active context is safer than
// an indefinite stall.
type loadWaiter struct {
	loader  ports.ContextLoader
	stepper ports.Stepper
	tun     Tunables
	logger  *slog.Logger
}

func newLoadWaiter(loader ports.ContextLoader, stepper ports.Stepper, tun Tunables, logger *slog.Logger) *loadWaiter {
	return &loadWaiter{loader: loader, stepper: stepper, tun: tun.normalized(), logger: logger}
}

// wait starts the load for id and blocks (cooperatively, one tick at a
// time) until the context is ready. A start failure is terminal and wraps
// domain.ErrLoadFailed.
func (w *loadWaiter) wait(ctx context.Context, id string) (ports.ContextHandle, error) {
	handle, err := w.loader.StartLoad(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: start of %q: %v", domain.ErrLoadFailed, id, err)
	}

	// Phase 1: poll progress until the ready threshold.
	start := w.stepper.Now()
	softWarned := false
	for {
		if handle.Done() || handle.Progress() >= w.tun.ReadyThreshold {
			break
		}
		if !softWarned && w.stepper.Now().Sub(start) > w.tun.LoadSoftTimeout {
			w.logger.Warn("context load exceeding soft timeout, still waiting",
				"context", id,
				"progress", handle.Progress(),
				"elapsed", w.stepper.Now().Sub(start))
			softWarned = true
		}
		if err := w.stepper.Tick(ctx); err != nil {
			return nil, fmt.Errorf("%w: wait for %q: %v", domain.ErrLoadFailed, id, err)
		}
	}

	ch, ok := handle.Context()
	if !ok {
		// Progress says ready but the host never materialized the
		// context. Give it the activation window before declaring defeat.
		deadline := w.stepper.Now().Add(w.tun.ActivateHardTimeout)
		for {
			if ch, ok = handle.Context(); ok {
				break
			}
			if !w.stepper.Now().Before(deadline) {
				return nil, fmt.Errorf("%w: context %q never materialized", domain.ErrLoadFailed, id)
			}
			if err := w.stepper.Tick(ctx); err != nil {
				return nil, fmt.Errorf("%w: wait for %q: %v", domain.ErrLoadFailed, id, err)
			}
		}
	}

	// Phase 2: wait for full activation with a hard bound. On expiry,
	// force readiness and proceed anyway.
	deadline := w.stepper.Now().Add(w.tun.ActivateHardTimeout)
	for !ch.Active() {
		if !w.stepper.Now().Before(deadline) {
			w.logger.Warn("activation hard timeout, forcing readiness",
				"context", id, "loaded_name", ch.Name())
			ch.ForceActivate()
			break
		}
		if err := w.stepper.Tick(ctx); err != nil {
			return nil, fmt.Errorf("%w: activation of %q: %v", domain.ErrLoadFailed, id, err)
		}
	}

	w.logger.Info("context ready",
		"context", id,
		"loaded_name", ch.Name(),
		"active", ch.Active(),
		"elapsed", w.stepper.Now().Sub(start))
	return ch, nil
}
