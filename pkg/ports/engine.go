package ports

import (
	"context"

	"github.com/averycross/waygate/pkg/domain"
)

// TransitionEngine is the driving port implemented by the engine core and
// consumed by control-surface adapters (HTTP, MCP, CLI).
type TransitionEngine interface {
	// Begin accepts or rejects a transition request. Rejection is
	// synchronous: false with domain.ErrRequestRejected or
	// domain.ErrTransitionBusy, and no pipeline runs.
	Begin(ctx context.Context, req domain.TransitionRequest) (bool, error)

	// InProgress reports whether a pipeline is currently running.
	InProgress() bool

	// Finished returns the completion channel. Single-subscriber
	// friendly: one buffered result per pipeline run.
	Finished() <-chan domain.TransitionResult
}
