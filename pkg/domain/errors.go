package domain

import "errors"

// Error taxonomy of the transition pipeline. Every phase converts its
// internal faults into one of these; the coordinator alone decides which
// are terminal, which retry, and which fall back to the shim.
var (
	// ErrRequestRejected marks a malformed request (no destination, no
	// coordinate hint). Surfaced synchronously, no state change.
	ErrRequestRejected = errors.New("transition request rejected")

	// ErrTransitionBusy marks a begin() while another transition is
	// in progress. Surfaced synchronously; the new request is not queued.
	ErrTransitionBusy = errors.New("another transition is already in progress")

	// ErrLoadFailed marks an async context load that never started or
	// errored outright. Terminal.
	ErrLoadFailed = errors.New("context load failed")

	// ErrNoTarget marks resolution failure: no anchor, no hint, no usable
	// root object. Terminal — defaulting to world origin would be
	// indistinguishable from a real but wrong placement.
	ErrNoTarget = errors.New("no plausible target point in destination")

	// ErrOverlapUnresolved marks an overlap search that exhausted its
	// budget. Non-terminal; the pipeline degrades to the best-effort point.
	ErrOverlapUnresolved = errors.New("overlap search found no clear point")

	// ErrPlacementOverridden marks a third party moving the subject during
	// the monitor window. Triggers a bounded retry.
	ErrPlacementOverridden = errors.New("placement overridden during monitor window")

	// ErrAttemptsExhausted marks the placement executor running out of
	// enforcement attempts. The shim may still run before this becomes
	// terminal.
	ErrAttemptsExhausted = errors.New("placement attempts exhausted")

	// ErrSubjectNotFound marks a failure to resolve the subject entity at
	// all. Terminal for the executor; the shim re-resolves independently.
	ErrSubjectNotFound = errors.New("subject entity not found")

	// ErrShimFailed marks the compatibility path producing no measurable
	// movement. Fully terminal.
	ErrShimFailed = errors.New("compatibility placement produced no movement")
)
