// Package waygate relocates a controllable entity ("the subject") from one
// loadable unit of world content to another, without ever leaving it
// embedded in solid geometry and without ever running two relocations at
// once.
//
// The pipeline is a single-flight state machine: wait for the asynchronous
// context load (soft and hard timeouts), resolve a destination point
// (anchor, coordinate hint, naming heuristics, root fallback), ground it
// against the world's geometry, then enforce the placement with settle,
// verify and monitor semantics — retrying when some other system silently
// moves the subject — before degrading to a coordinate-only compatibility
// path. Every phase is bounded; a transition always terminates.
//
// The host environment is abstracted behind the interfaces in pkg/ports,
// with an in-memory simulation in pkg/adapters/memory that makes the whole
// state machine testable on simulated time.
package waygate
