// Package ports defines the boundary interfaces of the Waygate engine.
//
// Driven ports (World, ContextLoader, Stepper, Notifier, VisitRecorder,
// PricingProvider, DistributedLocker) are implemented by adapters; the
// driving port (TransitionEngine) is implemented by the engine and consumed
// by the HTTP and MCP adapters. Keeping these here decouples the host
// environment (a real scene host, the in-memory simulation, a test double)
// from the orchestration core.
package ports
