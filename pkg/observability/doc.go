// Package observability exposes the engine's lifecycle events as
// Prometheus metrics. It plugs into the engine via domain.LifecycleHooks,
// so the core never imports a metrics library.
package observability
