// Package domain contains the core types of the Waygate relocation engine:
// transition requests, resolved targets, grounded placements and the
// lifecycle events emitted while a transition runs.
//
// The package is dependency-free on purpose. Adapters (HTTP, MCP, Redis)
// and the engine core both speak these types, so anything heavier than the
// standard library here would leak into every consumer.
package domain
