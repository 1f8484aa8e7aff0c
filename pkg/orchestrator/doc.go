// Package orchestrator wires the fetch → resolve → render → mount pipeline
// behind a single entry point, with dependency injection for every stage.
package orchestrator
