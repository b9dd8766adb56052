// Package runner orchestrates agent execution and manages the lifecycle of a
// conversation run.
//
// The Runner is the coordination point between callers and the agent. For
// each run it:
//
//  1. Persists the user input as the starting event
//  2. Drives the agent in its own goroutine
//  3. Applies event actions (state deltas, artifacts) to the stores
//  4. Persists non-partial events to session history
//  5. Forwards events to the caller and signals resumption to the agent
//
// Service errors during event processing are treated as terminal and end the
// run; context cancellation and Cancel provide cooperative shutdown.
package runner
