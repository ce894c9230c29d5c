// Package core holds the small set of types shared by every layer of
// schoolmate: the role based message content exchanged with reasoning
// engines, the error taxonomy of an orchestration run and the per-run model
// call budget.
//
// The package has no dependencies on other schoolmate packages so that the
// model adapters, the capability registry and the agent can all build on it.
package core
