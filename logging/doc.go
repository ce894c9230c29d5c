// Package logging provides a minimal logging interface and slog adapters for schoolmate.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the agent, the domain services and the HTTP server use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - LogCapabilityCall / LogModelCall helpers with fixed attribute names
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Component: "schoolmate"})
//	orch, err := agent.New(m, registry, handlers, func(o *agent.Options) { o.Logger = logger })
package logging
