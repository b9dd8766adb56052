// Package logging provides a minimal logging interface and adapters for mcp-study.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the runner, agent and MCP client use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text", false)
//	run := runner.New(agent, func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
