// Package log provides a simple, leveled logging interface for the
// execution core.
//
// It implements a lightweight logging system with support for different
// log levels, customizable output destinations, and execution-scoped
// fields, so a caller can attach an execution ID or node ID once via
// With and log the rest of a run without repeating it in every call.
//
// # Log Levels
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: Detailed debugging information for development
//   - LogLevelInfo: General informational messages about normal operation
//   - LogLevelWarn: Warning messages for potentially problematic situations
//   - LogLevelError: Error messages for failures that need attention
//   - LogLevelNone: Disables all logging output
//
// # Logger Interface
//
// The Logger interface provides four logging methods plus With:
//
//   - Debug: For detailed troubleshooting information
//   - Info: For general application flow information
//   - Warn: For issues that don't stop execution but need attention
//   - Error: For failures and exceptions
//   - With: Returns a derived logger carrying additional fields
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("execution started")
//
//	// Scope a logger to one execution, then to one node within it.
//	execLogger := logger.With(map[string]any{"execution_id": execID})
//	nodeLogger := execLogger.With(map[string]any{"node_id": nodeID})
//	nodeLogger.Debug("handler dispatched")
//
// ## Custom Output
//
//	file, err := os.OpenFile("app.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
//	if err != nil {
//		panic(err)
//	}
//	defer file.Close()
//
//	logger := log.NewCustomLogger(file, log.LogLevelDebug)
//
// # Available Implementations
//
// DefaultLogger wraps Go's standard log package. GologLogger wraps
// github.com/kataras/golog for callers who want golog's level strings
// and formatting instead:
//
//	glogger := golog.New()
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// NoOpLogger discards everything; useful as a default when no logging
// destination is configured.
//
// # Thread Safety
//
// DefaultLogger is safe for concurrent use; the underlying
// standard-library log.Logger synchronizes writes internally.
package log
