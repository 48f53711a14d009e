// Package logging provides structured logging configuration using zerolog.
//
// The fetcher itself never mutates global logging state: it takes an
// injected zerolog.Logger through its Config. Setup exists for binaries
// that want to configure the global logger explicitly at startup.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger. Call once from main.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// TimeOp returns a function that logs the elapsed time since TimeOp was
// called. Use it deferred at the top of an operation:
//
//	defer logging.TimeOp(logger, "fetch_all")()
func TimeOp(logger zerolog.Logger, op string) func() {
	start := time.Now()
	return func() {
		logger.Debug().
			Str("op", op).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Retry scheduling (attempt, backoff, error class)
//   - Token loaded from the shared store
//   - Operation timings via TimeOp
//
// Info: Normal operation events
//   - Request start and success (with live active count)
//   - Token refreshes
//   - Batch completion statistics
//
// Warn: Warning conditions that don't prevent operation
//   - Non-retryable HTTP failures for a single URL
//   - Token store errors (fallback to direct login)
//
// Error: Error conditions requiring attention
//   - Transport errors after retries
//   - Credential refresh failures
//   - Cancellation mid-fetch
//
// Context Fields:
//   - url: The fetched URL
//   - active: Live count of in-flight fetches at the time of the event
//   - status: HTTP status code
//   - duration: Request or batch duration
//   - error_class: Error classification (client, server, network, payload, auth)
//   - attempt: 0-based attempt index
//   - backoff: Delay before the next attempt
