// Package logging provides structured logging for the TeBot driver and tools.
//
// This package wraps a zap logger with convenience functions for common
// logging patterns: connection lifecycle events and binary frame dumps.
//
// # Log Levels
//
//   - Debug: Frame hex dumps, event delivery, ping/pong
//   - Info: Connection lifecycle, simulator state changes
//   - Warn: Dropped commands (not connected, encoding failures), clamped steps
//   - Error: Transport failures, rejected telemetry
//
// # Silent By Default
//
// The CLI tools print their own output. Zap logging only appears when the
// TEBOT_LOG_LEVEL environment variable (or --log-level flag) is set:
//
//	TEBOT_LOG_LEVEL=debug tebotctl forward 100
//
// # Component Loggers
//
// Components accept an injected *zap.Logger and default to Named() children
// of the global logger, so tests can observe reports with zaptest/observer:
//
//	core, logs := observer.New(zap.DebugLevel)
//	ctrl := device.NewController(adapter, device.WithLogger(zap.New(core)))
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
