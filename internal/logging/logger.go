package logging

import (
	"encoding/hex"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "TEBOT_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks TEBOT_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	zapLevel, err := ParseLevel(level)
	if err != nil {
		// Unknown level - use info when explicitly set to something
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// InitializeFromEnv initializes the logger from the TEBOT_LOG_LEVEL
// environment variable. Commands stay silent unless it is set.
func InitializeFromEnv() error {
	return Initialize("")
}

// ParseLevel maps a level name to a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the global logger. Passing nil restores the silent logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// Named returns a child of the global logger for a component
func Named(component string) *zap.Logger {
	return GetLogger().Named(component)
}

// LogConnection logs a connection lifecycle event at info level
func LogConnection(l *zap.Logger, msg, endpoint, event string, fields ...zap.Field) {
	l.Info(msg, append([]zap.Field{
		zap.String("endpoint", endpoint),
		zap.String("event", event),
	}, fields...)...)
}

// FrameFields returns the structured fields used for every logged frame
func FrameFields(direction string, data []byte) []zap.Field {
	return []zap.Field{
		zap.String("direction", direction),
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
	}
}

// LogFrame logs a binary frame at debug level
func LogFrame(l *zap.Logger, msg, direction string, data []byte, fields ...zap.Field) {
	if ce := l.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(append(FrameFields(direction, data), fields...)...)
	}
}

// LogRawBytes logs a payload that is not a protocol frame, with a printable dump
func LogRawBytes(l *zap.Logger, msg string, data []byte, fields ...zap.Field) {
	if ce := l.Check(zapcore.DebugLevel, msg); ce != nil {
		ce.Write(append([]zap.Field{
			zap.Int("length", len(data)),
			zap.String("hex", hexDump(data)),
			zap.String("ascii", asciiDump(data)),
		}, fields...)...)
	}
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > 256 {
		return hex.EncodeToString(data[:256]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > 256 {
		data = data[:256]
	}

	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
