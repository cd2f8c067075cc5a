package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// LogLevel represents available log levels
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// InitLogger initializes the global logger with configuration from environment variables
func InitLogger() {
	Logger = log.New(os.Stderr)

	logLevel := ParseLevel(os.Getenv("LOG_LEVEL"))
	setLogLevel(Logger, logLevel)

	Logger.SetReportTimestamp(true)
	Logger.SetReportCaller(true)

	Logger.Debug("Logger initialized successfully", "level", logLevel)
}

// Setup replaces the global logger using explicit settings, as loaded by the
// config package. Format is one of "json", "logfmt" or "text".
func Setup(level, format, prefix string) *log.Logger {
	Logger = log.New(os.Stderr)

	logLevel := ParseLevel(level)
	setLogLevel(Logger, logLevel)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		Logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		Logger.SetFormatter(log.LogfmtFormatter)
	default:
		Logger.SetFormatter(log.TextFormatter)
		Logger.SetReportCaller(true)
	}
	Logger.SetReportTimestamp(true)

	if prefix != "" {
		Logger.SetPrefix(prefix)
	}

	Logger.Debug("Logger configured", "level", logLevel, "format", format)
	return Logger
}

// ParseLevel maps a level name to a LogLevel. Unknown or empty names fall
// back to debug for maximum visibility.
func ParseLevel(name string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return DebugLevel
	}
}

// setLogLevel configures the logger with the specified level
func setLogLevel(logger *log.Logger, level LogLevel) {
	switch level {
	case DebugLevel:
		logger.SetLevel(log.DebugLevel)
	case InfoLevel:
		logger.SetLevel(log.InfoLevel)
	case WarnLevel:
		logger.SetLevel(log.WarnLevel)
	case ErrorLevel:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.DebugLevel)
	}
}

// GetLogger returns the global logger instance
func GetLogger() *log.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}

// WithFields creates a logger with contextual fields
func WithFields(fields ...interface{}) *log.Logger {
	return GetLogger().With(fields...)
}

// WithComponent creates a logger tagged with the owning component name
func WithComponent(component string) *log.Logger {
	return WithFields("component", component)
}

// WithRoverID creates a logger with rover_id context
func WithRoverID(roverID string) *log.Logger {
	return WithFields("rover_id", roverID)
}

// WithCoords creates a logger with world coordinate context
func WithCoords(x, y int) *log.Logger {
	return WithFields("x", x, "y", y)
}

// WithChunkCoords creates a logger with chunk coordinate context
func WithChunkCoords(chunkX, chunkY int) *log.Logger {
	return WithFields("chunk_x", chunkX, "chunk_y", chunkY)
}

// WithDuration creates a logger with duration context (for performance logging)
func WithDuration(operation string, duration interface{}) *log.Logger {
	return WithFields("operation", operation, "duration", duration)
}
