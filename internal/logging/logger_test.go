package logging

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Logger_InitLogger_LogLevelConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		logLevel      string
		expectedLevel log.Level
	}{
		{name: "debug_level", logLevel: "debug", expectedLevel: log.DebugLevel},
		{name: "info_level", logLevel: "info", expectedLevel: log.InfoLevel},
		{name: "warn_level", logLevel: "warn", expectedLevel: log.WarnLevel},
		{name: "warning_level_alias", logLevel: "warning", expectedLevel: log.WarnLevel},
		{name: "error_level", logLevel: "error", expectedLevel: log.ErrorLevel},
		{name: "default_empty_level", logLevel: "", expectedLevel: log.DebugLevel},
		{name: "default_invalid_level", logLevel: "invalid", expectedLevel: log.DebugLevel},
		{name: "case_mixed_info", logLevel: "InFo", expectedLevel: log.InfoLevel},
		{name: "whitespace_trimmed", logLevel: "  warn  ", expectedLevel: log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.logLevel)

			Logger = nil
			InitLogger()

			require.NotNil(t, Logger)
			assert.Equal(t, tt.expectedLevel, Logger.GetLevel())
		})
	}
}

func Test_Logger_Setup_ExplicitSettings(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		format        string
		expectedLevel log.Level
	}{
		{name: "json_info", level: "info", format: "json", expectedLevel: log.InfoLevel},
		{name: "logfmt_error", level: "error", format: "logfmt", expectedLevel: log.ErrorLevel},
		{name: "text_default", level: "", format: "pretty", expectedLevel: log.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Setup(tt.level, tt.format, "[test] ")
			require.NotNil(t, logger)
			assert.Same(t, Logger, logger)
			assert.Equal(t, tt.expectedLevel, logger.GetLevel())
		})
	}
}

func Test_Logger_GetLogger_SingletonBehavior(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")

	Logger = nil
	first := GetLogger()
	require.NotNil(t, first)
	assert.Same(t, first, GetLogger(), "subsequent GetLogger calls should return same instance")

	existing := log.New(os.Stderr)
	Logger = existing
	assert.Same(t, existing, GetLogger())
}

func Test_Logger_GetLogger_ConcurrentReaders(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	InitLogger()

	const numGoroutines = 10
	loggers := make([]*log.Logger, numGoroutines)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			<-start
			loggers[index] = GetLogger()
		}(i)
	}
	close(start)
	wg.Wait()

	for i, logger := range loggers {
		require.NotNil(t, logger, "logger %d should not be nil", i)
		assert.Equal(t, log.DebugLevel, logger.GetLevel())
	}
}

func Test_Logger_ContextHelpers_Functionality(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	Logger = nil
	InitLogger()

	tests := []struct {
		name   string
		helper func() *log.Logger
	}{
		{name: "with_component", helper: func() *log.Logger { return WithComponent("chunk-store") }},
		{name: "with_rover_id", helper: func() *log.Logger { return WithRoverID("550e8400-e29b-41d4-a716-446655440000") }},
		{name: "with_coords", helper: func() *log.Logger { return WithCoords(100, 200) }},
		{name: "with_chunk_coords", helper: func() *log.Logger { return WithChunkCoords(5, 10) }},
		{name: "with_duration", helper: func() *log.Logger { return WithDuration("a_star", 500*time.Millisecond) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := tt.helper()
			require.NotNil(t, logger)
			assert.NotSame(t, Logger, logger, "helper should return a derived logger")
			assert.NotPanics(t, func() { logger.Info("test log message") })
		})
	}
}

func Test_Logger_WithFields_WritesContext(t *testing.T) {
	var buf bytes.Buffer
	Logger = log.New(&buf)
	Logger.SetLevel(log.DebugLevel)
	Logger.SetFormatter(log.LogfmtFormatter)

	WithChunkCoords(3, -2).Info("chunk generated")

	out := buf.String()
	assert.Contains(t, out, "chunk generated")
	assert.Contains(t, out, "chunk_x=3")
	assert.Contains(t, out, "chunk_y=-2")
}

func Test_Logger_ParseLevel(t *testing.T) {
	assert.Equal(t, WarnLevel, ParseLevel("WARNING"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, DebugLevel, ParseLevel("verbose"))
}
