// Package testutil provides common testing utilities shared by the terrain,
// pathfinding, rover and API tests.
package testutil

import (
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/VoidMesh/pathfinder/internal/logging"
)

// TestConfig holds configuration for test setup
type TestConfig struct {
	// EnableLogCapture routes log output to t.Log instead of discarding it
	EnableLogCapture bool
}

// DefaultTestConfig returns a default test configuration suitable for most tests
func DefaultTestConfig() *TestConfig {
	return &TestConfig{
		EnableLogCapture: os.Getenv("TEST_LOG_CAPTURE") != "",
	}
}

// SetupTest initializes the test environment with the provided configuration.
//
// Usage:
//
//	func TestMyFunction(t *testing.T) {
//	    cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
//	    defer cleanup()
//	    // ... test code
//	}
func SetupTest(t *testing.T, config *TestConfig) func() {
	t.Helper()

	originalLogger := logging.Logger

	if config.EnableLogCapture {
		testLogger := log.New(testWriter{t: t})
		testLogger.SetLevel(log.DebugLevel)
		logging.Logger = testLogger
	} else {
		logging.Logger = log.New(io.Discard)
	}

	return func() {
		logging.Logger = originalLogger
	}
}

// SkipIfShort skips the test when running with -short
func SkipIfShort(t *testing.T, reason string) {
	t.Helper()
	if testing.Short() {
		t.Skip(reason)
	}
}

// testWriter adapts testing.T to implement io.Writer for log output
type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (n int, err error) {
	tw.t.Helper()
	tw.t.Log(string(p))
	return len(p), nil
}
