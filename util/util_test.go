package meiliutil

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Test that the current time is returned in UTC.
func TestUTCNow(t *testing.T) {
	now := UTCNow()
	require.Equal(t, time.UTC, now.Location())
	require.WithinDuration(t, time.Now(), now, time.Second)
}

// Test that the logging level names are recognized.
func TestParseLogLevel(t *testing.T) {
	require.Equal(t, log.DebugLevel, parseLogLevel("DEBUG"))
	require.Equal(t, log.DebugLevel, parseLogLevel("debug"))
	require.Equal(t, log.InfoLevel, parseLogLevel("INFO"))
	require.Equal(t, log.WarnLevel, parseLogLevel("WARN"))
	require.Equal(t, log.WarnLevel, parseLogLevel(" warning "))
	require.Equal(t, log.ErrorLevel, parseLogLevel("ERROR"))
}

// Test that the unknown logging level falls back to INFO.
func TestParseLogLevelUnknown(t *testing.T) {
	require.Equal(t, log.InfoLevel, parseLogLevel(""))
	require.Equal(t, log.InfoLevel, parseLogLevel("TRACE-ALL"))
}

// Test that the logging setup honors the environment variable.
func TestSetupLoggingLevelFromEnvironment(t *testing.T) {
	// Arrange
	previous := log.GetLevel()
	defer log.SetLevel(previous)
	t.Setenv(LogLevelEnvironmentVariable, "ERROR")

	// Act
	SetupLogging()

	// Assert
	require.Equal(t, log.ErrorLevel, log.GetLevel())
}

// Test that the URL is composed from the host and port.
func TestHostWithPortURL(t *testing.T) {
	require.Equal(t, "http://localhost:7700", HostWithPortURL("localhost", 7700))
}
