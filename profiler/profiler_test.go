package profiler

import (
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test that the profiler serves the pprof index and stops.
func TestStartAndStop(t *testing.T) {
	// Arrange
	profiler, err := Start("127.0.0.1", 0)
	require.NoError(t, err)

	// Act
	response, err := http.Get(fmt.Sprintf("http://%s/debug/pprof/", profiler.Addr()))
	require.NoError(t, err)
	response.Body.Close()
	profiler.Stop()

	// Assert
	require.Equal(t, http.StatusOK, response.StatusCode)
	_, err = http.Get(fmt.Sprintf("http://%s/debug/pprof/", profiler.Addr()))
	require.Error(t, err)
}

// Test that the profiler can't start on an occupied port.
func TestStartPortTaken(t *testing.T) {
	// Arrange
	first, err := Start("127.0.0.1", 0)
	require.NoError(t, err)
	defer first.Stop()

	// Act
	_, err = Start("127.0.0.1", first.listener.Addr().(*net.TCPAddr).Port)

	// Assert
	require.ErrorContains(t, err, "cannot listen for the profiler")
}
