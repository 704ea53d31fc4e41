package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// Runs the application with the arguments and returns its output.
func runApp(t *testing.T, args ...string) (string, error) {
	app := setupApp()
	var output bytes.Buffer
	app.Writer = &output
	app.ErrWriter = &output
	err := app.Run(append([]string{"meili-tool"}, args...))
	return output.String(), err
}

// Test that the create-dump command prints the accepted dump.
func TestCreateDumpCommand(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/dumps", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"uid":"20210607-141512123","status":"in_progress","startedAt":"2021-06-07T14:15:12.123Z"}`))
	}))
	defer server.Close()

	// Act
	output, err := runApp(t, "create-dump", "--url", server.URL)

	// Assert
	require.NoError(t, err)
	require.Contains(t, output, `"uid": "20210607-141512123"`)
	require.Contains(t, output, `"status": "in_progress"`)
}

// Test that the create-dump command waits for the dump and fails when the
// dump fails.
func TestCreateDumpCommandWaitFailed(t *testing.T) {
	// Arrange
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"uid":"foo","status":"in_progress","startedAt":"2021-06-07T14:15:12Z"}`))
			return
		}
		if polls.Add(1) < 2 {
			_, _ = w.Write([]byte(`{"uid":"foo","status":"in_progress","startedAt":"2021-06-07T14:15:12Z"}`))
			return
		}
		_, _ = w.Write([]byte(`{"uid":"foo","status":"failed","error":"disk full","startedAt":"2021-06-07T14:15:12Z","finishedAt":"2021-06-07T14:15:13Z"}`))
	}))
	defer server.Close()

	// Act
	output, err := runApp(t, "create-dump", "--wait", "--interval", "1ms", "--url", server.URL)

	// Assert
	require.ErrorContains(t, err, "dump foo failed: disk full")
	require.Contains(t, output, `"status": "failed"`)
	require.EqualValues(t, 2, polls.Load())
}

// Test that the conflict is reported as an error.
func TestCreateDumpCommandConflict(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"another dump is already in progress","code":"dump_already_processing"}`))
	}))
	defer server.Close()

	// Act
	_, err := runApp(t, "create-dump", "--url", server.URL)

	// Assert
	require.ErrorContains(t, err, "dump_already_processing")
}

// Test that the dump-status command prints the dump status.
func TestDumpStatusCommand(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dumps/foo/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uid":"foo","status":"done","startedAt":"2021-06-07T14:15:12Z","finishedAt":"2021-06-07T14:15:13Z"}`))
	}))
	defer server.Close()

	// Act
	output, err := runApp(t, "dump-status", "--url", server.URL, "foo")

	// Assert
	require.NoError(t, err)
	require.Contains(t, output, `"status": "done"`)
	require.Contains(t, output, `"finishedAt": "2021-06-07T14:15:13Z"`)
}

// Test that the dump-status command requires the uid.
func TestDumpStatusCommandMissingUID(t *testing.T) {
	_, err := runApp(t, "dump-status")
	require.ErrorContains(t, err, "expected exactly one argument")
}

// Test that the db-migrate command creates the schema.
func TestDBMigrateCommand(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "data.ms")

	// Act
	output, err := runApp(t, "db-migrate", "--db-path", path)

	// Assert
	require.NoError(t, err)
	require.Contains(t, output, "Database schema version: 2")
	require.FileExists(t, filepath.Join(path, "data.sqlite"))
}

// Test that the version is printed.
func TestVersion(t *testing.T) {
	output, err := runApp(t, "--version")
	require.NoError(t, err)
	require.Contains(t, output, "0.21.0")
}
