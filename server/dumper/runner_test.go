package dumper

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	dbops "github.com/Amiequan/meilisearch/server/database"
	"github.com/Amiequan/meilisearch/server/dumps"
	"github.com/Amiequan/meilisearch/server/indexes"
	"github.com/Amiequan/meilisearch/server/updates"
)

// Resolver stub returning an error on dump.
type failingResolver struct {
	indexes.Resolver
}

func (r *failingResolver) Dump(ctx context.Context, dir string) ([]uuid.UUID, error) {
	return nil, errors.New("resolver is unavailable")
}

// Creates a task backed by a fresh database with a single index and a
// single update.
func newTestTask(t *testing.T) (dumps.DumpTask, uuid.UUID) {
	db, err := dbops.NewSQLiteDB(&dbops.DatabaseSettings{Path: filepath.Join(t.TempDir(), "data.ms")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	resolver := indexes.NewResolver(db)
	updateHandle := updates.NewHandle(db)
	indexUUID, err := resolver.Create(context.Background(), "movies")
	require.NoError(t, err)
	_, err = updateHandle.Enqueue(context.Background(), indexUUID, json.RawMessage(`[{"id":1}]`))
	require.NoError(t, err)

	return dumps.DumpTask{
		Path:         filepath.Join(t.TempDir(), "dumps"),
		UUIDResolver: resolver,
		UpdateHandle: updateHandle,
		UID:          "20210607-141512123",
		IndexDBSize:  1024,
		UpdateDBSize: 512,
	}, indexUUID
}

// Reads all files from the gzip tarball.
func readTarball(t *testing.T, path string) map[string]string {
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	gzipReader, err := gzip.NewReader(file)
	require.NoError(t, err)
	tarReader := tar.NewReader(gzipReader)

	content := make(map[string]string)
	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(tarReader)
		require.NoError(t, err)
		content[header.Name] = string(data)
	}
	return content
}

// Test that the dump archive contains the metadata, the index identities
// and the update log.
func TestRunCreatesDump(t *testing.T) {
	// Arrange
	task, indexUUID := newTestTask(t)
	runner := NewTaskRunner()
	runner.now = func() time.Time { return time.Date(2021, 6, 7, 14, 15, 12, 0, time.UTC) }

	// Act
	err := runner.Run(context.Background(), task)

	// Assert
	require.NoError(t, err)
	content := readTarball(t, filepath.Join(task.Path, "20210607-141512123.dump"))
	require.Contains(t, content, "index_uuids/")
	require.Contains(t, content, "updates/")
	require.JSONEq(t, `{
		"dbVersion": "V2",
		"indexDbSize": 1024,
		"updateDbSize": 512,
		"dumpDate": "2021-06-07T14:15:12Z"
	}`, content["metadata.json"])
	require.JSONEq(t,
		`{"uid":"movies","uuid":"`+indexUUID.String()+`"}`,
		strings.TrimSpace(content["index_uuids/data.jsonl"]))
	require.Contains(t, content["updates/data.jsonl"], indexUUID.String())

	// Only the dump file remains in the directory.
	entries, err := os.ReadDir(task.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "20210607-141512123.dump", entries[0].Name())
}

// Test that a failed step aborts the dump and leaves no files behind.
func TestRunStepFails(t *testing.T) {
	// Arrange
	task, _ := newTestTask(t)
	task.UUIDResolver = &failingResolver{}

	// Act
	err := NewTaskRunner().Run(context.Background(), task)

	// Assert
	require.ErrorContains(t, err, "dump step index_uuids failed")
	require.ErrorContains(t, err, "resolver is unavailable")
	entries, err := os.ReadDir(task.Path)
	require.NoError(t, err)
	require.Empty(t, entries)
}

// Test that the task without the update log fails.
func TestRunMissingUpdateHandle(t *testing.T) {
	// Arrange
	task, _ := newTestTask(t)
	task.UpdateHandle = nil

	// Act
	err := NewTaskRunner().Run(context.Background(), task)

	// Assert
	require.ErrorContains(t, err, "dump step updates failed")
	_, statErr := os.Stat(DumpFilePath(task.Path, task.UID))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

// Test that the steps after the failed one are not executed.
func TestExecuteStepsStopsOnError(t *testing.T) {
	// Arrange
	var executed []string
	record := func(name string, err error) step {
		return newBasicStep(name, func(ctx context.Context, dir string) error {
			executed = append(executed, name)
			return err
		})
	}
	steps := []step{
		record("first", nil),
		record("second", errors.New("boom")),
		record("third", nil),
	}

	// Act
	summary := executeSteps(context.Background(), steps, t.TempDir(), time.Now)

	// Assert
	require.Equal(t, []string{"first", "second"}, executed)
	require.Len(t, summary.Steps, 2)
	require.True(t, summary.Steps[0].IsSuccess())
	require.Equal(t, "second", summary.GetFailedStep().Name)
	require.EqualError(t, summary.Err(), "dump step second failed: boom")
}

// Test that no step is executed with a canceled context.
func TestExecuteStepsCanceled(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	executed := false
	steps := []step{newBasicStep("first", func(ctx context.Context, dir string) error {
		executed = true
		return nil
	})}

	// Act
	summary := executeSteps(ctx, steps, t.TempDir(), time.Now)

	// Assert
	require.False(t, executed)
	require.ErrorIs(t, summary.Err(), context.Canceled)
}

// Test that the successful summary has no error.
func TestSummaryWithoutErrors(t *testing.T) {
	summary := newExecutionSummary(time.Now())
	summary.Steps = append(summary.Steps, &executionSummaryStep{Name: "metadata"})
	require.Nil(t, summary.GetFailedStep())
	require.NoError(t, summary.Err())
}

// Test that the dump file path is built from the uid.
func TestDumpFilePath(t *testing.T) {
	require.Equal(t, filepath.Join("dumps", "20210607-141512123.dump"),
		DumpFilePath("dumps", "20210607-141512123"))
}
