package dumper

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Amiequan/meilisearch/server/dumps"
	meiliutil "github.com/Amiequan/meilisearch/util"
)

// Extension of the dump files.
const DumpFileExtension = ".dump"

// Produces the dumps as gzip-compressed tarballs named <uid>.dump in the
// dump directory.
type TaskRunner struct {
	// Returns the current time. Replaced in the tests.
	now func() time.Time
}

var _ dumps.TaskRunner = (*TaskRunner)(nil)

// Constructs the default task runner.
func NewTaskRunner() *TaskRunner {
	return &TaskRunner{
		now: meiliutil.UTCNow,
	}
}

// Returns the path of the dump file with the given uid.
func DumpFilePath(dir, uid string) string {
	return filepath.Join(dir, uid+DumpFileExtension)
}

// Creates the dump. The content is built in a temporary directory inside
// the dump directory and then packed. Nothing is left behind on failure.
func (r *TaskRunner) Run(ctx context.Context, task dumps.DumpTask) error {
	if err := os.MkdirAll(task.Path, 0o750); err != nil {
		return errors.Wrapf(err, "cannot create the dump directory %s", task.Path)
	}

	workDir, err := os.MkdirTemp(task.Path, ".tmp-"+task.UID+"-*")
	if err != nil {
		return errors.Wrap(err, "cannot create the dump working directory")
	}
	defer os.RemoveAll(workDir)

	logger := log.WithField("uid", task.UID)
	logger.Info("Performing dump")

	summary := executeSteps(ctx, newDumpSteps(task, r.now()), workDir, r.now)
	summary.Log(task.UID)
	if err := summary.Err(); err != nil {
		return err
	}

	target := DumpFilePath(task.Path, task.UID)
	if err := packDirectory(workDir, target); err != nil {
		return err
	}
	logger.WithField("path", target).Info("Dump written")
	return nil
}

// Executes the steps in order. The execution stops on the first failed
// step.
func executeSteps(ctx context.Context, steps []step, dir string, now func() time.Time) *executionSummary {
	summary := newExecutionSummary(now())
	for _, step := range steps {
		started := time.Now()
		err := ctx.Err()
		if err == nil {
			err = step.Execute(ctx, dir)
		}
		summary.Steps = append(summary.Steps, &executionSummaryStep{
			Name:     step.Name(),
			Error:    err,
			Duration: time.Since(started),
		})
		if err != nil {
			break
		}
	}
	return summary
}

// Packs the directory into a tarball at the target path. The archive is
// written under a temporary name and renamed once complete.
func packDirectory(dir, target string) error {
	file, err := meiliutil.NewSelfDestructTempFile(filepath.Dir(target), ".dump-*.tmp")
	if err != nil {
		return err
	}
	defer file.Close()

	buffer := bufio.NewWriter(file)
	tarball := meiliutil.NewTarballWriter(buffer)
	if err := tarball.AddDirectory(dir); err != nil {
		tarball.Close()
		return errors.WithMessage(err, "cannot pack the dump")
	}
	if err := tarball.Close(); err != nil {
		return err
	}
	if err := buffer.Flush(); err != nil {
		return errors.Wrap(err, "cannot flush the dump archive")
	}
	return file.Keep(target)
}
