package dumper

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	meilisearch "github.com/Amiequan/meilisearch"
	"github.com/Amiequan/meilisearch/server/dumps"
)

// Name of the metadata file in the dump root.
const MetadataFileName = "metadata.json"

// Single stage of the dump production. The steps write into the common
// working directory.
type step interface {
	Name() string
	Execute(ctx context.Context, dir string) error
}

// Step built from a name and a function.
type basicStep struct {
	name    string
	execute func(ctx context.Context, dir string) error
}

// Constructs a new step.
func newBasicStep(name string, execute func(ctx context.Context, dir string) error) *basicStep {
	return &basicStep{name: name, execute: execute}
}

// Returns the step name.
func (s *basicStep) Name() string {
	return s.name
}

// Runs the step.
func (s *basicStep) Execute(ctx context.Context, dir string) error {
	return s.execute(ctx, dir)
}

// Content of the metadata file.
type Metadata struct {
	DBVersion    string    `json:"dbVersion"`
	IndexDBSize  uint64    `json:"indexDbSize"`
	UpdateDBSize uint64    `json:"updateDbSize"`
	DumpDate     time.Time `json:"dumpDate"`
}

// Steps producing the dump content for the task, in execution order.
func newDumpSteps(task dumps.DumpTask, now time.Time) []step {
	// Filled by the index step and consumed by the update step.
	var indexUUIDs []uuid.UUID

	return []step{
		newBasicStep("metadata", func(ctx context.Context, dir string) error {
			return writeMetadata(dir, &Metadata{
				DBVersion:    meilisearch.DumpDBVersion,
				IndexDBSize:  task.IndexDBSize,
				UpdateDBSize: task.UpdateDBSize,
				DumpDate:     now,
			})
		}),
		newBasicStep("index_uuids", func(ctx context.Context, dir string) (err error) {
			if task.UUIDResolver == nil {
				return errors.New("index resolver is not configured")
			}
			indexUUIDs, err = task.UUIDResolver.Dump(ctx, dir)
			return err
		}),
		newBasicStep("updates", func(ctx context.Context, dir string) error {
			if task.UpdateHandle == nil {
				return errors.New("update log is not configured")
			}
			return task.UpdateHandle.Dump(ctx, indexUUIDs, dir)
		}),
	}
}

// Writes the metadata file to the directory.
func writeMetadata(dir string, metadata *Metadata) error {
	data, err := json.MarshalIndent(metadata, "", "    ")
	if err != nil {
		return errors.Wrap(err, "cannot serialize the dump metadata")
	}
	path := filepath.Join(dir, MetadataFileName)
	return errors.Wrapf(os.WriteFile(path, data, 0o600), "cannot write %s", path)
}
