package dumps

import (
	"context"

	"github.com/Amiequan/meilisearch/server/indexes"
	"github.com/Amiequan/meilisearch/server/updates"
)

// Everything a task runner needs to produce a single dump.
type DumpTask struct {
	// Directory where the dump file is written.
	Path string
	// Resolver of the index identities.
	UUIDResolver indexes.Resolver
	// Accessor of the update log.
	UpdateHandle updates.Handle
	// Identifier of the dump.
	UID string
	// Configured maximum size of the index database in bytes.
	IndexDBSize uint64
	// Configured maximum size of the update database in bytes.
	UpdateDBSize uint64
}

// Produces the dump described by the task. It may take arbitrarily long
// and may panic; the actor contains the panic.
type TaskRunner interface {
	Run(ctx context.Context, task DumpTask) error
}
