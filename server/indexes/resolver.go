package indexes

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbops "github.com/Amiequan/meilisearch/server/database"
)

// Directory of the dump holding the index identities.
const DumpDirectory = "index_uuids"

// Allowed index names: ASCII alphanumeric characters, hyphens and
// underscores.
var indexNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,400}$`)

// Association of the public index name with its internal identifier. The
// JSON form is the line format of the dump.
type IndexUUID struct {
	Name string    `json:"uid"`
	UUID uuid.UUID `json:"uuid"`
}

// Resolves the public index names to the internal identifiers.
type Resolver interface {
	// Creates a new identifier for the index.
	Create(ctx context.Context, name string) (uuid.UUID, error)
	// Returns the identifier of the index.
	Get(ctx context.Context, name string) (uuid.UUID, error)
	// Returns all known indexes ordered by name.
	List(ctx context.Context) ([]IndexUUID, error)
	// Writes the identities to the dump directory and returns the
	// identifiers of the dumped indexes.
	Dump(ctx context.Context, dir string) ([]uuid.UUID, error)
}

// Returned when the index name doesn't exist.
type IndexNotFoundError struct {
	Name string
}

// Returns the error message.
func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index %s not found", e.Name)
}

// Returned when creating an index with a name that is already taken.
type IndexAlreadyExistsError struct {
	Name string
}

// Returns the error message.
func (e *IndexAlreadyExistsError) Error() string {
	return fmt.Sprintf("index %s already exists", e.Name)
}

// Returned when the index name contains forbidden characters.
type InvalidIndexNameError struct {
	Name string
}

// Returns the error message.
func (e *InvalidIndexNameError) Error() string {
	return fmt.Sprintf("index name %q is invalid; only alphanumeric characters, hyphens and underscores are allowed", e.Name)
}

// Resolver stored in the SQL database.
type sqlResolver struct {
	db *dbops.SQLDB
}

// Constructs a resolver backed by the database.
func NewResolver(db *dbops.SQLDB) Resolver {
	return &sqlResolver{db: db}
}

// Creates a new random identifier for the index. The name must be unique.
func (r *sqlResolver) Create(ctx context.Context, name string) (uuid.UUID, error) {
	if !indexNamePattern.MatchString(name) {
		return uuid.Nil, &InvalidIndexNameError{Name: name}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "cannot start the transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT uuid FROM index_uuids WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil:
		return uuid.Nil, &IndexAlreadyExistsError{Name: name}
	case !errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, errors.Wrapf(err, "cannot check the index %s", name)
	}

	id := uuid.New()
	_, err = tx.ExecContext(ctx, `INSERT INTO index_uuids (name, uuid, created_at) VALUES (?, ?, ?)`,
		name, id.String(), time.Now().UTC().UnixNano())
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "cannot insert the index %s", name)
	}
	if err = tx.Commit(); err != nil {
		return uuid.Nil, errors.Wrap(err, "cannot commit the index creation")
	}

	log.WithFields(log.Fields{"index": name, "uuid": id}).Info("Index created")
	return id, nil
}

// Returns the identifier of the index.
func (r *sqlResolver) Get(ctx context.Context, name string) (uuid.UUID, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT uuid FROM index_uuids WHERE name = ?`, name).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return uuid.Nil, &IndexNotFoundError{Name: name}
	case err != nil:
		return uuid.Nil, errors.Wrapf(err, "cannot get the index %s", name)
	}
	return parseUUID(raw)
}

// Returns all indexes ordered by name.
func (r *sqlResolver) List(ctx context.Context) ([]IndexUUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, uuid FROM index_uuids ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list the indexes")
	}
	defer rows.Close()

	var list []IndexUUID
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, errors.Wrap(err, "cannot read the index row")
		}
		id, err := parseUUID(raw)
		if err != nil {
			return nil, err
		}
		list = append(list, IndexUUID{Name: name, UUID: id})
	}
	return list, errors.Wrap(rows.Err(), "cannot iterate over the indexes")
}

// Writes one JSON line per index to index_uuids/data.jsonl in the dump
// directory.
func (r *sqlResolver) Dump(ctx context.Context, dir string) ([]uuid.UUID, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(dir, DumpDirectory)
	if err := os.MkdirAll(target, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", target)
	}
	file, err := os.Create(filepath.Join(target, "data.jsonl"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create the index dump file")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	uuids := make([]uuid.UUID, 0, len(list))
	for _, entry := range list {
		if err := encoder.Encode(entry); err != nil {
			return nil, errors.Wrapf(err, "cannot write the index %s", entry.Name)
		}
		uuids = append(uuids, entry.UUID)
	}
	if err := writer.Flush(); err != nil {
		return nil, errors.Wrap(err, "cannot flush the index dump file")
	}
	return uuids, errors.Wrap(file.Sync(), "cannot sync the index dump file")
}

// Parses the identifier stored in the database.
func parseUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	return id, errors.Wrapf(err, "invalid index uuid %s in the database", raw)
}
