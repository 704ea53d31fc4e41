package updates

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbops "github.com/Amiequan/meilisearch/server/database"
)

// Directory of the dump holding the update log.
const DumpDirectory = "updates"

// Processing status of an update.
type Status string

const (
	StatusEnqueued  Status = "enqueued"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// Single entry of the update log of an index.
type Update struct {
	ID          int64           `json:"updateId"`
	IndexUUID   uuid.UUID       `json:"-"`
	Status      Status          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Error       string          `json:"error,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	ProcessedAt *time.Time      `json:"processedAt,omitempty"`
}

// Line of the update dump.
type dumpEntry struct {
	UUID   uuid.UUID `json:"uuid"`
	Update *Update   `json:"update"`
}

// Gives access to the pending and applied updates.
type Handle interface {
	// Appends an update to the log of the index.
	Enqueue(ctx context.Context, indexUUID uuid.UUID, payload json.RawMessage) (*Update, error)
	// Returns the update by its identifier.
	Get(ctx context.Context, id int64) (*Update, error)
	// Returns the updates of the index ordered by identifier.
	List(ctx context.Context, indexUUID uuid.UUID) ([]*Update, error)
	// Marks the enqueued update as processed, or failed when processErr
	// is not nil.
	MarkProcessed(ctx context.Context, id int64, processErr error) (*Update, error)
	// Writes the updates of the specified indexes to the dump directory.
	Dump(ctx context.Context, uuids []uuid.UUID, dir string) error
}

// Returned when the update doesn't exist.
type UpdateNotFoundError struct {
	ID int64
}

// Returns the error message.
func (e *UpdateNotFoundError) Error() string {
	return fmt.Sprintf("update %d not found", e.ID)
}

// Returned when the update has been processed already.
type UpdateAlreadyProcessedError struct {
	ID     int64
	Status Status
}

// Returns the error message.
func (e *UpdateAlreadyProcessedError) Error() string {
	return fmt.Sprintf("update %d is already %s", e.ID, e.Status)
}

// Update log stored in the SQL database.
type sqlHandle struct {
	db *dbops.SQLDB
	// Returns the current time. Replaced in the tests.
	now func() time.Time
}

// Constructs the update log backed by the database.
func NewHandle(db *dbops.SQLDB) Handle {
	return &sqlHandle{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const selectColumns = `SELECT id, index_uuid, status, payload, error, enqueued_at, processed_at FROM updates`

// Appends the update. The payload must be a valid JSON document.
func (h *sqlHandle) Enqueue(ctx context.Context, indexUUID uuid.UUID, payload json.RawMessage) (*Update, error) {
	if len(payload) > 0 && !json.Valid(payload) {
		return nil, errors.New("update payload is not a valid JSON document")
	}

	enqueuedAt := h.now()
	result, err := h.db.ExecContext(ctx,
		`INSERT INTO updates (index_uuid, status, payload, enqueued_at) VALUES (?, ?, ?, ?)`,
		indexUUID.String(), string(StatusEnqueued), []byte(payload), enqueuedAt.UnixNano())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot enqueue the update for index %s", indexUUID)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get the update identifier")
	}

	log.WithFields(log.Fields{"index": indexUUID, "update": id}).Debug("Update enqueued")
	return &Update{
		ID:         id,
		IndexUUID:  indexUUID,
		Status:     StatusEnqueued,
		Payload:    payload,
		EnqueuedAt: time.Unix(0, enqueuedAt.UnixNano()).UTC(),
	}, nil
}

// Returns the update by its identifier.
func (h *sqlHandle) Get(ctx context.Context, id int64) (*Update, error) {
	row := h.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	update, err := scanUpdate(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, &UpdateNotFoundError{ID: id}
	case err != nil:
		return nil, errors.WithMessagef(err, "cannot get the update %d", id)
	}
	return update, nil
}

// Returns the updates of the index ordered by identifier.
func (h *sqlHandle) List(ctx context.Context, indexUUID uuid.UUID) ([]*Update, error) {
	return h.query(ctx, selectColumns+` WHERE index_uuid = ? ORDER BY id`, indexUUID.String())
}

// Marks the update as processed or failed. Only the enqueued updates may
// change their status.
func (h *sqlHandle) MarkProcessed(ctx context.Context, id int64, processErr error) (*Update, error) {
	update, err := h.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Status != StatusEnqueued {
		return nil, &UpdateAlreadyProcessedError{ID: id, Status: update.Status}
	}

	update.Status = StatusProcessed
	var errorText sql.NullString
	if processErr != nil {
		update.Status = StatusFailed
		update.Error = processErr.Error()
		errorText = sql.NullString{String: update.Error, Valid: true}
	}
	processedAt := time.Unix(0, h.now().UnixNano()).UTC()
	update.ProcessedAt = &processedAt

	result, err := h.db.ExecContext(ctx,
		`UPDATE updates SET status = ?, error = ?, processed_at = ? WHERE id = ? AND status = ?`,
		string(update.Status), errorText, processedAt.UnixNano(), id, string(StatusEnqueued))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot mark the update %d as processed", id)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		// Processed concurrently between the read and the write.
		return nil, &UpdateAlreadyProcessedError{ID: id, Status: StatusProcessed}
	}
	return update, nil
}

// Writes updates/data.jsonl with one line per update of the specified
// indexes. The lines are ordered by update identifier.
func (h *sqlHandle) Dump(ctx context.Context, uuids []uuid.UUID, dir string) error {
	target := filepath.Join(dir, DumpDirectory)
	if err := os.MkdirAll(target, 0o750); err != nil {
		return errors.Wrapf(err, "cannot create %s", target)
	}
	file, err := os.Create(filepath.Join(target, "data.jsonl"))
	if err != nil {
		return errors.Wrap(err, "cannot create the update dump file")
	}
	defer file.Close()

	var list []*Update
	if len(uuids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(uuids)), ",")
		args := make([]any, 0, len(uuids))
		for _, id := range uuids {
			args = append(args, id.String())
		}
		list, err = h.query(ctx, selectColumns+` WHERE index_uuid IN (`+placeholders+`) ORDER BY id`, args...)
		if err != nil {
			return err
		}
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, update := range list {
		if err := encoder.Encode(dumpEntry{UUID: update.IndexUUID, Update: update}); err != nil {
			return errors.Wrapf(err, "cannot write the update %d", update.ID)
		}
	}
	if err := writer.Flush(); err != nil {
		return errors.Wrap(err, "cannot flush the update dump file")
	}

	log.WithFields(log.Fields{
		"indexes": len(uuids),
		"updates": len(list),
	}).Info("Update log dumped")
	return errors.Wrap(file.Sync(), "cannot sync the update dump file")
}

// Runs the query and scans all returned updates.
func (h *sqlHandle) query(ctx context.Context, query string, args ...any) ([]*Update, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "cannot query the updates")
	}
	defer rows.Close()

	var list []*Update
	for rows.Next() {
		update, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, update)
	}
	return list, errors.Wrap(rows.Err(), "cannot iterate over the updates")
}

// Common interface of sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Converts the database row to the update.
func scanUpdate(row scanner) (*Update, error) {
	var (
		update      Update
		rawUUID     string
		status      string
		payload     []byte
		errorText   sql.NullString
		enqueuedAt  int64
		processedAt sql.NullInt64
	)
	err := row.Scan(&update.ID, &rawUUID, &status, &payload, &errorText, &enqueuedAt, &processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "cannot read the update row")
	}

	update.IndexUUID, err = uuid.Parse(rawUUID)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid index uuid %s in the update log", rawUUID)
	}
	update.Status = Status(status)
	if len(payload) > 0 {
		update.Payload = json.RawMessage(payload)
	}
	update.Error = errorText.String
	update.EnqueuedAt = time.Unix(0, enqueuedAt).UTC()
	if processedAt.Valid {
		t := time.Unix(0, processedAt.Int64).UTC()
		update.ProcessedAt = &t
	}
	return &update, nil
}
