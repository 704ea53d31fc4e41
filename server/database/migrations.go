package dbops

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Single step of the schema evolution. The statements run in one
// transaction together with the version bump.
type migration struct {
	version     int64
	description string
	statements  []string
}

// Ordered list of the schema migrations. New migrations are appended with
// the next version number; existing ones must never change.
var migrations = []migration{
	{
		version:     1,
		description: "index uuids",
		statements: []string{
			`CREATE TABLE index_uuids (
				name TEXT PRIMARY KEY,
				uuid TEXT NOT NULL UNIQUE,
				created_at INTEGER NOT NULL
			)`,
		},
	},
	{
		version:     2,
		description: "update log",
		statements: []string{
			`CREATE TABLE updates (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				index_uuid TEXT NOT NULL REFERENCES index_uuids (uuid) ON DELETE CASCADE,
				status TEXT NOT NULL,
				payload BLOB,
				error TEXT,
				enqueued_at INTEGER NOT NULL,
				processed_at INTEGER
			)`,
			`CREATE INDEX updates_index_uuid_idx ON updates (index_uuid)`,
		},
	},
}

// Returns the latest known schema version.
func LatestVersion() int64 {
	return migrations[len(migrations)-1].version
}

// Returns the current schema version. A database without the versioning
// table has version 0.
func CurrentVersion(db *SQLDB) (int64, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, errors.Wrap(err, "cannot create the schema version table")
	}

	var version int64
	err := db.QueryRow(`SELECT version FROM schema_version`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, errors.Wrap(err, "cannot read the schema version")
	}
	return version, nil
}

// Applies all migrations newer than the current version. Returns the old
// and the new schema version.
func Migrate(db *SQLDB) (oldVersion, newVersion int64, err error) {
	oldVersion, err = CurrentVersion(db)
	if err != nil {
		return 0, 0, err
	}
	if oldVersion > LatestVersion() {
		return oldVersion, oldVersion, errors.Errorf("database schema version %d is newer than the supported version %d",
			oldVersion, LatestVersion())
	}

	newVersion = oldVersion
	for _, m := range migrations {
		if m.version <= newVersion {
			continue
		}
		if err = applyMigration(db, m); err != nil {
			return oldVersion, newVersion, err
		}
		newVersion = m.version
	}
	return oldVersion, newVersion, nil
}

// Runs the statements of a single migration and records the new version.
func applyMigration(db *SQLDB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return errors.Wrapf(err, "cannot start the transaction for migration %d", m.version)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, statement := range m.statements {
		if _, err := tx.Exec(statement); err != nil {
			return errors.Wrapf(err, "migration %d (%s) failed", m.version, m.description)
		}
	}
	if _, err := tx.Exec(`DELETE FROM schema_version`); err != nil {
		return errors.Wrap(err, "cannot reset the schema version")
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return errors.Wrap(err, "cannot store the schema version")
	}
	return errors.Wrapf(tx.Commit(), "cannot commit migration %d", m.version)
}
