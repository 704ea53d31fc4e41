package dbops

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	// Registers the pure Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

// Name of the SQLite file created inside the database directory.
const DatabaseFileName = "data.sqlite"

// Alias to the standard SQL handle so the callers don't need to import
// database/sql just to pass the connection around.
type SQLDB = sql.DB

// Location of the embedded database.
type DatabaseSettings struct {
	Path string `long:"db-path" description:"The directory where the database files are stored" env:"MEILI_DB_PATH" default:"data.ms"`
}

// Returns the path to the SQLite file.
func (s *DatabaseSettings) FilePath() string {
	return filepath.Join(s.Path, DatabaseFileName)
}

// Pragmas applied to every new connection.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Opens the database, creating the directory if needed, and migrates the
// schema to the latest version. The caller is responsible for closing it.
func NewSQLiteDB(settings *DatabaseSettings) (*SQLDB, error) {
	if err := os.MkdirAll(settings.Path, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create the database directory %s", settings.Path)
	}

	db, err := sql.Open("sqlite", settings.FilePath())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open the database %s", settings.FilePath())
	}

	// SQLite supports a single writer. One connection serializes the
	// writes and keeps the transactions simple.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "cannot apply %s", pragma)
		}
	}

	oldVersion, newVersion, err := Migrate(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if oldVersion != newVersion {
		log.WithFields(log.Fields{
			"path": settings.FilePath(),
			"from": oldVersion,
			"to":   newVersion,
		}).Info("Database schema migrated")
	}
	return db, nil
}
