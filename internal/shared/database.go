package shared

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens the SQLite database at the specified path and verifies the
// connection. The path can be ":memory:" for an in-memory database.
//
// A single writer is plenty here, the ledger sees one process at a time.
func NewDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrDatabase, path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging %s: %v", ErrDatabase, path, err)
	}

	db.SetMaxOpenConns(1)
	return db, nil
}
