package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// sessionDSNParams makes concurrent session writes wait on the lock instead of failing with SQLITE_BUSY.
const sessionDSNParams = "_busy_timeout=5000&_journal_mode=WAL"

// NewDatabase opens and pings the SQLite session database at path.
//
// ":memory:" gives a private in-memory database pinned to a single connection, since each
// connection to ":memory:" would otherwise see its own empty database.
func NewDatabase(path string) (*sql.DB, error) {
	memory := path == ":memory:"

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?" + sessionDSNParams
}

// ConfigureDatabase sets connection pool limits.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
