package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songyears/internal/shared"
)

// SessionRecord is one stored session.
type SessionRecord struct {
	ID        string
	Data      []byte
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r *SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// SessionRepository stores session records by ID.
type SessionRepository interface {
	// Get returns the record for id, or [shared.ErrSessionNotFound] when it is missing or expired.
	Get(id string) (*SessionRecord, error)

	// Save inserts the record or replaces the data and expiry of an existing one.
	Save(record *SessionRecord) error

	// Delete removes the record for id. Deleting a missing record is not an error.
	Delete(id string) error
}

// NewSessionRepository returns the backend named by the session config.
//
// openDB is only called for the sqlite store.
func NewSessionRepository(cfg shared.SessionConfig, openDB func() (*sql.DB, error)) (SessionRepository, error) {
	switch cfg.Store {
	case "memory":
		return NewMemorySessionRepository(cfg.MemorySize, time.Duration(cfg.MaxAge)*time.Second), nil
	case "sqlite", "":
		db, err := openDB()
		if err != nil {
			return nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return NewSQLiteSessionRepository(db), nil
	default:
		return nil, fmt.Errorf("%w: unknown session store %q", shared.ErrInvalidConfig, cfg.Store)
	}
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
}
