package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSessionRepository implements [SessionRepository] on the sessions table.
type SQLiteSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteSessionRepository creates a new [SQLiteSessionRepository] with the given database connection
func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db, now: time.Now}
}

// Get retrieves a session by ID, excluding expired sessions
func (r *SQLiteSessionRepository) Get(id string) (*SessionRecord, error) {
	query := `
		SELECT id, data, expires_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	var (
		record SessionRecord
		data   string
	)

	err := r.db.QueryRow(query, id).Scan(&record.ID, &data, &record.ExpiresAt, &record.CreatedAt, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if record.Expired(r.now()) {
		return nil, notFound(id)
	}

	record.Data = []byte(data)
	return &record, nil
}

// Save upserts a session, keeping the original creation time
func (r *SQLiteSessionRepository) Save(record *SessionRecord) error {
	if record.ID == "" {
		return errors.New("session ID is required")
	}

	now := r.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := `
		INSERT INTO sessions (id, data, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, record.ID, string(record.Data), record.ExpiresAt.UTC(), record.CreatedAt.UTC(), record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Delete removes a session by ID
func (r *SQLiteSessionRepository) Delete(id string) error {
	if _, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns how many were removed
//
// Sessions stored with a zero expiry never expire and are kept.
func (r *SQLiteSessionRepository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec(
		"DELETE FROM sessions WHERE expires_at > ? AND expires_at <= ?",
		time.Time{}.UTC(), r.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}
