package repositories

import (
	"errors"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemorySize = 1024

// MemorySessionRepository implements [SessionRepository] on an expiring LRU.
//
// The LRU evicts the least recently used session once size is reached and drops every entry after ttl;
// a record's own ExpiresAt is checked on top of that.
type MemorySessionRepository struct {
	cache *expirable.LRU[string, SessionRecord]
	now   func() time.Time
}

// NewMemorySessionRepository creates a repository holding at most size sessions, each for at most ttl.
//
// A zero ttl keeps entries until they are evicted or expire on their own.
func NewMemorySessionRepository(size int, ttl time.Duration) *MemorySessionRepository {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &MemorySessionRepository{
		cache: expirable.NewLRU[string, SessionRecord](size, nil, ttl),
		now:   time.Now,
	}
}

func (r *MemorySessionRepository) Get(id string) (*SessionRecord, error) {
	record, ok := r.cache.Get(id)
	if !ok {
		return nil, notFound(id)
	}
	if record.Expired(r.now()) {
		r.cache.Remove(id)
		return nil, notFound(id)
	}

	record.Data = slices.Clone(record.Data)
	return &record, nil
}

func (r *MemorySessionRepository) Save(record *SessionRecord) error {
	if record.ID == "" {
		return errors.New("session ID is required")
	}

	now := r.now().UTC()
	if existing, ok := r.cache.Peek(record.ID); ok {
		record.CreatedAt = existing.CreatedAt
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	stored := *record
	stored.Data = slices.Clone(record.Data)
	r.cache.Add(record.ID, stored)
	return nil
}

func (r *MemorySessionRepository) Delete(id string) error {
	r.cache.Remove(id)
	return nil
}

// Len returns the number of cached sessions, including ones that have expired but not yet been swept.
func (r *MemorySessionRepository) Len() int {
	return r.cache.Len()
}
