package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/songyears/internal/models"
	"github.com/desertthunder/songyears/internal/repositories"
	"github.com/desertthunder/songyears/internal/shared"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	authKey  = "auth"
	stateKey = "oauth_state"
)

// sessionData is the persisted form of a session's values.
type sessionData struct {
	Auth  *models.AuthenticatedSession `json:"auth,omitempty"`
	State string                       `json:"oauth_state,omitempty"`
}

// RepositoryStore is a [sessions.Store] that keeps session values in a [repositories.SessionRepository].
//
// The cookie only carries the signed session ID.
type RepositoryStore struct {
	Codecs  []securecookie.Codec
	Options *sessions.Options

	repo repositories.SessionRepository
	now  func() time.Time
}

// NewRepositoryStore returns a store signing session IDs with keyPairs.
//
// See [securecookie.CodecsFromPairs] for the key pair layout.
func NewRepositoryStore(repo repositories.SessionRepository, opts sessions.Options, keyPairs ...[]byte) *RepositoryStore {
	s := &RepositoryStore{
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: &opts,
		repo:    repo,
		now:     time.Now,
	}
	s.MaxAge(opts.MaxAge)
	return s
}

// MaxAge sets the maximum age of the session cookie and of the signature inside it.
func (s *RepositoryStore) MaxAge(age int) {
	s.Options.MaxAge = age
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

// Get returns the session for name, cached for the life of the request.
func (s *RepositoryStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session named by the request cookie, or starts a new one.
//
// A cookie with a bad signature or pointing at a missing record yields a fresh session; only a bad signature is
// reported as an error.
func (s *RepositoryStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.Codecs...); err != nil {
		return session, fmt.Errorf("invalid session cookie: %w", err)
	}

	record, err := s.repo.Get(id)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return session, nil
	}
	if err != nil {
		return session, err
	}

	var data sessionData
	if err := json.Unmarshal(record.Data, &data); err != nil {
		return session, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	session.ID = id
	session.IsNew = false
	if data.Auth != nil {
		session.Values[authKey] = data.Auth
	}
	if data.State != "" {
		session.Values[stateKey] = data.State
	}
	return session, nil
}

// Save persists the session and writes the signed ID cookie.
//
// A negative MaxAge deletes the record and expires the cookie.
func (s *RepositoryStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.repo.Delete(session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = shared.GenerateID()
	}

	var data sessionData
	if auth, ok := session.Values[authKey].(*models.AuthenticatedSession); ok {
		data.Auth = auth
	}
	if state, ok := session.Values[stateKey].(string); ok {
		data.State = state
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	record := &repositories.SessionRecord{ID: session.ID, Data: encoded}
	if session.Options.MaxAge > 0 {
		record.ExpiresAt = s.now().Add(time.Duration(session.Options.MaxAge) * time.Second)
	}
	if err := s.repo.Save(record); err != nil {
		return err
	}

	cookie, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), cookie, session.Options))
	return nil
}
