package web

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songyears/internal/models"
	"github.com/gorilla/sessions"
)

// Sessions reads and writes the values the app keeps per browser.
type Sessions struct {
	store  sessions.Store
	name   string
	logger *log.Logger
}

// NewSessions wraps store under the cookie name.
func NewSessions(store sessions.Store, name string, logger *log.Logger) *Sessions {
	return &Sessions{store: store, name: name, logger: logger}
}

// session returns the request's session. A broken cookie is logged and replaced by a fresh session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, s.name)
	if err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
	}
	return session
}

// Auth returns the logged-in user's session, or nil.
func (s *Sessions) Auth(r *http.Request) *models.AuthenticatedSession {
	auth, _ := s.session(r).Values[authKey].(*models.AuthenticatedSession)
	return auth
}

// SetAuth stores the logged-in user's session.
func (s *Sessions) SetAuth(w http.ResponseWriter, r *http.Request, auth *models.AuthenticatedSession) error {
	session := s.session(r)
	session.Values[authKey] = auth
	return session.Save(r, w)
}

// Clear deletes the session and its cookie.
func (s *Sessions) Clear(w http.ResponseWriter, r *http.Request) error {
	session := s.session(r)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// SaveState implements [server.StateStore].
func (s *Sessions) SaveState(w http.ResponseWriter, r *http.Request, state string) error {
	session := s.session(r)
	session.Values[stateKey] = state
	return session.Save(r, w)
}

// TakeState implements [server.StateStore].
func (s *Sessions) TakeState(w http.ResponseWriter, r *http.Request) (string, error) {
	session := s.session(r)
	state, _ := session.Values[stateKey].(string)
	if state == "" {
		return "", nil
	}

	delete(session.Values, stateKey)
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return state, nil
}
