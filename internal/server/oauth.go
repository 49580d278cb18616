package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songyears/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthProvider is the part of an OAuth service the handler needs.
type OAuthProvider interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// StateStore keeps the pending CSRF state between the redirect and the callback.
type StateStore interface {
	// SaveState remembers state for the client making r.
	SaveState(w http.ResponseWriter, r *http.Request, state string) error

	// TakeState returns and forgets the pending state. An empty string means there is none.
	TakeState(w http.ResponseWriter, r *http.Request) (string, error)
}

// OAuthHandler runs the authorization code flow.
//
// The start route stores a fresh state and redirects to the provider. The callback route checks the returned
// state, exchanges the code and passes the token to OnSuccess. Any failure goes to OnFailure.
type OAuthHandler struct {
	provider     OAuthProvider
	states       StateStore
	startPath    string
	callbackPath string
	logger       *log.Logger

	OnSuccess func(w http.ResponseWriter, r *http.Request, token *oauth2.Token)
	OnFailure func(w http.ResponseWriter, r *http.Request, err error)
}

// NewOAuthHandler creates a handler serving startPath and startPath + "/callback".
func NewOAuthHandler(provider OAuthProvider, states StateStore, startPath string, logger *log.Logger) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		states:       states,
		startPath:    startPath,
		callbackPath: startPath + "/callback",
		logger:       logger,
		OnSuccess: func(w http.ResponseWriter, r *http.Request, _ *oauth2.Token) {
			http.Redirect(w, r, "/", http.StatusFound)
		},
		OnFailure: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
		},
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{h.startPath, h.callbackPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case h.startPath:
		h.start(w, r)
	case h.callbackPath:
		h.callback(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *OAuthHandler) start(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.states.SaveState(w, r, state); err != nil {
		h.fail(w, r, fmt.Errorf("failed to save state: %w", err))
		return
	}

	http.Redirect(w, r, h.provider.GetAuthURL(state), http.StatusFound)
}

func (h *OAuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	expected, err := h.states.TakeState(w, r)
	if err != nil {
		h.fail(w, r, fmt.Errorf("failed to read state: %w", err))
		return
	}
	if expected == "" || query.Get("state") != expected {
		h.fail(w, r, shared.ErrInvalidState)
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, r, fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.OnSuccess(w, r, token)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("oauth flow failed", "path", r.URL.Path, "error", err)
	h.OnFailure(w, r, err)
}
