package web

import (
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/songyears/internal/library"
	"github.com/desertthunder/songyears/internal/models"
	"golang.org/x/oauth2"
)

var timeNow = time.Now

// accountError is shown instead of the grouping when it cannot be built.
const accountError = "Error fetching liked songs"

type pageData struct {
	User *models.Identity
}

type accountData struct {
	User        *models.Identity
	Groups      []library.YearGroup
	Count       int
	SongsByYear template.JS
	Error       string
}

func (a *App) identity(r *http.Request) *models.Identity {
	if auth := a.sessions.Auth(r); auth != nil {
		return &auth.Identity
	}
	return nil
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	a.render(w, "index", pageData{User: a.identity(r)})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	a.render(w, "login", pageData{User: a.identity(r)})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Clear(w, r); err != nil {
		a.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleAccount collects the user's saved tracks and renders them grouped by release year.
//
// A token refreshed during the collection is written back to the session before the page is rendered.
func (a *App) handleAccount(w http.ResponseWriter, r *http.Request, auth *models.AuthenticatedSession) {
	var (
		mu        sync.Mutex
		refreshed *oauth2.Token
	)
	client := a.client(r.Context(), auth.Token(), func(token *oauth2.Token) {
		mu.Lock()
		refreshed = token
		mu.Unlock()
	})

	logger := a.logger.With("user", auth.Identity.ID)
	groups, report, err := library.SongsByYear(r.Context(), client, a.collector)

	if refreshed != nil {
		auth.UpdateToken(refreshed)
		if err := a.sessions.SetAuth(w, r, auth); err != nil {
			logger.Error("failed to store refreshed token", "error", err)
		}
	}

	data := accountData{User: &auth.Identity}
	if err != nil {
		logger.Error("failed to group liked songs", "error", err, "requests", report.Requests, "failures", report.Failures)
		data.Error = accountError
		a.render(w, "account", data)
		return
	}

	encoded, err := groups.MarshalJSON()
	if err != nil {
		logger.Error("failed to encode liked songs", "error", err)
		data.Error = accountError
		a.render(w, "account", data)
		return
	}

	logger.Info("grouped liked songs",
		"songs", groups.Count(),
		"years", groups.Len(),
		"requests", report.Requests,
		"failures", report.Failures,
		"duration", report.Duration,
	)

	data.Groups = groups.Groups()
	data.Count = groups.Count()
	data.SongsByYear = template.JS(encoded)
	a.render(w, "account", data)
}

// handleLoginSuccess fetches the profile for a freshly exchanged token and starts the session.
func (a *App) handleLoginSuccess(w http.ResponseWriter, r *http.Request, token *oauth2.Token) {
	user, err := a.client(r.Context(), token, nil).UserProfile(r.Context())
	if err != nil {
		a.handleLoginFailure(w, r, err)
		return
	}

	identity := models.Identity{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		ProfileURL:  user.ExternalURLs.Spotify,
	}
	if len(user.Images) > 0 {
		identity.ImageURL = user.Images[0].URL
	}

	if err := a.sessions.SetAuth(w, r, models.NewAuthenticatedSession(identity, token)); err != nil {
		a.handleLoginFailure(w, r, err)
		return
	}

	a.logger.Info("user logged in", "user", identity.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleLoginFailure(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.Warn("login failed", "error", err)
	http.Redirect(w, r, "/login", http.StatusFound)
}
