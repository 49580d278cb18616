package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songyears/internal/models"
	"github.com/desertthunder/songyears/internal/pager"
	"github.com/desertthunder/songyears/internal/server"
	"github.com/desertthunder/songyears/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = []string{"index", "login", "account"}

// ClientFunc returns a library client authorized with token. onRefresh receives every refreshed token and may be nil.
type ClientFunc func(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.LibraryService

// Options holds the dependencies of an [App].
type Options struct {
	Provider  server.OAuthProvider
	Client    ClientFunc
	Sessions  *Sessions
	Collector pager.Options
	Registry  *prometheus.Registry
	Logger    *log.Logger
}

// App is the songyears web application.
type App struct {
	router    *server.BasicRouter
	provider  server.OAuthProvider
	client    ClientFunc
	sessions  *Sessions
	collector pager.Options
	registry  *prometheus.Registry
	templates map[string]*template.Template
	logger    *log.Logger
}

// New builds the app and registers its routes.
//
// Pager metrics are registered on opts.Registry, which /metrics serves.
func New(opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	collector := opts.Collector
	if collector.Metrics == nil {
		collector.Metrics = pager.NewMetrics(opts.Registry)
	}
	if collector.Logger == nil {
		collector.Logger = opts.Logger.WithPrefix("pager")
	}

	app := &App{
		router:    server.NewBasicRouter(),
		provider:  opts.Provider,
		client:    opts.Client,
		sessions:  opts.Sessions,
		collector: collector,
		registry:  opts.Registry,
		templates: templates,
		logger:    opts.Logger,
	}
	app.routes()
	return app, nil
}

func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		templates[page] = tmpl
	}
	return templates, nil
}

func (a *App) routes() {
	a.router.Use(server.Recover(a.logger), server.Logging(a.logger))

	static, _ := fs.Sub(staticFS, "static")

	a.router.Handle(http.MethodGet, "/", http.HandlerFunc(a.handleHome))
	a.router.Handle(http.MethodGet, "/login", http.HandlerFunc(a.handleLogin))
	a.router.Handle(http.MethodGet, "/account", a.requireSession(a.handleAccount))
	a.router.Handle(http.MethodGet, "/logout", http.HandlerFunc(a.handleLogout))
	a.router.Handle(http.MethodGet, "/static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	a.router.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(a.handleHealth))

	oauth := server.NewOAuthHandler(a.provider, a.sessions, "/auth/spotify", a.logger.WithPrefix("oauth"))
	oauth.OnSuccess = a.handleLoginSuccess
	oauth.OnFailure = a.handleLoginFailure
	a.router.Handler(http.MethodGet, oauth)

	a.logger.Debug("routes registered", "patterns", a.router.Patterns())
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// requireSession redirects to /login unless the request carries a usable session, which it passes on.
func (a *App) requireSession(next func(http.ResponseWriter, *http.Request, *models.AuthenticatedSession)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := a.sessions.Auth(r)
		if !auth.Usable(timeNow()) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r, auth)
	})
}

// render executes a page template into a buffer so a template error still yields a clean 500.
func (a *App) render(w http.ResponseWriter, page string, data any) {
	var buf bytes.Buffer
	if err := a.templates[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		a.logger.Error("failed to render template", "page", page, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
