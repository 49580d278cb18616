package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/songyears/internal/repositories"
	"github.com/desertthunder/songyears/internal/server"
	"github.com/desertthunder/songyears/internal/services"
	"github.com/desertthunder/songyears/internal/shared"
	"github.com/desertthunder/songyears/internal/web"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// sessionSweepInterval is how often expired SQLite sessions are purged.
const sessionSweepInterval = 15 * time.Minute

// Serve runs the web app until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	app, repo, closeDB, err := r.buildApp(config)
	if err != nil {
		return err
	}
	defer closeDB()

	if sweeper, ok := repo.(*repositories.SQLiteSessionRepository); ok {
		go r.sweepSessions(ctx, sweeper, sessionSweepInterval)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.Server.Addr()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cmd.Bool("open") {
		go func() {
			time.Sleep(250 * time.Millisecond)
			if err := shared.OpenBrowser("http://" + addr); err != nil {
				r.logger.Warn("could not open browser", "error", err)
			}
		}()
	}

	return server.Serve(ctx, srv, r.logger)
}

// buildApp wires the web app from config. The returned func closes the session database, if one was opened.
func (r *Runner) buildApp(config *shared.Config) (*web.App, repositories.SessionRepository, func() error, error) {
	spotify, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), r.httpClient)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	var db *sql.DB
	closeDB := func() error {
		if db == nil {
			return nil
		}
		return db.Close()
	}

	repo, err := repositories.NewSessionRepository(config.Session, func() (*sql.DB, error) {
		db, err = r.openDatabase(config)
		return db, err
	})
	if err != nil {
		return nil, nil, nil, err
	}

	store := web.NewRepositoryStore(repo, sessions.Options{
		Path:     "/",
		MaxAge:   config.Session.MaxAge,
		Secure:   config.Session.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, []byte(config.Session.Secret))

	app, err := web.New(web.Options{
		Provider: spotify,
		Client: func(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) services.LibraryService {
			return spotify.Client(ctx, token, onRefresh)
		},
		Sessions:  web.NewSessions(store, config.Session.CookieName, shared.WithLogger(r.logger, "component", "sessions")),
		Collector: r.collectorOptions(config),
		Registry:  prometheus.NewRegistry(),
		Logger:    r.logger,
	})
	if err != nil {
		closeDB()
		return nil, nil, nil, fmt.Errorf("failed to create web app: %w", err)
	}

	return app, repo, closeDB, nil
}

// sweepSessions deletes expired sessions every interval until ctx is done.
func (r *Runner) sweepSessions(ctx context.Context, repo *repositories.SQLiteSessionRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired()
			if err != nil {
				r.logger.Warn("failed to sweep sessions", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Debug("swept expired sessions", "count", n)
			}
		}
	}
}
