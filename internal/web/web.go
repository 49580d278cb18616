// Package web implements the server-rendered songyears application.
//
// # Routes
//
//	GET  /                      → home page, greets the logged-in user
//	GET  /login                 → login page
//	GET  /account               → liked songs grouped by release year (requires a session)
//	GET  /auth/spotify          → OAuth initiation (show_dialog=true)
//	GET  /auth/spotify/callback → OAuth completion, starts the session
//	GET  /logout                → ends the session
//	GET  /static/               → embedded assets
//	GET  /metrics               → Prometheus exposition of the app registry
//	GET  /healthz               → liveness
//
// # Sessions
//
// [RepositoryStore] implements the gorilla [sessions.Store] interface on top of a
// [repositories.SessionRepository]. The cookie carries only a securecookie-signed session ID; the values (the
// pending OAuth state and the [models.AuthenticatedSession]) are stored as JSON in SQLite or in an in-memory LRU.
//
// [Sessions] is the typed view handlers use. The account handler receives the session explicitly from
// requireSession rather than through the request context.
//
// # Account Page
//
// The account handler runs [library.SongsByYear] with the user's token. Page failures only shrink the result;
// a grouping error is logged and rendered as "Error fetching liked songs". When the OAuth client refreshes the
// access token during the collection, the new token is saved to the session before the page is written.
//
// The template receives the ordered groups plus their JSON encoding, embedded as application/json for scripts.
//
// # Testing Strategy
//
// Use httptest with a fake library client and the in-memory session backend; the Spotify client itself is
// exercised end to end through httpmock.
package web
