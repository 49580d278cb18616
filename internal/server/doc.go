// Package server provides HTTP routing, middleware, and the OAuth authorization code flow for the web app.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] added first runs outermost. [Logging] and [Recover] are the stock middleware every route gets.
//
// [BasicRouter] registers "METHOD /path" patterns on an [http.ServeMux], so method mismatches get a 405 with
// an Allow header and unknown paths a 404 straight from the mux.
//
// # OAuth Handler
//
// [OAuthHandler] serves two routes. The start route generates a CSRF state, hands it to a [StateStore] and
// redirects to the provider's consent page. The callback route takes the state back out of the store (it can
// only be used once), compares it with the query, exchanges the code and calls OnSuccess with the token.
// A denied consent, a state mismatch or a failed exchange all end in OnFailure.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Serve] runs an [http.Server] until its context is cancelled and then drains in-flight requests for up to
// [ShutdownTimeout].
package server
