package server

import (
	"net/http"
	"strings"
)

// BasicRouter implements [Router] on [http.ServeMux] method patterns.
//
// A GET route also answers HEAD; a request with any other method gets 405 with an Allow header from the mux.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	patterns    []string
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use adds [Middleware] to the stack, applied in the order it's added.
//
// Middleware only wraps routes registered after the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method and path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	pattern := strings.ToUpper(method) + " " + path
	r.mux.Handle(pattern, r.Apply(handler))
	r.patterns = append(r.patterns, pattern)
}

// Handler registers handler under method for every path in [Handler.Routes].
func (r *BasicRouter) Handler(method string, handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		pattern := strings.ToUpper(method) + " " + route
		r.mux.Handle(pattern, wrapped)
		r.patterns = append(r.patterns, pattern)
	}
}

// Patterns returns the registered "METHOD /path" patterns in registration order.
func (r *BasicRouter) Patterns() []string {
	return append([]string(nil), r.patterns...)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware, the first added outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}
