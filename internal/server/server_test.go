package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/songyears/internal/shared"
	"golang.org/x/oauth2"
)

type routesHandler struct {
	routes []string
	body   string
}

func (h *routesHandler) Routes() []string { return h.routes }

func (h *routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(h.body))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle filters by method", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("pong"))
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected 200 pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected HEAD to reach the GET route, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if allow := rec.Header().Get("Allow"); !strings.Contains(allow, http.MethodGet) {
			t.Errorf("expected Allow to list GET, got %q", allow)
		}
	})

	t.Run("Handler registers every route", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handler(http.MethodGet, &routesHandler{routes: []string{"/a", "/b"}, body: "hit"})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "hit" {
				t.Errorf("expected %s to be routed, got %q", path, rec.Body.String())
			}
		}

		if got := strings.Join(r.Patterns(), ","); got != "GET /a,GET /b" {
			t.Errorf("unexpected patterns %s", got)
		}
	})

	t.Run("unknown paths are 404", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/known", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging records status", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		out := buf.String()
		for _, want := range []string{"method=GET", "path=/teapot", "status=418", "bytes=15"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %q, got %s", want, out)
			}
		}
	})

	t.Run("Logging defaults to 200", func(t *testing.T) {
		var buf bytes.Buffer
		h := Logging(shared.NewLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if !strings.Contains(buf.String(), "status=200") {
			t.Errorf("expected status=200, got %s", buf.String())
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(shared.NewLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "handler panicked") {
			t.Errorf("expected panic to be logged, got %s", buf.String())
		}
	})
}

type mockProvider struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (m *mockProvider) GetAuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *mockProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	m.codes = append(m.codes, code)
	return m.token, m.err
}

// memoryStates holds a single pending state, like one browser's session
type memoryStates struct {
	state   string
	saveErr error
}

func (m *memoryStates) SaveState(_ http.ResponseWriter, _ *http.Request, state string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	return nil
}

func (m *memoryStates) TakeState(http.ResponseWriter, *http.Request) (string, error) {
	state := m.state
	m.state = ""
	return state, nil
}

func newTestOAuthHandler(provider *mockProvider, states *memoryStates) (*OAuthHandler, *[]error, **oauth2.Token) {
	h := NewOAuthHandler(provider, states, "/auth/spotify", shared.NewLogger(&bytes.Buffer{}))

	var failures []error
	var got *oauth2.Token
	h.OnFailure = func(w http.ResponseWriter, r *http.Request, err error) {
		failures = append(failures, err)
		http.Redirect(w, r, "/login", http.StatusFound)
	}
	h.OnSuccess = func(w http.ResponseWriter, r *http.Request, token *oauth2.Token) {
		got = token
		http.Redirect(w, r, "/", http.StatusFound)
	}
	return h, &failures, &got
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		h := NewOAuthHandler(&mockProvider{}, &memoryStates{}, "/auth/spotify", shared.NewLogger(&bytes.Buffer{}))
		routes := h.Routes()
		if len(routes) != 2 || routes[0] != "/auth/spotify" || routes[1] != "/auth/spotify/callback" {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("start stores state and redirects", func(t *testing.T) {
		states := &memoryStates{}
		h, _, _ := newTestOAuthHandler(&mockProvider{}, states)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}
		if len(states.state) != 32 {
			t.Errorf("expected a 32 character state, got %q", states.state)
		}
		location, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("invalid redirect: %v", err)
		}
		if location.Query().Get("state") != states.state {
			t.Errorf("expected redirect to carry the stored state, got %s", location)
		}
	})

	t.Run("start fails when state cannot be saved", func(t *testing.T) {
		states := &memoryStates{saveErr: errors.New("cookie jar full")}
		h, failures, _ := newTestOAuthHandler(&mockProvider{}, states)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify", nil))

		if len(*failures) != 1 || rec.Header().Get("Location") != "/login" {
			t.Errorf("expected failure redirect, got %v %s", *failures, rec.Header().Get("Location"))
		}
	})

	t.Run("callback exchanges code", func(t *testing.T) {
		provider := &mockProvider{token: &oauth2.Token{AccessToken: "access"}}
		states := &memoryStates{state: "expected"}
		h, failures, got := newTestOAuthHandler(provider, states)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=expected&code=abc", nil))

		if len(*failures) != 0 {
			t.Fatalf("expected no failures, got %v", *failures)
		}
		if *got == nil || (*got).AccessToken != "access" {
			t.Errorf("expected token to reach OnSuccess, got %v", *got)
		}
		if len(provider.codes) != 1 || provider.codes[0] != "abc" {
			t.Errorf("expected code abc to be exchanged, got %v", provider.codes)
		}
		if states.state != "" {
			t.Error("expected state to be consumed")
		}
	})

	t.Run("callback failures", func(t *testing.T) {
		tc := []struct {
			name    string
			stored  string
			query   string
			exchErr error
			wantErr error
		}{
			{name: "state mismatch", stored: "expected", query: "state=other&code=abc", wantErr: shared.ErrInvalidState},
			{name: "no pending state", stored: "", query: "state=&code=abc", wantErr: shared.ErrInvalidState},
			{name: "consent denied", stored: "expected", query: "state=expected&error=access_denied", wantErr: shared.ErrAuthFailed},
			{name: "exchange fails", stored: "expected", query: "state=expected&code=abc", exchErr: shared.ErrAuthFailed, wantErr: shared.ErrAuthFailed},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				provider := &mockProvider{err: tt.exchErr}
				h, failures, got := newTestOAuthHandler(provider, &memoryStates{state: tt.stored})

				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?"+tt.query, nil))

				if len(*failures) != 1 || !errors.Is((*failures)[0], tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, *failures)
				}
				if *got != nil {
					t.Error("expected OnSuccess not to run")
				}
				if rec.Header().Get("Location") != "/login" {
					t.Errorf("expected redirect to /login, got %q", rec.Header().Get("Location"))
				}
			})
		}
	})

	t.Run("replayed callback is rejected", func(t *testing.T) {
		provider := &mockProvider{token: &oauth2.Token{AccessToken: "access"}}
		h, failures, _ := newTestOAuthHandler(provider, &memoryStates{state: "expected"})

		for range 2 {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=expected&code=abc", nil))
		}

		if len(provider.codes) != 1 {
			t.Errorf("expected one exchange, got %d", len(provider.codes))
		}
		if len(*failures) != 1 || !errors.Is((*failures)[0], shared.ErrInvalidState) {
			t.Errorf("expected replay to fail state validation, got %v", *failures)
		}
	})

	t.Run("rejects other methods", func(t *testing.T) {
		h, _, _ := newTestOAuthHandler(&mockProvider{}, &memoryStates{})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/spotify", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("default failure", func(t *testing.T) {
		h := NewOAuthHandler(&mockProvider{}, &memoryStates{}, "/auth/spotify", shared.NewLogger(&bytes.Buffer{}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify/callback?state=x", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestServe(t *testing.T) {
	t.Run("stops when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

		done := make(chan error, 1)
		go func() { done <- Serve(ctx, srv, shared.NewLogger(&bytes.Buffer{})) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(ShutdownTimeout):
			t.Fatal("server did not shut down")
		}
	})

	t.Run("reports listen errors", func(t *testing.T) {
		srv := &http.Server{Addr: "127.0.0.1:-1"}
		err := Serve(context.Background(), srv, shared.NewLogger(&bytes.Buffer{}))
		if err == nil {
			t.Error("expected an error for an invalid address")
		}
	})
}
