// internal/httpserver/server.go
//
// HTTP server wiring for the wordduel backend.
// Responsibilities:
//   - Router + middleware (request IDs, access logs, CORS, timeouts, panic recovery).
//   - Public endpoints: "/", "/health", "/leaderboard", "/daily/*".
//   - Auth endpoints: /auth/signup, /auth/login, /auth/logout, /auth/me.
//   - Game endpoints (require auth): /games, /games/{id}, guesses, joins, /stats/me.
//   - Websocket endpoints (require auth): /games/{id}/events, /matchmaking.
//   - Mapping core errors to status codes and {"error","message"} bodies.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Identity is resolved once by auth middleware; handlers pass the player
//     id explicitly into the game core.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/matchmaking"
	"github.com/robalobadob/wordduel/internal/play"
	"github.com/robalobadob/wordduel/internal/realtime"
	"github.com/robalobadob/wordduel/internal/store"
)

// Deps are the services the server exposes.
type Deps struct {
	Store    store.Store
	Games    *play.Service
	Queue    *matchmaking.Queue
	Hub      *realtime.Hub
	Accounts *auth.Accounts
	Auth     *auth.Authenticator
}

// Options tune transport behavior.
type Options struct {
	ClientOrigin   string        // CORS + websocket origin (default http://localhost:5173)
	RequestTimeout time.Duration // plain HTTP handlers only (default 10s)
	Heartbeat      time.Duration // websocket ping interval (default 15s)
}

// Server bundles router and services.
type Server struct {
	r    *chi.Mux
	deps Deps
	opts Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps, o Options) *Server {
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.Heartbeat <= 0 {
		o.Heartbeat = 15 * time.Second
	}
	s := &Server{r: chi.NewRouter(), deps: d, opts: o}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger)) // request-scoped logger, read by log.Ctx
	s.r.Use(requestLogFields)
	s.r.Use(hlog.AccessHandler(accessLog))
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(cors(o.ClientOrigin))
	s.r.Use(d.Auth.Middleware)

	// Plain HTTP: JSON responses with a bounded handler time.
	s.r.Group(func(r chi.Router) {
		r.Use(s.plain)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"wordduel","endpoints":["/health","/auth/*","/games","/matchmaking","/leaderboard","/daily/leaderboard"]}`))
		})
		r.Get("/health", s.handleHealth)

		s.mountAuthRoutes(r)
		s.mountDaily(r)
		r.Get("/leaderboard", s.handleLeaderboard)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no route for " + r.URL.Path})
		})
	})

	// Game endpoints mix plain routes with the event websocket.
	s.mountGameRoutes(s.r)

	// Websockets are long-lived, so they skip the handler timeout.
	s.r.With(auth.Require).Get("/matchmaking", s.handleMatchmaking)

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// plain applies the handler timeout and JSON content type.
func (s *Server) plain(next http.Handler) http.Handler {
	return chimw.Timeout(s.opts.RequestTimeout)(jsonContentType(next))
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogFields tags the request logger with the chi request id.
func requestLogFields(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chimw.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func accessLog(r *http.Request, status, size int, d time.Duration) {
	ev := hlog.FromRequest(r).Debug()
	if status >= http.StatusInternalServerError {
		ev = hlog.FromRequest(r).Warn()
	}
	ev.Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
}

// originPatterns turns CLIENT_ORIGIN into websocket origin patterns.
func originPatterns(origin string) []string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// ------------------------------ helpers ------------------------------------

// errorBody is the shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Refetch bool   `json:"refetch,omitempty"`
}

var errBadJSON = errors.New("invalid JSON body")

// classify maps an error to status and code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, game.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrAlreadyActive):
		return http.StatusConflict, "already_active"
	case errors.Is(err, game.ErrWaitingForOpponent):
		return http.StatusConflict, "waiting_for_opponent"
	case errors.Is(err, game.ErrNotActive):
		return http.StatusConflict, "not_active"
	case errors.Is(err, game.ErrNotJoinable):
		return http.StatusConflict, "not_joinable"
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict, "username_taken"
	case errors.Is(err, game.ErrLengthMismatch):
		return http.StatusBadRequest, "length_mismatch"
	case errors.Is(err, game.ErrInvalidGuess):
		return http.StatusBadRequest, "invalid_guess"
	case errors.Is(err, game.ErrInvalidMode):
		return http.StatusBadRequest, "invalid_mode"
	case errors.Is(err, auth.ErrInvalidSignup):
		return http.StatusBadRequest, "invalid_signup"
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, game.ErrPersistence):
		return http.StatusInternalServerError, "persistence"
	}
	return http.StatusInternalServerError, "internal"
}

// errorFor builds the response body for err.
func errorFor(err error) (int, errorBody) {
	status, code := classify(err)
	body := errorBody{Error: code, Message: err.Error()}
	if status >= http.StatusInternalServerError {
		body.Message = "internal error"
		if game.IsPartial(err) {
			body.Message = "the request was partially applied; re-fetch the game"
			body.Refetch = true
		}
	}
	return status, body
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorFor(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a bounded JSON body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

// queryInt parses an optional positive int query parameter.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ------------------------------ health -------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ping(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("health: store ping failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
