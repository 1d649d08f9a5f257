package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/wordduel/internal/auth"
)

// credentials is the payload for signup/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userRes struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token,omitempty"`
}

// mountAuthRoutes registers /auth/* and /stats/me.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.With(auth.Require).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := auth.PlayerFromContext(r.Context())
		writeJSON(w, http.StatusOK, me)
	})
	r.With(auth.Require).Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
		me, _ := auth.PlayerFromContext(r.Context())
		st, err := s.deps.Games.Stats(r.Context(), me.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": me.ID, "stats": st})
	})
}

// handleSignup creates a new user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Accounts.Signup(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.deps.Auth.Issue(w, auth.Identity{ID: u.ID, Username: u.Username})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userRes{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, Token: tok})
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Accounts.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := s.deps.Auth.Issue(w, auth.Identity{ID: u.ID, Username: u.Username})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userRes{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt, Token: tok})
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.Revoke(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
