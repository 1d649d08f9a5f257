// internal/auth/middleware.go
//
// Request authentication.
// Responsibilities:
//   - Extracting the token from "Authorization: Bearer", the auth cookie, or
//     (websocket upgrades only) the "token" query parameter.
//   - Verifying it and that the user still exists.
//   - Carrying the Identity in the request context for handlers, which pass
//     the player id explicitly into the game core.

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

// ctxIdentityKey is the context key type for storing Identity.
type ctxIdentityKey struct{}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// PlayerFromContext returns the authenticated identity, or
// game.ErrUnauthenticated when the request carries none.
func PlayerFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxIdentityKey{}).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, game.ErrUnauthenticated
	}
	return id, nil
}

// Cookies writes and clears the auth cookie.
type Cookies struct {
	Name   string
	Secure bool // production: Secure + SameSite=None
}

func (c Cookies) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Set writes the auth token cookie.
func (c Cookies) Set(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  exp,
	})
}

// Clear deletes the auth token cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		MaxAge:   -1,
	})
}

// Authenticator turns request tokens into identities.
type Authenticator struct {
	signer   *Signer
	accounts *Accounts
	cookies  Cookies
}

// NewAuthenticator wires the middleware.
func NewAuthenticator(signer *Signer, accounts *Accounts, cookies Cookies) *Authenticator {
	return &Authenticator{signer: signer, accounts: accounts, cookies: cookies}
}

// Middleware decorates the request with an Identity when a valid token is
// present. It never rejects; handlers call PlayerFromContext.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := a.token(r); tok != "" {
			if id, err := a.signer.Parse(tok); err == nil && a.accounts.Exists(r.Context(), id.ID) {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without an identity with 401.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := PlayerFromContext(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			http.Error(w, `{"error":"unauthenticated","message":"not authenticated"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// token extracts a bearer token from the Authorization header or the auth
// cookie. Browsers cannot set headers on websocket upgrades, so those may
// pass it as ?token= instead.
func (a *Authenticator) token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if c, err := r.Cookie(a.cookies.Name); err == nil && c.Value != "" {
		return c.Value
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}

// Issue signs a token for id and sets the auth cookie. The token is also
// returned for clients that prefer the Authorization header.
func (a *Authenticator) Issue(w http.ResponseWriter, id Identity) (string, error) {
	tok, exp, err := a.signer.Sign(id.ID, id.Username)
	if err != nil {
		return "", err
	}
	a.cookies.Set(w, tok, exp)
	return tok, nil
}

// Revoke clears the auth cookie.
func (a *Authenticator) Revoke(w http.ResponseWriter) { a.cookies.Clear(w) }
