package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/wordduel/internal/store"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidSignup wraps every signup validation failure.
	ErrInvalidSignup = errors.New("invalid signup")
)

// Accounts registers and authenticates users.
type Accounts struct {
	users store.Users
	cost  int
}

// NewAccounts creates an account service over users.
func NewAccounts(users store.Users) *Accounts {
	return &Accounts{users: users, cost: bcrypt.DefaultCost}
}

// Signup validates and stores a new user.
func (a *Accounts) Signup(ctx context.Context, username, password string) (*store.User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, password); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &store.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.Ctx(ctx).Info().Str("user", u.ID).Str("username", u.Username).Msg("user signed up")
	return u, nil
}

// Login checks a username/password pair.
func (a *Accounts) Login(ctx context.Context, username, password string) (*store.User, error) {
	u, err := a.users.UserByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !checkPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Exists reports whether the user behind a token is still present.
func (a *Accounts) Exists(ctx context.Context, id string) bool {
	_, err := a.users.UserByID(ctx, id)
	return err == nil
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3-24 chars", ErrInvalidSignup)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username: letters, numbers, underscore only", ErrInvalidSignup)
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8-100 chars", ErrInvalidSignup)
	}
	return nil
}
