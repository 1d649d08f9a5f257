// Package store defines the persistence boundary of the game core.
//
// Implementations must enforce the write-time invariants documented on
// CreateSession and AddParticipant atomically (unique indexes in SQL, a
// single lock in memory); the core never relies on check-then-insert.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write would violate a uniqueness invariant.
	ErrConflict = errors.New("store: conflict")
)

// Store bundles every collaborator the core needs.
type Store interface {
	Words
	Sessions
	Participants
	Guesses
	DailyResults
	Users

	Ping(ctx context.Context) error
	Close() error
}

// Words is the immutable word corpus.
type Words interface {
	// SeedWords inserts words that are not present yet (by text).
	SeedWords(ctx context.Context, words []game.Word) error
	CountWords(ctx context.Context) (int, error)
	RandomWordID(ctx context.Context) (int64, error)
	// NthWordID returns the id of the n-th word ordered by id (0-based).
	NthWordID(ctx context.Context, n int) (int64, error)
	GetWord(ctx context.Context, id int64) (*game.Word, error)
}

// SessionFilter narrows ListSessions. Empty fields match everything.
type SessionFilter struct {
	Mode    game.Mode
	Status  game.Status
	Outcome game.Outcome
	Limit   int
}

// Sessions stores session rows.
type Sessions interface {
	// CreateSession inserts s together with its owner participant in one
	// atomic write. It returns ErrConflict when the owner already holds a
	// pending participant for (mode, day key) or, for daily sessions, any
	// participant for that day.
	CreateSession(ctx context.Context, s *game.Session, owner *game.Participant) error
	GetSession(ctx context.Context, id string) (*game.Session, error)
	// ActiveSession returns the player's pending session for mode and day key
	// (daily sessions match regardless of outcome) or ErrNotFound.
	ActiveSession(ctx context.Context, playerID string, mode game.Mode, dayKey string) (*game.Session, error)
	// UpdateSessionStatus moves a session from one status to another and
	// reports whether the row matched.
	UpdateSessionStatus(ctx context.Context, id string, from, to game.Status) (bool, error)
	ListSessions(ctx context.Context, playerID string, f SessionFilter) ([]game.SessionSummary, error)
	// AbandonSession completes a started multiplayer session whose only
	// participant is playerID and removes that participant row, so the
	// session stays on record but counts for nobody. It reports false,
	// changing nothing, once anyone else has joined.
	AbandonSession(ctx context.Context, sessionID, playerID string) (bool, error)
}

// Participants stores per-player membership and outcomes.
type Participants interface {
	// AddParticipant joins p to its session unless the session already has
	// max participants. Joining twice is a no-op. Returns ErrConflict when
	// the player is already pending in another session of the same mode.
	// The bool reports whether the player is now a participant.
	AddParticipant(ctx context.Context, p *game.Participant, max int) (bool, error)
	RemoveParticipant(ctx context.Context, sessionID, playerID string) error
	GetParticipant(ctx context.Context, sessionID, playerID string) (*game.Participant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]game.Participant, error)
	// SetOutcome sets one participant's outcome. With onlyPending the update
	// applies only while the participant is still pending.
	SetOutcome(ctx context.Context, sessionID, playerID string, to game.Outcome, onlyPending bool) (bool, error)
	// UpdateOutcomes moves every participant of the session whose outcome is
	// from to the outcome to, skipping exceptPlayer when non-empty.
	UpdateOutcomes(ctx context.Context, sessionID string, from, to game.Outcome, exceptPlayer string) (int64, error)
	CountOutcome(ctx context.Context, sessionID string, o game.Outcome) (int, error)

	// CountPlayerOutcome counts a player's participations with outcome o.
	CountPlayerOutcome(ctx context.Context, playerID string, o game.Outcome) (int, error)
	// RecentOutcomes returns up to limit resolved outcomes, most recent first.
	RecentOutcomes(ctx context.Context, playerID string, limit int) ([]game.Outcome, error)
	// TopWinners ranks players by won participations.
	TopWinners(ctx context.Context, limit int) ([]game.LeaderboardEntry, error)
}

// Guesses is the append-only guess log.
type Guesses interface {
	// AddGuess appends g unless the player already has max guesses in the
	// session, and sets g.ID and g.Attempt. The bool is false when full.
	AddGuess(ctx context.Context, g *game.Guess, max int) (bool, error)
	// ListGuesses returns guesses in insert order; empty playerID means all.
	ListGuesses(ctx context.Context, sessionID, playerID string) ([]game.Guess, error)
	CountGuesses(ctx context.Context, sessionID, playerID string) (int, error)
}

// DailyResults backs the daily leaderboard.
type DailyResults interface {
	// RecordDailyResult inserts r; an existing row for (player, day) is kept.
	RecordDailyResult(ctx context.Context, r *game.DailyResult) error
	DailyLeaderboard(ctx context.Context, dayKey string, limit int) ([]game.DailyResult, error)
}

// User is an account row. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Users backs the identity provider.
type Users interface {
	// CreateUser returns ErrConflict when the username is taken.
	CreateUser(ctx context.Context, u *User) error
	UserByUsername(ctx context.Context, username string) (*User, error)
	UserByID(ctx context.Context, id string) (*User, error)
}
