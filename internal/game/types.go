// internal/game/types.go
//
// Core type definitions for wordduel.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).
//   - Mode, Status, Outcome: the session and participant state enums.
//   - Word, Session, Participant, Guess: the persisted records.
//   - Stats, DailyResult, LeaderboardEntry: derived read models.

package game

import "time"

// Mark represents the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is in the secret at this exact position.
//   - "present": letter occurs elsewhere in the secret (multiset accounting).
//   - "absent":  letter does not occur, or all its occurrences are used up.
type Mark string

const (
	MarkCorrect Mark = "correct"
	MarkPresent Mark = "present"
	MarkAbsent  Mark = "absent"
)

// Mode selects how a session is played.
type Mode string

const (
	ModeSolo        Mode = "solo"
	ModeMultiplayer Mode = "multiplayer"
	ModeDaily       Mode = "daily_challenge"
)

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeSolo, ModeMultiplayer, ModeDaily:
		return true
	}
	return false
}

// Status is the session-level state.
// Solo and daily sessions move started -> won|lost.
// Multiplayer sessions move started -> completed once nobody is pending.
type Status string

const (
	StatusStarted   Status = "started"
	StatusWon       Status = "won"
	StatusLost      Status = "lost"
	StatusDraw      Status = "draw"
	StatusCompleted Status = "completed"
)

// Outcome is a single participant's result within a session.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeDraw    Outcome = "draw"
)

// Resolved reports whether o is terminal.
func (o Outcome) Resolved() bool { return o != OutcomePending && o != "" }

const (
	// MaxAttempts is the number of guesses a player gets per session.
	MaxAttempts = 6
	// MaxPlayers is the participant cap of a multiplayer session.
	MaxPlayers = 2
	// StatsWindow bounds how many resolved outcomes the streak scan reads.
	StatsWindow = 100
)

// Word is an immutable dictionary entry. Text is uppercase.
type Word struct {
	ID           int64  `json:"id"`
	Text         string `json:"-"`
	Definition   string `json:"definition"`
	PartOfSpeech string `json:"partOfSpeech"`
}

// Session is one play-through bound to a single secret word.
type Session struct {
	ID           string    `json:"id"`
	Mode         Mode      `json:"mode"`
	Status       Status    `json:"status"`
	SecretWordID int64     `json:"-"`
	OwnerID      string    `json:"ownerId"`
	DayKey       string    `json:"dayKey,omitempty"` // YYYY-MM-DD for daily sessions
	CreatedAt    time.Time `json:"createdAt"`
}

// Participant is one player's membership and outcome within a session.
type Participant struct {
	SessionID  string     `json:"sessionId"`
	PlayerID   string     `json:"playerId"`
	Mode       Mode       `json:"mode"`
	DayKey     string     `json:"-"`
	Outcome    Outcome    `json:"outcome"`
	JoinedAt   time.Time  `json:"joinedAt"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// Guess is an immutable record of one submitted guess.
type Guess struct {
	ID        int64     `json:"-"`
	SessionID string    `json:"-"`
	PlayerID  string    `json:"-"`
	Attempt   int       `json:"attempt"`
	Text      string    `json:"guess"`
	Result    []Mark    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// Stats is derived on demand from a player's resolved outcomes.
type Stats struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	CurrentStreak int `json:"currentStreak"`
}

// SessionSummary is a row of a player's game history.
type SessionSummary struct {
	Session
	Outcome Outcome `json:"outcome"`
}

// DailyResult records a won daily challenge for the daily leaderboard.
type DailyResult struct {
	PlayerID  string    `json:"playerId"`
	DayKey    string    `json:"date"`
	SessionID string    `json:"sessionId"`
	Guesses   int       `json:"guesses"`
	ElapsedMs int64     `json:"elapsedMs"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is a player's all-time win count.
type LeaderboardEntry struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name,omitempty"`
	Wins     int    `json:"wins"`
}
