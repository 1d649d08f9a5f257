package play

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/daily"
	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/store"
)

// Created is the result of CreateSession. Existing is set when the player
// already had an active session for the mode and that one was returned.
type Created struct {
	Session  game.Session
	Existing bool
}

// CreateSession starts a session for playerID, or returns the active one.
//
// The new session and its creator participant are written in one atomic
// store call. If a concurrent create wins the uniqueness race, the winner's
// session is returned as Existing.
func (s *Service) CreateSession(ctx context.Context, playerID string, mode game.Mode) (*Created, error) {
	if playerID == "" {
		return nil, game.ErrUnauthenticated
	}
	if !mode.Valid() {
		return nil, game.ErrInvalidMode
	}
	now := s.now()
	dayKey := ""
	if mode == game.ModeDaily {
		dayKey = daily.DateKey(now)
	}

	if cur, err := s.store.ActiveSession(ctx, playerID, mode, dayKey); err == nil {
		return &Created{Session: *cur, Existing: true}, nil
	} else if !notFound(err) {
		return nil, persistErr(ctx, "load active session", false, err)
	}

	wordID, err := s.pickWord(ctx, mode, now)
	if err != nil {
		return nil, persistErr(ctx, "pick word", false, err)
	}

	ses := &game.Session{
		ID:           uuid.NewString(),
		Mode:         mode,
		Status:       game.StatusStarted,
		SecretWordID: wordID,
		OwnerID:      playerID,
		DayKey:       dayKey,
		CreatedAt:    now,
	}
	owner := &game.Participant{
		SessionID: ses.ID,
		PlayerID:  playerID,
		Mode:      mode,
		DayKey:    dayKey,
		Outcome:   game.OutcomePending,
		JoinedAt:  now,
	}

	if err := s.store.CreateSession(ctx, ses, owner); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return nil, persistErr(ctx, "create session", false, err)
		}
		cur, rerr := s.store.ActiveSession(ctx, playerID, mode, dayKey)
		if rerr != nil {
			return nil, game.ErrAlreadyActive
		}
		return &Created{Session: *cur, Existing: true}, nil
	}

	log.Ctx(ctx).Info().
		Str("session", ses.ID).Str("player", playerID).Str("mode", string(mode)).
		Msg("session created")
	return &Created{Session: *ses}, nil
}

// pickWord chooses a random word, or the day's word for daily sessions.
func (s *Service) pickWord(ctx context.Context, mode game.Mode, now time.Time) (int64, error) {
	if mode != game.ModeDaily {
		return s.store.RandomWordID(ctx)
	}
	n, err := s.store.CountWords(ctx)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("word corpus is empty: %w", store.ErrNotFound)
	}
	return s.store.NthWordID(ctx, daily.WordIndex(now, s.salt, n))
}

// ActiveSession returns the player's active session for mode, or nil.
// For daily the current day's session counts as active whatever its status.
func (s *Service) ActiveSession(ctx context.Context, playerID string, mode game.Mode) (*game.Session, error) {
	if playerID == "" {
		return nil, game.ErrUnauthenticated
	}
	if !mode.Valid() {
		return nil, game.ErrInvalidMode
	}
	dayKey := ""
	if mode == game.ModeDaily {
		dayKey = daily.DateKey(s.now())
	}
	cur, err := s.store.ActiveSession(ctx, playerID, mode, dayKey)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr(ctx, "load active session", false, err)
	}
	return cur, nil
}

// JoinSession adds playerID as the second participant of a multiplayer
// session. Joining a session one already belongs to is a no-op.
func (s *Service) JoinSession(ctx context.Context, sessionID, playerID string) error {
	if playerID == "" {
		return game.ErrUnauthenticated
	}
	ses, err := s.store.GetSession(ctx, sessionID)
	if notFound(err) {
		return game.ErrNotJoinable
	}
	if err != nil {
		return persistErr(ctx, "load session", false, err)
	}
	if ses.Mode != game.ModeMultiplayer || ses.Status != game.StatusStarted {
		return game.ErrNotJoinable
	}
	if _, err := s.store.GetParticipant(ctx, sessionID, playerID); err == nil {
		return nil
	} else if !notFound(err) {
		return persistErr(ctx, "load participant", false, err)
	}

	ok, err := s.store.AddParticipant(ctx, &game.Participant{
		SessionID: sessionID,
		PlayerID:  playerID,
		Mode:      game.ModeMultiplayer,
		Outcome:   game.OutcomePending,
		JoinedAt:  s.now(),
	}, game.MaxPlayers)
	switch {
	case errors.Is(err, store.ErrConflict):
		return game.ErrAlreadyActive
	case notFound(err):
		return game.ErrNotJoinable
	case err != nil:
		return persistErr(ctx, "add participant", false, err)
	case !ok:
		return game.ErrNotJoinable
	}

	// The session may have finished between the status check and the insert.
	cur, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return persistErr(ctx, "reload session", true, err)
	}
	if cur.Status != game.StatusStarted {
		if err := s.store.RemoveParticipant(ctx, sessionID, playerID); err != nil {
			return persistErr(ctx, "roll back join", true, err)
		}
		return game.ErrNotJoinable
	}

	log.Ctx(ctx).Info().Str("session", sessionID).Str("player", playerID).Msg("player joined")
	s.publish(ctx, game.Event{Type: game.EventPlayerJoined, SessionID: sessionID, PlayerID: playerID})
	return nil
}

// AbandonSession withdraws playerID's multiplayer session while nobody else
// has joined it. The session is completed with no participants, so it counts
// for nobody's stats and the player is free to create or join another. It reports false, changing
// nothing, when the session is already joined, finished or not theirs.
func (s *Service) AbandonSession(ctx context.Context, sessionID, playerID string) (bool, error) {
	if playerID == "" {
		return false, game.ErrUnauthenticated
	}
	ok, err := s.store.AbandonSession(ctx, sessionID, playerID)
	if err != nil {
		return false, persistErr(ctx, "abandon session", false, err)
	}
	if ok {
		log.Ctx(ctx).Info().Str("session", sessionID).Str("player", playerID).Msg("session abandoned")
	}
	return ok, nil
}

// WordInfo is the public metadata of the secret word.
type WordInfo struct {
	Definition   string `json:"definition"`
	PartOfSpeech string `json:"partOfSpeech"`
	Length       int    `json:"length"`
}

// OpponentGuess is one of the opponent's guesses. Text stays hidden until
// the game is over.
type OpponentGuess struct {
	Guess  string      `json:"guess,omitempty"`
	Result []game.Mark `json:"result"`
}

// OpponentView summarizes the other participant of a multiplayer session.
type OpponentView struct {
	PlayerID string          `json:"playerId"`
	Outcome  game.Outcome    `json:"outcome"`
	Guesses  []OpponentGuess `json:"guesses"`
}

// SessionView is everything a participant may see about a session.
type SessionView struct {
	ID           string        `json:"id"`
	Mode         game.Mode     `json:"mode"`
	Status       game.Status   `json:"status"`
	Outcome      game.Outcome  `json:"outcome"`
	DayKey       string        `json:"dayKey,omitempty"`
	Word         WordInfo      `json:"word"`
	Guesses      []game.Guess  `json:"guesses"`
	Attempts     int           `json:"attempts"`
	MaxAttempts  int           `json:"maxAttempts"`
	Participants int           `json:"participants"`
	Opponent     *OpponentView `json:"opponent,omitempty"`
	GameOver     bool          `json:"isGameOver"`
	Won          bool          `json:"isWin"`
	Secret       string        `json:"secret,omitempty"`
	Stats        game.Stats    `json:"stats"`
}

// over reports whether the session accepts no more guesses from anyone.
func over(ses *game.Session) bool {
	if ses.Mode == game.ModeMultiplayer {
		return ses.Status == game.StatusCompleted
	}
	return ses.Status != game.StatusStarted
}

// FetchSession returns playerID's view of a session. Non-participants get
// game.ErrNotFound, so the existence of other players' sessions is not
// revealed.
func (s *Service) FetchSession(ctx context.Context, sessionID, playerID string) (*SessionView, error) {
	if playerID == "" {
		return nil, game.ErrUnauthenticated
	}
	me, err := s.store.GetParticipant(ctx, sessionID, playerID)
	if notFound(err) {
		return nil, game.ErrNotFound
	}
	if err != nil {
		return nil, persistErr(ctx, "load participant", false, err)
	}
	ses, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, persistErr(ctx, "load session", false, err)
	}
	word, err := s.store.GetWord(ctx, ses.SecretWordID)
	if err != nil {
		return nil, persistErr(ctx, "load word", false, err)
	}
	guesses, err := s.store.ListGuesses(ctx, sessionID, "")
	if err != nil {
		return nil, persistErr(ctx, "load guesses", false, err)
	}
	parts, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, persistErr(ctx, "load participants", false, err)
	}
	stats, err := s.Stats(ctx, playerID)
	if err != nil {
		return nil, err
	}

	done := over(ses)
	v := &SessionView{
		ID:      ses.ID,
		Mode:    ses.Mode,
		Status:  ses.Status,
		Outcome: me.Outcome,
		DayKey:  ses.DayKey,
		Word: WordInfo{
			Definition:   word.Definition,
			PartOfSpeech: word.PartOfSpeech,
			Length:       utf8.RuneCountInString(word.Text),
		},
		Guesses:      []game.Guess{},
		MaxAttempts:  game.MaxAttempts,
		Participants: len(parts),
		GameOver:     done,
		Won:          me.Outcome == game.OutcomeWon,
		Stats:        stats,
	}
	if done {
		v.Secret = strings.ToLower(word.Text)
	}

	for _, p := range parts {
		if p.PlayerID == playerID {
			continue
		}
		v.Opponent = &OpponentView{PlayerID: p.PlayerID, Outcome: p.Outcome, Guesses: []OpponentGuess{}}
	}
	for _, g := range guesses {
		switch {
		case g.PlayerID == playerID:
			v.Guesses = append(v.Guesses, g)
		case v.Opponent != nil && g.PlayerID == v.Opponent.PlayerID:
			og := OpponentGuess{Result: g.Result}
			if done {
				og.Guess = g.Text
			}
			v.Opponent.Guesses = append(v.Opponent.Guesses, og)
		}
	}
	v.Attempts = len(v.Guesses)
	return v, nil
}

// ListSessions returns the player's sessions newest first.
func (s *Service) ListSessions(ctx context.Context, playerID string, f store.SessionFilter) ([]game.SessionSummary, error) {
	if playerID == "" {
		return nil, game.ErrUnauthenticated
	}
	if f.Mode != "" && !f.Mode.Valid() {
		return nil, game.ErrInvalidMode
	}
	out, err := s.store.ListSessions(ctx, playerID, f)
	if err != nil {
		return nil, persistErr(ctx, "list sessions", false, err)
	}
	return out, nil
}
