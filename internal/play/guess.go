package play

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/daily"
	"github.com/robalobadob/wordduel/internal/game"
)

// GuessOutcome is either *InProgress or *Finished.
type GuessOutcome interface {
	guessOutcome()
}

// InProgress is returned while the session is still running. In
// multiplayer PlayerDone reports that this player has no guesses left (or
// solved the word) and is waiting for the opponent.
type InProgress struct {
	Result     []game.Mark
	Won        bool
	Attempt    int
	PlayerDone bool
}

// Finished is returned by the guess that ends the session for this player
// (solo, daily) or completes it (multiplayer). Secret is lowercase.
type Finished struct {
	Result  []game.Mark
	Won     bool
	Attempt int
	Outcome game.Outcome
	Secret  string
	Stats   game.Stats
}

func (*InProgress) guessOutcome() {}
func (*Finished) guessOutcome()   {}

// SubmitGuess validates, scores and records one guess, then settles the
// session if it ended. Store failures come back as *game.PersistenceError;
// Partial is set once the guess itself was written, in which case the
// caller should re-fetch the session rather than resubmit.
func (s *Service) SubmitGuess(ctx context.Context, sessionID, playerID, text string) (GuessOutcome, error) {
	if playerID == "" {
		return nil, game.ErrUnauthenticated
	}
	me, err := s.store.GetParticipant(ctx, sessionID, playerID)
	if notFound(err) {
		_, serr := s.store.GetSession(ctx, sessionID)
		switch {
		case notFound(serr):
			return nil, game.ErrNotFound
		case serr != nil:
			return nil, persistErr(ctx, "load session", false, serr)
		}
		return nil, game.ErrUnauthorized
	}
	if err != nil {
		return nil, persistErr(ctx, "load participant", false, err)
	}
	ses, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, persistErr(ctx, "load session", false, err)
	}
	if ses.Status != game.StatusStarted || me.Outcome != game.OutcomePending {
		return nil, game.ErrNotActive
	}
	if ses.Mode == game.ModeMultiplayer {
		parts, err := s.store.ListParticipants(ctx, sessionID)
		if err != nil {
			return nil, persistErr(ctx, "load participants", false, err)
		}
		if len(parts) < game.MaxPlayers {
			return nil, game.ErrWaitingForOpponent
		}
	}
	used, err := s.store.CountGuesses(ctx, sessionID, playerID)
	if err != nil {
		return nil, persistErr(ctx, "count guesses", false, err)
	}
	if used >= game.MaxAttempts {
		return nil, game.ErrNotActive
	}

	word, err := s.store.GetWord(ctx, ses.SecretWordID)
	if err != nil {
		return nil, persistErr(ctx, "load word", false, err)
	}
	guess := game.Normalize(text)
	if err := game.CheckGuess(guess, utf8.RuneCountInString(word.Text)); err != nil {
		return nil, err
	}
	marks, err := game.Score(word.Text, guess)
	if err != nil {
		return nil, err
	}

	// The count above is a fast path; the store decides the slot.
	g := &game.Guess{
		SessionID: sessionID,
		PlayerID:  playerID,
		Text:      guess,
		Result:    marks,
		CreatedAt: s.now(),
	}
	ok, err := s.store.AddGuess(ctx, g, game.MaxAttempts)
	if err != nil {
		return nil, persistErr(ctx, "record guess", false, err)
	}
	if !ok {
		return nil, game.ErrNotActive
	}
	attempt := g.Attempt
	s.publish(ctx, game.Event{
		Type:      game.EventGuessRecorded,
		SessionID: sessionID,
		PlayerID:  playerID,
		Attempt:   attempt,
		Result:    marks,
	})

	won := game.Solved(marks)
	if !won && attempt < game.MaxAttempts {
		return &InProgress{Result: marks, Attempt: attempt}, nil
	}

	if ses.Mode == game.ModeMultiplayer {
		return s.settleMultiplayer(ctx, ses, playerID, word.Text, marks, attempt, won)
	}
	return s.settleSolo(ctx, ses, playerID, word.Text, marks, attempt, won)
}

// settleSolo ends a solo or daily session: conditional participant update,
// conditional session status update, and the daily result on a daily win.
func (s *Service) settleSolo(ctx context.Context, ses *game.Session, playerID, secret string, marks []game.Mark, attempt int, won bool) (GuessOutcome, error) {
	outcome, status := game.OutcomeLost, game.StatusLost
	if won {
		outcome, status = game.OutcomeWon, game.StatusWon
	}

	if _, err := s.store.SetOutcome(ctx, ses.ID, playerID, outcome, true); err != nil {
		return nil, persistErr(ctx, "update outcome", true, err)
	}
	s.publish(ctx, game.Event{Type: game.EventParticipantUpdated, SessionID: ses.ID, PlayerID: playerID, Outcome: outcome})

	if _, err := s.store.UpdateSessionStatus(ctx, ses.ID, game.StatusStarted, status); err != nil {
		return nil, persistErr(ctx, "update session status", true, err)
	}

	if ses.Mode == game.ModeDaily && won {
		dayKey := ses.DayKey
		if dayKey == "" {
			dayKey = daily.DateKey(ses.CreatedAt)
		}
		if err := s.store.RecordDailyResult(ctx, &game.DailyResult{
			PlayerID:  playerID,
			DayKey:    dayKey,
			SessionID: ses.ID,
			Guesses:   attempt,
			ElapsedMs: s.now().Sub(ses.CreatedAt).Milliseconds(),
		}); err != nil {
			return nil, persistErr(ctx, "record daily result", true, err)
		}
	}
	s.publish(ctx, game.Event{Type: game.EventSessionCompleted, SessionID: ses.ID, Status: status})

	stats, err := s.stats(ctx, playerID, true)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().
		Str("session", ses.ID).Str("player", playerID).Str("mode", string(ses.Mode)).
		Str("outcome", string(outcome)).Int("attempt", attempt).
		Msg("session finished")

	return &Finished{
		Result:  marks,
		Won:     won,
		Attempt: attempt,
		Outcome: outcome,
		Secret:  strings.ToLower(secret),
		Stats:   stats,
	}, nil
}

// settleMultiplayer runs reconciliation and reports Finished only once the
// whole session completed.
func (s *Service) settleMultiplayer(ctx context.Context, ses *game.Session, playerID, secret string, marks []game.Mark, attempt int, won bool) (GuessOutcome, error) {
	res, err := s.finishMultiplayer(ctx, ses.ID, playerID, won)
	if err != nil {
		return nil, err
	}
	if !res.Completed {
		return &InProgress{Result: marks, Won: won, Attempt: attempt, PlayerDone: true}, nil
	}

	stats, err := s.stats(ctx, playerID, true)
	if err != nil {
		return nil, err
	}
	return &Finished{
		Result:  marks,
		Won:     res.Outcome == game.OutcomeWon,
		Attempt: attempt,
		Outcome: res.Outcome,
		Secret:  strings.ToLower(secret),
		Stats:   stats,
	}, nil
}
