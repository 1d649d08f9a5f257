package play

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
)

// settlement is what reconciliation observed after its writes.
type settlement struct {
	Outcome   game.Outcome // caller's outcome after reconciliation
	Completed bool
}

// finishMultiplayer settles a finishing guess in a two-player session.
//
// Steps, each a conditional single-row or single-session write:
//  1. own outcome: won unconditionally when solved (overrides a lost
//     written by a racing winner), lost only while still pending;
//  2. on a win, every other pending participant becomes lost;
//  3. more than one won participant turns all of them into draw;
//  4. no pending participant left completes the session.
//
// Any interleaving of two finishing guesses converges: each guess runs the
// draw check after its own write, so two winners always see each other.
func (s *Service) finishMultiplayer(ctx context.Context, sessionID, playerID string, won bool) (settlement, error) {
	lg := log.Ctx(ctx).With().Str("session", sessionID).Str("player", playerID).Logger()

	if won {
		if _, err := s.store.SetOutcome(ctx, sessionID, playerID, game.OutcomeWon, false); err != nil {
			return settlement{}, persistErr(ctx, "update outcome", true, err)
		}
	} else {
		if _, err := s.store.SetOutcome(ctx, sessionID, playerID, game.OutcomeLost, true); err != nil {
			return settlement{}, persistErr(ctx, "update outcome", true, err)
		}
	}

	if won {
		n, err := s.store.UpdateOutcomes(ctx, sessionID, game.OutcomePending, game.OutcomeLost, playerID)
		if err != nil {
			return settlement{}, persistErr(ctx, "resolve opponents", true, err)
		}
		if n > 0 {
			lg.Debug().Int64("players", n).Msg("opponents marked lost")
		}
	}

	winners, err := s.store.CountOutcome(ctx, sessionID, game.OutcomeWon)
	if err != nil {
		return settlement{}, persistErr(ctx, "count winners", true, err)
	}
	if winners > 1 {
		if _, err := s.store.UpdateOutcomes(ctx, sessionID, game.OutcomeWon, game.OutcomeDraw, ""); err != nil {
			return settlement{}, persistErr(ctx, "apply draw", true, err)
		}
		lg.Info().Int("winners", winners).Msg("simultaneous win, draw")
	}

	pending, err := s.store.CountOutcome(ctx, sessionID, game.OutcomePending)
	if err != nil {
		return settlement{}, persistErr(ctx, "count pending", true, err)
	}
	completed := pending == 0
	if completed {
		ok, err := s.store.UpdateSessionStatus(ctx, sessionID, game.StatusStarted, game.StatusCompleted)
		if err != nil {
			return settlement{}, persistErr(ctx, "complete session", true, err)
		}
		if ok {
			s.publish(ctx, game.Event{Type: game.EventSessionCompleted, SessionID: sessionID, Status: game.StatusCompleted})
		}
	}

	parts, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return settlement{}, persistErr(ctx, "load participants", true, err)
	}
	var own game.Outcome
	for _, p := range parts {
		if p.PlayerID == playerID {
			own = p.Outcome
		}
		s.publish(ctx, game.Event{Type: game.EventParticipantUpdated, SessionID: sessionID, PlayerID: p.PlayerID, Outcome: p.Outcome})
	}

	lg.Info().Str("outcome", string(own)).Bool("completed", completed).Msg("multiplayer guess settled")
	return settlement{Outcome: own, Completed: completed}, nil
}
