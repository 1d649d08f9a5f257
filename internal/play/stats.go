package play

import (
	"context"

	"github.com/robalobadob/wordduel/internal/daily"
	"github.com/robalobadob/wordduel/internal/game"
)

// Stats derives wins, losses and the current win streak for a player.
// Draws count as neither a win nor a loss and break the streak.
func (s *Service) Stats(ctx context.Context, playerID string) (game.Stats, error) {
	if playerID == "" {
		return game.Stats{}, game.ErrUnauthenticated
	}
	return s.stats(ctx, playerID, false)
}

func (s *Service) stats(ctx context.Context, playerID string, partial bool) (game.Stats, error) {
	var st game.Stats
	var err error
	if st.Wins, err = s.store.CountPlayerOutcome(ctx, playerID, game.OutcomeWon); err != nil {
		return st, persistErr(ctx, "count wins", partial, err)
	}
	if st.Losses, err = s.store.CountPlayerOutcome(ctx, playerID, game.OutcomeLost); err != nil {
		return st, persistErr(ctx, "count losses", partial, err)
	}
	recent, err := s.store.RecentOutcomes(ctx, playerID, game.StatsWindow)
	if err != nil {
		return st, persistErr(ctx, "load recent outcomes", partial, err)
	}
	st.CurrentStreak = game.Streak(recent)
	return st, nil
}

// Leaderboard ranks players by total wins.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]game.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	out, err := s.store.TopWinners(ctx, limit)
	if err != nil {
		return nil, persistErr(ctx, "load leaderboard", false, err)
	}
	return out, nil
}

// Today is the current daily key (UTC).
func (s *Service) Today() string { return daily.DateKey(s.now()) }

// DailyLeaderboard lists a day's daily winners, fastest first. An empty
// dayKey means today (UTC).
func (s *Service) DailyLeaderboard(ctx context.Context, dayKey string, limit int) ([]game.DailyResult, error) {
	if dayKey == "" {
		dayKey = s.Today()
	}
	if limit <= 0 {
		limit = 20
	}
	out, err := s.store.DailyLeaderboard(ctx, dayKey, limit)
	if err != nil {
		return nil, persistErr(ctx, "load daily leaderboard", false, err)
	}
	return out, nil
}
