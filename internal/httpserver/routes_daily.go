// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes two endpoints under /daily:
//   - POST /daily/new         → start today's daily game (or return it)
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Guesses go through POST /games/{id}/guess like every other mode.
// Each player can play once per day (enforced by the participants index).
// Word selection is deterministic per date + DAILY_SALT.

package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/daily"
	"github.com/robalobadob/wordduel/internal/game"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.With(auth.Require).Post("/new", s.handleDailyNew)
		r.Get("/leaderboard", s.handleDailyLeaderboard)
	})
}

// dailyNewRes is returned by /daily/new. Played reports that today's
// game is already over.
type dailyNewRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Played bool   `json:"played"`
}

// handleDailyNew creates or reuses the caller's session for today.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Games.CreateSession(r.Context(), me(r), game.ModeDaily)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dailyNewRes{
		GameID: c.Session.ID,
		Date:   c.Session.DayKey,
		Played: c.Session.Status != game.StatusStarted,
	})
}

// lbRow is one leaderboard line.
type lbRow struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name,omitempty"`
	Guesses   int    `json:"guesses"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string  `json:"date"`
	Top  []lbRow `json:"top"`
}

// handleDailyLeaderboard returns the leaderboard for the given date
// (default today).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := daily.ParseDateKey(date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "date must be YYYY-MM-DD"})
			return
		}
	}
	rows, err := s.deps.Games.DailyLeaderboard(r.Context(), date, queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res := lbRes{Date: date, Top: make([]lbRow, 0, len(rows))}
	for _, row := range rows {
		res.Date = row.DayKey
		res.Top = append(res.Top, lbRow{
			PlayerID:  row.PlayerID,
			Name:      s.username(r.Context(), row.PlayerID),
			Guesses:   row.Guesses,
			ElapsedMs: row.ElapsedMs,
		})
	}
	if res.Date == "" {
		res.Date = s.deps.Games.Today()
	}
	writeJSON(w, http.StatusOK, res)
}

// username resolves a display name; unknown players stay anonymous.
func (s *Server) username(ctx context.Context, id string) string {
	u, err := s.deps.Store.UserByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Username
}
