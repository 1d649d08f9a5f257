package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/play"
	"github.com/robalobadob/wordduel/internal/store"
)

// mountGameRoutes registers the session endpoints. All require auth.
func (s *Server) mountGameRoutes(r chi.Router) {
	r.Route("/games", func(r chi.Router) {
		r.Use(auth.Require)
		r.Group(func(r chi.Router) {
			r.Use(s.plain)
			r.Post("/", s.handleCreateGame)
			r.Get("/", s.handleListGames)
			r.Get("/{id}", s.handleGetGame)
			r.Post("/{id}/guess", s.handleGuess)
			r.Post("/{id}/join", s.handleJoin)
		})
		r.Get("/{id}/events", s.handleGameEvents)
	})
}

// me returns the authenticated player id; routes are behind auth.Require.
func me(r *http.Request) string {
	id, _ := auth.PlayerFromContext(r.Context())
	return id.ID
}

type createGameReq struct {
	Mode game.Mode `json:"mode"`
}

type createGameRes struct {
	ID       string      `json:"id"`
	Mode     game.Mode   `json:"mode"`
	Status   game.Status `json:"status"`
	DayKey   string      `json:"dayKey,omitempty"`
	Existing bool        `json:"existing"`
}

// handleCreateGame starts a session, or returns the active one with
// existing=true (200 instead of 201).
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Mode == "" {
		req.Mode = game.ModeSolo
	}
	c, err := s.deps.Games.CreateSession(r.Context(), me(r), req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if c.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, createGameRes{
		ID:       c.Session.ID,
		Mode:     c.Session.Mode,
		Status:   c.Session.Status,
		DayKey:   c.Session.DayKey,
		Existing: c.Existing,
	})
}

// handleListGames returns the caller's history, filtered by the optional
// mode, status and outcome query parameters.
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.deps.Games.ListSessions(r.Context(), me(r), store.SessionFilter{
		Mode:    game.Mode(q.Get("mode")),
		Status:  game.Status(q.Get("status")),
		Outcome: game.Outcome(q.Get("outcome")),
		Limit:   queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []game.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Games.FetchSession(r.Context(), chi.URLParam(r, "id"), me(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type guessReq struct {
	Guess string `json:"guess"`
}

// guessRes flattens play.GuessOutcome; state tells the variants apart.
type guessRes struct {
	State      string       `json:"state"` // "in_progress" | "finished"
	Result     []game.Mark  `json:"result"`
	IsWin      bool         `json:"isWin"`
	IsGameOver bool         `json:"isGameOver"`
	Attempt    int          `json:"attempt"`
	PlayerDone bool         `json:"playerDone"`
	Outcome    game.Outcome `json:"outcome,omitempty"`
	Secret     string       `json:"secret,omitempty"`
	Stats      *game.Stats  `json:"stats,omitempty"`
}

func toGuessRes(o play.GuessOutcome) guessRes {
	switch v := o.(type) {
	case *play.Finished:
		st := v.Stats
		return guessRes{
			State:      "finished",
			Result:     v.Result,
			IsWin:      v.Won,
			IsGameOver: true,
			Attempt:    v.Attempt,
			PlayerDone: true,
			Outcome:    v.Outcome,
			Secret:     v.Secret,
			Stats:      &st,
		}
	case *play.InProgress:
		return guessRes{
			State:      "in_progress",
			Result:     v.Result,
			IsWin:      v.Won,
			Attempt:    v.Attempt,
			PlayerDone: v.PlayerDone,
		}
	}
	return guessRes{}
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := s.deps.Games.SubmitGuess(r.Context(), chi.URLParam(r, "id"), me(r), req.Guess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGuessRes(out))
}

// handleJoin adds the caller to a waiting multiplayer session and returns
// their view of it.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Games.JoinSession(r.Context(), id, me(r)); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.deps.Games.FetchSession(r.Context(), id, me(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleLeaderboard returns the top players by wins.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.deps.Games.Leaderboard(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if top == nil {
		top = []game.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"top": top})
}
