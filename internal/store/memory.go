// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for tests and local runs
// where durability is not required.
//
// Characteristics:
//   - Rows live in maps/slices guarded by one RWMutex.
//   - Every conditional write is decided under the write lock, which gives
//     the same atomicity the SQL store gets from unique indexes.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"crypto/rand"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
)

// Memory is a map-based Store implementation.
type Memory struct {
	mu           sync.RWMutex
	words        []game.Word                    // ordered by ID
	sessions     map[string]*game.Session       // keyed by Session.ID
	participants map[string][]*game.Participant // keyed by SessionID, join order
	guesses      []game.Guess                   // insert order
	daily        map[string]game.DailyResult    // keyed by player|day
	users        map[string]*User               // keyed by User.ID
	nextGuessID  int64
	now          func() time.Time
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		sessions:     make(map[string]*game.Session),
		participants: make(map[string][]*game.Participant),
		daily:        make(map[string]game.DailyResult),
		users:        make(map[string]*User),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }

// ------------------------------- words -------------------------------------

func (m *Memory) SeedWords(ctx context.Context, words []game.Word) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{}, len(m.words))
	for _, w := range m.words {
		seen[w.Text] = struct{}{}
	}
	for _, w := range words {
		if _, ok := seen[w.Text]; ok {
			continue
		}
		w.ID = int64(len(m.words) + 1)
		m.words = append(m.words, w)
		seen[w.Text] = struct{}{}
	}
	return nil
}

func (m *Memory) CountWords(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.words), nil
}

func (m *Memory) RandomWordID(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.words) == 0 {
		return 0, ErrNotFound
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(m.words))))
	if err != nil {
		return 0, err
	}
	return m.words[n.Int64()].ID, nil
}

func (m *Memory) NthWordID(ctx context.Context, n int) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n < 0 || n >= len(m.words) {
		return 0, ErrNotFound
	}
	return m.words[n].ID, nil
}

func (m *Memory) GetWord(ctx context.Context, id int64) (*game.Word, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 1 || int(id) > len(m.words) {
		return nil, ErrNotFound
	}
	w := m.words[id-1]
	return &w, nil
}

// ------------------------------ sessions -----------------------------------

func (m *Memory) CreateSession(ctx context.Context, s *game.Session, owner *game.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return ErrConflict
	}
	if m.blockedLocked(owner) {
		return ErrConflict
	}
	cp := *s
	m.sessions[s.ID] = &cp
	po := *owner
	m.participants[s.ID] = []*game.Participant{&po}
	return nil
}

// blockedLocked mirrors the SQL unique indexes on participants.
func (m *Memory) blockedLocked(p *game.Participant) bool {
	for sid, ps := range m.participants {
		for _, q := range ps {
			if q.PlayerID != p.PlayerID || sid == p.SessionID {
				continue
			}
			if q.Outcome == game.OutcomePending && q.Mode == p.Mode && q.DayKey == p.DayKey {
				return true
			}
			if p.Mode == game.ModeDaily && q.Mode == game.ModeDaily && q.DayKey == p.DayKey {
				return true
			}
		}
	}
	return false
}

func (m *Memory) GetSession(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *Memory) ActiveSession(ctx context.Context, playerID string, mode game.Mode, dayKey string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *game.Participant
	for _, ps := range m.participants {
		for _, p := range ps {
			if p.PlayerID != playerID || p.Mode != mode || p.DayKey != dayKey {
				continue
			}
			if p.Outcome != game.OutcomePending && mode != game.ModeDaily {
				continue
			}
			if best == nil || p.JoinedAt.After(best.JoinedAt) {
				best = p
			}
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *m.sessions[best.SessionID]
	return &cp, nil
}

func (m *Memory) UpdateSessionStatus(ctx context.Context, id string, from, to game.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (m *Memory) ListSessions(ctx context.Context, playerID string, f SessionFilter) ([]game.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []game.SessionSummary{}
	for sid, ps := range m.participants {
		for _, p := range ps {
			if p.PlayerID != playerID {
				continue
			}
			s := m.sessions[sid]
			if (f.Mode != "" && s.Mode != f.Mode) ||
				(f.Status != "" && s.Status != f.Status) ||
				(f.Outcome != "" && p.Outcome != f.Outcome) {
				continue
			}
			out = append(out, game.SessionSummary{Session: *s, Outcome: p.Outcome})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *Memory) AbandonSession(ctx context.Context, sessionID, playerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Mode != game.ModeMultiplayer || s.Status != game.StatusStarted {
		return false, nil
	}
	ps := m.participants[sessionID]
	if len(ps) != 1 || ps[0].PlayerID != playerID {
		return false, nil
	}
	s.Status = game.StatusCompleted
	m.participants[sessionID] = nil
	return true, nil
}

// ---------------------------- participants ---------------------------------

func (m *Memory) AddParticipant(ctx context.Context, p *game.Participant, max int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[p.SessionID]; !ok {
		return false, ErrNotFound
	}
	ps := m.participants[p.SessionID]
	for _, q := range ps {
		if q.PlayerID == p.PlayerID {
			return true, nil
		}
	}
	if len(ps) >= max {
		return false, nil
	}
	if m.blockedLocked(p) {
		return false, ErrConflict
	}
	cp := *p
	m.participants[p.SessionID] = append(ps, &cp)
	return true, nil
}

func (m *Memory) RemoveParticipant(ctx context.Context, sessionID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ps := m.participants[sessionID]
	for i, q := range ps {
		if q.PlayerID == playerID {
			m.participants[sessionID] = append(ps[:i:i], ps[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *Memory) GetParticipant(ctx context.Context, sessionID, playerID string) (*game.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, q := range m.participants[sessionID] {
		if q.PlayerID == playerID {
			cp := *q
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListParticipants(ctx context.Context, sessionID string) ([]game.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]game.Participant, 0, len(m.participants[sessionID]))
	for _, q := range m.participants[sessionID] {
		out = append(out, *q)
	}
	return out, nil
}

func (m *Memory) SetOutcome(ctx context.Context, sessionID, playerID string, to game.Outcome, onlyPending bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.participants[sessionID] {
		if q.PlayerID != playerID {
			continue
		}
		if onlyPending && q.Outcome != game.OutcomePending {
			return false, nil
		}
		m.resolveLocked(q, to)
		return true, nil
	}
	return false, nil
}

func (m *Memory) UpdateOutcomes(ctx context.Context, sessionID string, from, to game.Outcome, exceptPlayer string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, q := range m.participants[sessionID] {
		if q.Outcome != from || (exceptPlayer != "" && q.PlayerID == exceptPlayer) {
			continue
		}
		m.resolveLocked(q, to)
		n++
	}
	return n, nil
}

func (m *Memory) resolveLocked(q *game.Participant, to game.Outcome) {
	q.Outcome = to
	if to.Resolved() {
		t := m.now()
		q.ResolvedAt = &t
	} else {
		q.ResolvedAt = nil
	}
}

func (m *Memory) CountOutcome(ctx context.Context, sessionID string, o game.Outcome) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.participants[sessionID] {
		if q.Outcome == o {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountPlayerOutcome(ctx context.Context, playerID string, o game.Outcome) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ps := range m.participants {
		for _, q := range ps {
			if q.PlayerID == playerID && q.Outcome == o {
				n++
			}
		}
	}
	return n, nil
}

func (m *Memory) RecentOutcomes(ctx context.Context, playerID string, limit int) ([]game.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var resolved []*game.Participant
	for _, ps := range m.participants {
		for _, q := range ps {
			if q.PlayerID == playerID && q.Outcome.Resolved() && q.ResolvedAt != nil {
				resolved = append(resolved, q)
			}
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].ResolvedAt.After(*resolved[j].ResolvedAt) })
	if limit > 0 && len(resolved) > limit {
		resolved = resolved[:limit]
	}
	out := make([]game.Outcome, len(resolved))
	for i, q := range resolved {
		out[i] = q.Outcome
	}
	return out, nil
}

func (m *Memory) TopWinners(ctx context.Context, limit int) ([]game.LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := map[string]int{}
	for _, ps := range m.participants {
		for _, q := range ps {
			if q.Outcome == game.OutcomeWon {
				counts[q.PlayerID]++
			}
		}
	}
	out := make([]game.LeaderboardEntry, 0, len(counts))
	for id, n := range counts {
		e := game.LeaderboardEntry{PlayerID: id, Wins: n}
		if u, ok := m.users[id]; ok {
			e.Name = u.Username
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ------------------------------- guesses -----------------------------------

func (m *Memory) AddGuess(ctx context.Context, g *game.Guess, max int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.guesses {
		if q.SessionID == g.SessionID && q.PlayerID == g.PlayerID {
			n++
		}
	}
	if n >= max {
		return false, nil
	}
	g.Attempt = n + 1
	m.nextGuessID++
	g.ID = m.nextGuessID
	cp := *g
	cp.Result = append([]game.Mark(nil), g.Result...)
	m.guesses = append(m.guesses, cp)
	return true, nil
}

func (m *Memory) ListGuesses(ctx context.Context, sessionID, playerID string) ([]game.Guess, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []game.Guess{}
	for _, g := range m.guesses {
		if g.SessionID == sessionID && (playerID == "" || g.PlayerID == playerID) {
			g.Result = append([]game.Mark(nil), g.Result...)
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *Memory) CountGuesses(ctx context.Context, sessionID, playerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, g := range m.guesses {
		if g.SessionID == sessionID && (playerID == "" || g.PlayerID == playerID) {
			n++
		}
	}
	return n, nil
}

// ------------------------------ daily results ------------------------------

func (m *Memory) RecordDailyResult(ctx context.Context, r *game.DailyResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := r.PlayerID + "|" + r.DayKey
	if _, ok := m.daily[key]; ok {
		return nil
	}
	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = m.now()
	}
	m.daily[key] = cp
	return nil
}

func (m *Memory) DailyLeaderboard(ctx context.Context, dayKey string, limit int) ([]game.DailyResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []game.DailyResult{}
	for _, r := range m.daily {
		if r.DayKey == dayKey {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ElapsedMs != b.ElapsedMs {
			return a.ElapsedMs < b.ElapsedMs
		}
		if a.Guesses != b.Guesses {
			return a.Guesses < b.Guesses
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -------------------------------- users ------------------------------------

func (m *Memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return ErrConflict
	}
	for _, x := range m.users {
		if x.Username == u.Username {
			return ErrConflict
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now().UTC()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) UserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) UserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}
