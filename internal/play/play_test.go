package play

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/store"
)

type recorder struct {
	mu     sync.Mutex
	events []game.Event
}

func (r *recorder) Publish(_ context.Context, ev game.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(t game.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

// newService returns a service over a memory store whose only word is CRANE.
func newService(t *testing.T, opts ...Option) (*Service, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	if err := m.SeedWords(context.Background(), []game.Word{
		{Text: "CRANE", Definition: "a large bird", PartOfSpeech: "noun"},
	}); err != nil {
		t.Fatal(err)
	}
	return New(m, opts...), m
}

func mustCreate(t *testing.T, s *Service, player string, mode game.Mode) game.Session {
	t.Helper()
	c, err := s.CreateSession(context.Background(), player, mode)
	if err != nil {
		t.Fatalf("CreateSession(%s, %s): %v", player, mode, err)
	}
	return c.Session
}

func mustGuess(t *testing.T, s *Service, sid, player, text string) GuessOutcome {
	t.Helper()
	out, err := s.SubmitGuess(context.Background(), sid, player, text)
	if err != nil {
		t.Fatalf("SubmitGuess(%s, %s): %v", player, text, err)
	}
	return out
}

func TestCreateSessionIdempotent(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx, "alice", game.ModeSolo)
	if err != nil || first.Existing {
		t.Fatalf("first create = %+v, %v", first, err)
	}
	second, err := s.CreateSession(ctx, "alice", game.ModeSolo)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Existing || second.Session.ID != first.Session.ID {
		t.Errorf("second create = %+v, want existing %s", second, first.Session.ID)
	}

	active, err := s.ActiveSession(ctx, "alice", game.ModeSolo)
	if err != nil || active == nil || active.ID != first.Session.ID {
		t.Errorf("ActiveSession = %+v, %v", active, err)
	}
	none, err := s.ActiveSession(ctx, "alice", game.ModeMultiplayer)
	if err != nil || none != nil {
		t.Errorf("ActiveSession(multiplayer) = %+v, %v", none, err)
	}
}

func TestCreateSessionConcurrent(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := s.CreateSession(ctx, "racer", game.ModeSolo)
			if err != nil {
				t.Errorf("CreateSession: %v", err)
				return
			}
			ids[i] = c.Session.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent creates returned different sessions: %v", ids)
		}
	}
	started, _ := m.ListSessions(ctx, "racer", store.SessionFilter{Status: game.StatusStarted})
	if len(started) != 1 {
		t.Errorf("started sessions = %d, want 1", len(started))
	}
}

func TestCreateSessionValidation(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	if _, err := s.CreateSession(ctx, "", game.ModeSolo); !errors.Is(err, game.ErrUnauthenticated) {
		t.Errorf("anonymous: %v", err)
	}
	if _, err := s.CreateSession(ctx, "a", game.Mode("ranked")); !errors.Is(err, game.ErrInvalidMode) {
		t.Errorf("bad mode: %v", err)
	}
}

func TestSoloWin(t *testing.T) {
	rec := &recorder{}
	s, _ := newService(t, WithPublisher(rec))
	ctx := context.Background()
	ses := mustCreate(t, s, "alice", game.ModeSolo)

	if out, ok := mustGuess(t, s, ses.ID, "alice", "slate").(*InProgress); !ok || out.Attempt != 1 || out.Won {
		t.Fatalf("first guess = %#v", out)
	}
	fin, ok := mustGuess(t, s, ses.ID, "alice", "crane").(*Finished)
	if !ok {
		t.Fatal("winning guess should finish the session")
	}
	if !fin.Won || fin.Outcome != game.OutcomeWon || fin.Secret != "crane" || fin.Attempt != 2 {
		t.Errorf("finished = %+v", fin)
	}
	if fin.Stats.Wins != 1 || fin.Stats.CurrentStreak != 1 {
		t.Errorf("stats = %+v", fin.Stats)
	}

	v, err := s.FetchSession(ctx, ses.ID, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if v.Status != game.StatusWon || !v.GameOver || !v.Won || v.Secret != "crane" || v.Attempts != 2 {
		t.Errorf("view = %+v", v)
	}

	if _, err := s.SubmitGuess(ctx, ses.ID, "alice", "crane"); !errors.Is(err, game.ErrNotActive) {
		t.Errorf("guess after win: %v", err)
	}
	if rec.count(game.EventGuessRecorded) != 2 || rec.count(game.EventSessionCompleted) != 1 {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestSoloAttemptCap(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	ses := mustCreate(t, s, "bob", game.ModeSolo)

	for i := 1; i < game.MaxAttempts; i++ {
		out, ok := mustGuess(t, s, ses.ID, "bob", "slate").(*InProgress)
		if !ok || out.Attempt != i {
			t.Fatalf("guess %d = %#v", i, out)
		}
	}
	fin, ok := mustGuess(t, s, ses.ID, "bob", "slate").(*Finished)
	if !ok || fin.Won || fin.Outcome != game.OutcomeLost || fin.Attempt != game.MaxAttempts {
		t.Fatalf("sixth guess = %#v", fin)
	}
	if fin.Secret != "crane" {
		t.Errorf("secret = %q", fin.Secret)
	}
	if _, err := s.SubmitGuess(ctx, ses.ID, "bob", "crane"); !errors.Is(err, game.ErrNotActive) {
		t.Errorf("seventh guess: %v", err)
	}

	v, _ := s.FetchSession(ctx, ses.ID, "bob")
	if v.Attempts != game.MaxAttempts || v.Status != game.StatusLost {
		t.Errorf("view = %+v", v)
	}
}

func TestGuessValidation(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()
	ses := mustCreate(t, s, "carol", game.ModeSolo)
	_ = mustCreate(t, s, "dave", game.ModeSolo)

	tests := []struct {
		name    string
		session string
		player  string
		guess   string
		want    error
	}{
		{"too short", ses.ID, "carol", "cran", game.ErrLengthMismatch},
		{"too long", ses.ID, "carol", "cranes", game.ErrLengthMismatch},
		{"digits", ses.ID, "carol", "cr4ne", game.ErrInvalidGuess},
		{"anonymous", ses.ID, "", "crane", game.ErrUnauthenticated},
		{"not a participant", ses.ID, "dave", "crane", game.ErrUnauthorized},
		{"unknown session", "nope", "carol", "crane", game.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.SubmitGuess(ctx, tt.session, tt.player, tt.guess); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
	if n, _ := m.CountGuesses(ctx, ses.ID, "carol"); n != 0 {
		t.Errorf("rejected guesses were stored: %d", n)
	}
}

func TestFetchSessionHidesSecret(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	ses := mustCreate(t, s, "erin", game.ModeSolo)
	mustGuess(t, s, ses.ID, "erin", "slate")

	v, err := s.FetchSession(ctx, ses.ID, "erin")
	if err != nil {
		t.Fatal(err)
	}
	if v.Secret != "" || v.GameOver {
		t.Errorf("in-progress view leaks secret: %+v", v)
	}
	if v.Word.Length != 5 || v.Word.Definition != "a large bird" || v.Word.PartOfSpeech != "noun" {
		t.Errorf("word info = %+v", v.Word)
	}
	if len(v.Guesses) != 1 || v.Guesses[0].Text != "SLATE" {
		t.Errorf("history = %+v", v.Guesses)
	}
	if _, err := s.FetchSession(ctx, ses.ID, "mallory"); !errors.Is(err, game.ErrNotFound) {
		t.Errorf("non-participant fetch: %v", err)
	}
}

func TestDailySession(t *testing.T) {
	day := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	clock := day
	s, _ := newService(t, WithClock(func() time.Time { return clock }), WithDailySalt("pepper"))
	ctx := context.Background()

	a := mustCreate(t, s, "ann", game.ModeDaily)
	b := mustCreate(t, s, "ben", game.ModeDaily)
	if a.DayKey != "2026-10-18" || a.SecretWordID != b.SecretWordID {
		t.Errorf("daily sessions disagree: %+v vs %+v", a, b)
	}

	clock = day.Add(90 * time.Second)
	if _, ok := mustGuess(t, s, a.ID, "ann", "crane").(*Finished); !ok {
		t.Fatal("expected finished")
	}

	again, err := s.CreateSession(ctx, "ann", game.ModeDaily)
	if err != nil || !again.Existing || again.Session.ID != a.ID || again.Session.Status != game.StatusWon {
		t.Errorf("replay same day = %+v, %v", again, err)
	}

	lb, err := s.DailyLeaderboard(ctx, "", 10)
	if err != nil || len(lb) != 1 || lb[0].PlayerID != "ann" || lb[0].ElapsedMs != 90000 || lb[0].Guesses != 1 {
		t.Errorf("daily leaderboard = %+v, %v", lb, err)
	}

	clock = day.AddDate(0, 0, 1)
	next, err := s.CreateSession(ctx, "ann", game.ModeDaily)
	if err != nil || next.Existing || next.Session.DayKey != "2026-10-19" {
		t.Errorf("next day = %+v, %v", next, err)
	}
}

// startDuel creates a joined multiplayer session between a and b.
func startDuel(t *testing.T, s *Service, a, b string) game.Session {
	t.Helper()
	ses := mustCreate(t, s, a, game.ModeMultiplayer)
	if err := s.JoinSession(context.Background(), ses.ID, b); err != nil {
		t.Fatalf("JoinSession: %v", err)
	}
	return ses
}

func outcomes(t *testing.T, m *store.Memory, sid string) map[string]game.Outcome {
	t.Helper()
	ps, err := m.ListParticipants(context.Background(), sid)
	if err != nil {
		t.Fatal(err)
	}
	out := map[string]game.Outcome{}
	for _, p := range ps {
		out[p.PlayerID] = p.Outcome
	}
	return out
}

func TestMultiplayerWaitsForOpponent(t *testing.T) {
	s, _ := newService(t)
	ses := mustCreate(t, s, "solo-host", game.ModeMultiplayer)
	_, err := s.SubmitGuess(context.Background(), ses.ID, "solo-host", "crane")
	if !errors.Is(err, game.ErrWaitingForOpponent) || !errors.Is(err, game.ErrNotActive) {
		t.Errorf("got %v, want ErrWaitingForOpponent", err)
	}
}

func TestMultiplayerWinnerTakesAll(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()
	ses := startDuel(t, s, "p1", "p2")

	mustGuess(t, s, ses.ID, "p2", "slate")
	fin, ok := mustGuess(t, s, ses.ID, "p1", "crane").(*Finished)
	if !ok || !fin.Won || fin.Outcome != game.OutcomeWon {
		t.Fatalf("winner = %#v", fin)
	}

	got := outcomes(t, m, ses.ID)
	if got["p1"] != game.OutcomeWon || got["p2"] != game.OutcomeLost {
		t.Errorf("outcomes = %v", got)
	}
	cur, _ := m.GetSession(ctx, ses.ID)
	if cur.Status != game.StatusCompleted {
		t.Errorf("status = %s", cur.Status)
	}
	if _, err := s.SubmitGuess(ctx, ses.ID, "p2", "crane"); !errors.Is(err, game.ErrNotActive) {
		t.Errorf("loser guess after completion: %v", err)
	}

	v, _ := s.FetchSession(ctx, ses.ID, "p2")
	if v.Opponent == nil || v.Opponent.PlayerID != "p1" || len(v.Opponent.Guesses) != 1 || v.Opponent.Guesses[0].Guess != "CRANE" {
		t.Errorf("opponent view after game = %+v", v.Opponent)
	}
}

func TestMultiplayerOpponentGuessesHidden(t *testing.T) {
	s, _ := newService(t)
	ses := startDuel(t, s, "q1", "q2")
	mustGuess(t, s, ses.ID, "q1", "slate")

	v, err := s.FetchSession(context.Background(), ses.ID, "q2")
	if err != nil {
		t.Fatal(err)
	}
	if v.Participants != 2 || v.Opponent == nil || len(v.Opponent.Guesses) != 1 {
		t.Fatalf("view = %+v", v)
	}
	if og := v.Opponent.Guesses[0]; og.Guess != "" || len(og.Result) != 5 {
		t.Errorf("opponent guess leaked text: %+v", og)
	}
}

func TestMultiplayerBothExhausted(t *testing.T) {
	s, m := newService(t)
	ses := startDuel(t, s, "r1", "r2")

	for i := 0; i < game.MaxAttempts-1; i++ {
		mustGuess(t, s, ses.ID, "r1", "slate")
		mustGuess(t, s, ses.ID, "r2", "slate")
	}
	wait, ok := mustGuess(t, s, ses.ID, "r1", "slate").(*InProgress)
	if !ok || !wait.PlayerDone || wait.Attempt != game.MaxAttempts {
		t.Fatalf("first exhausted = %#v", wait)
	}
	fin, ok := mustGuess(t, s, ses.ID, "r2", "slate").(*Finished)
	if !ok || fin.Won || fin.Outcome != game.OutcomeLost {
		t.Fatalf("second exhausted = %#v", fin)
	}
	got := outcomes(t, m, ses.ID)
	if got["r1"] != game.OutcomeLost || got["r2"] != game.OutcomeLost {
		t.Errorf("outcomes = %v", got)
	}
}

func TestMultiplayerLoserThenWinner(t *testing.T) {
	s, m := newService(t)
	ses := startDuel(t, s, "s1", "s2")
	for i := 0; i < game.MaxAttempts; i++ {
		mustGuess(t, s, ses.ID, "s1", "slate")
	}
	fin, ok := mustGuess(t, s, ses.ID, "s2", "crane").(*Finished)
	if !ok || !fin.Won {
		t.Fatalf("winner = %#v", fin)
	}
	got := outcomes(t, m, ses.ID)
	if got["s1"] != game.OutcomeLost || got["s2"] != game.OutcomeWon {
		t.Errorf("outcomes = %v", got)
	}
}

// Two winning guesses that both passed validation before either settled.
func TestReconcileSimultaneousWinsSequential(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()
	ses := startDuel(t, s, "w1", "w2")

	first, err := s.finishMultiplayer(ctx, ses.ID, "w1", true)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Completed || first.Outcome != game.OutcomeWon {
		t.Fatalf("first settle = %+v", first)
	}
	second, err := s.finishMultiplayer(ctx, ses.ID, "w2", true)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Completed || second.Outcome != game.OutcomeDraw {
		t.Fatalf("second settle = %+v", second)
	}
	got := outcomes(t, m, ses.ID)
	if got["w1"] != game.OutcomeDraw || got["w2"] != game.OutcomeDraw {
		t.Errorf("outcomes = %v", got)
	}
}

func TestReconcileConvergesConcurrently(t *testing.T) {
	tests := []struct {
		name         string
		aWon, bWon   bool
		wantA, wantB game.Outcome
	}{
		{"both win", true, true, game.OutcomeDraw, game.OutcomeDraw},
		{"a wins b exhausts", true, false, game.OutcomeWon, game.OutcomeLost},
		{"both exhaust", false, false, game.OutcomeLost, game.OutcomeLost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for round := 0; round < 20; round++ {
				s, m := newService(t)
				ctx := context.Background()
				ses := startDuel(t, s, "a", "b")

				var wg sync.WaitGroup
				wg.Add(2)
				go func() { defer wg.Done(); _, _ = s.finishMultiplayer(ctx, ses.ID, "a", tt.aWon) }()
				go func() { defer wg.Done(); _, _ = s.finishMultiplayer(ctx, ses.ID, "b", tt.bWon) }()
				wg.Wait()

				got := outcomes(t, m, ses.ID)
				if got["a"] != tt.wantA || got["b"] != tt.wantB {
					t.Fatalf("round %d: outcomes = %v", round, got)
				}
				cur, _ := m.GetSession(ctx, ses.ID)
				if cur.Status != game.StatusCompleted {
					t.Fatalf("round %d: status = %s", round, cur.Status)
				}
			}
		})
	}
}

func TestJoinSession(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	solo := mustCreate(t, s, "h1", game.ModeSolo)
	if err := s.JoinSession(ctx, solo.ID, "g1"); !errors.Is(err, game.ErrNotJoinable) {
		t.Errorf("join solo: %v", err)
	}
	if err := s.JoinSession(ctx, "missing", "g1"); !errors.Is(err, game.ErrNotJoinable) {
		t.Errorf("join missing: %v", err)
	}

	duel := startDuel(t, s, "h2", "g2")
	if err := s.JoinSession(ctx, duel.ID, "g2"); err != nil {
		t.Errorf("rejoin should be a no-op: %v", err)
	}
	if err := s.JoinSession(ctx, duel.ID, "g3"); !errors.Is(err, game.ErrNotJoinable) {
		t.Errorf("join full session: %v", err)
	}

	other := mustCreate(t, s, "h3", game.ModeMultiplayer)
	if err := s.JoinSession(ctx, other.ID, "g2"); !errors.Is(err, game.ErrAlreadyActive) {
		t.Errorf("join while active elsewhere: %v", err)
	}

	mustGuess(t, s, duel.ID, "h2", "crane")
	if err := s.JoinSession(ctx, duel.ID, "g4"); !errors.Is(err, game.ErrNotJoinable) {
		t.Errorf("join completed session: %v", err)
	}
}

func TestStatsStreak(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	// chronological: won, lost, won, won -> most recent first: won, won, lost, won
	for _, win := range []bool{true, false, true, true} {
		ses := mustCreate(t, s, "stan", game.ModeSolo)
		if win {
			mustGuess(t, s, ses.ID, "stan", "crane")
		} else {
			for i := 0; i < game.MaxAttempts; i++ {
				mustGuess(t, s, ses.ID, "stan", "slate")
			}
		}
		time.Sleep(time.Millisecond)
	}

	st, err := s.Stats(ctx, "stan")
	if err != nil {
		t.Fatal(err)
	}
	want := game.Stats{Wins: 3, Losses: 1, CurrentStreak: 2}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}

	lb, err := s.Leaderboard(ctx, 5)
	if err != nil || len(lb) != 1 || lb[0].Wins != 3 {
		t.Errorf("Leaderboard = %+v, %v", lb, err)
	}
	hist, err := s.ListSessions(ctx, "stan", store.SessionFilter{Outcome: game.OutcomeLost})
	if err != nil || len(hist) != 1 {
		t.Errorf("ListSessions(lost) = %+v, %v", hist, err)
	}
}

// failingStore fails SetOutcome, after the guess was already recorded.
type failingStore struct {
	store.Store
}

func (failingStore) SetOutcome(context.Context, string, string, game.Outcome, bool) (bool, error) {
	return false, errors.New("disk full")
}

func TestPartialPersistenceError(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	_ = m.SeedWords(ctx, []game.Word{{Text: "CRANE"}})
	s := New(failingStore{m})

	ses := mustCreate(t, s, "pat", game.ModeSolo)
	_, err := s.SubmitGuess(ctx, ses.ID, "pat", "crane")
	if !errors.Is(err, game.ErrPersistence) || !game.IsPartial(err) {
		t.Fatalf("got %v, want partial persistence error", err)
	}
	if n, _ := m.CountGuesses(ctx, ses.ID, "pat"); n != 1 {
		t.Errorf("guess should have been recorded, count = %d", n)
	}
}

// slowGuessStore widens the window between the attempt check and the write.
type slowGuessStore struct {
	store.Store
}

func (s slowGuessStore) AddGuess(ctx context.Context, g *game.Guess, max int) (bool, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.AddGuess(ctx, g, max)
}

func TestConcurrentGuessesRespectAttemptCap(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	_ = m.SeedWords(ctx, []game.Word{{Text: "CRANE"}})
	s := New(slowGuessStore{m})

	ses := mustCreate(t, s, "quinn", game.ModeSolo)
	for i := 0; i < game.MaxAttempts-1; i++ {
		mustGuess(t, s, ses.ID, "quinn", "slate")
	}

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.SubmitGuess(ctx, ses.ID, "quinn", "slate")
		}(i)
	}
	wg.Wait()

	if n, _ := m.CountGuesses(ctx, ses.ID, "quinn"); n != game.MaxAttempts {
		t.Errorf("recorded %d guesses, want %d", n, game.MaxAttempts)
	}
	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, game.ErrNotActive):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("accepted %d of the concurrent guesses, want 1 (errs=%v)", accepted, errs)
	}
}

// brokenSessionStore fails session lookups with a real store error.
type brokenSessionStore struct {
	store.Store
}

func (brokenSessionStore) GetSession(context.Context, string) (*game.Session, error) {
	return nil, errors.New("connection reset")
}

func TestGuessByOutsiderSurfacesStoreFailure(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	_ = m.SeedWords(ctx, []game.Word{{Text: "CRANE"}})
	ses := mustCreate(t, New(m), "owner", game.ModeSolo)

	_, err := New(brokenSessionStore{m}).SubmitGuess(ctx, ses.ID, "outsider", "crane")
	if !errors.Is(err, game.ErrPersistence) {
		t.Errorf("got %v, want persistence error", err)
	}
	if errors.Is(err, game.ErrUnauthorized) {
		t.Error("store failure must not be reported as unauthorized")
	}
}

func TestAbandonSession(t *testing.T) {
	s, m := newService(t)
	ctx := context.Background()

	ses := mustCreate(t, s, "olga", game.ModeMultiplayer)
	if ok, err := s.AbandonSession(ctx, ses.ID, "olga"); !ok || err != nil {
		t.Fatalf("AbandonSession = %v, %v", ok, err)
	}
	if cur, err := s.ActiveSession(ctx, "olga", game.ModeMultiplayer); cur != nil || err != nil {
		t.Errorf("ActiveSession after abandon = %+v, %v", cur, err)
	}
	if err := s.JoinSession(ctx, ses.ID, "pete"); !errors.Is(err, game.ErrNotJoinable) {
		t.Errorf("join abandoned session = %v, want ErrNotJoinable", err)
	}
	if c, err := s.CreateSession(ctx, "olga", game.ModeMultiplayer); err != nil || c.Existing || c.Session.ID == ses.ID {
		t.Errorf("CreateSession after abandon = %+v, %v", c, err)
	}
	if list, _ := m.ListSessions(ctx, "olga", store.SessionFilter{}); len(list) != 1 {
		t.Errorf("abandoned session should leave no history, got %d", len(list))
	}

	joined := mustCreate(t, s, "rita", game.ModeMultiplayer)
	if err := s.JoinSession(ctx, joined.ID, "sam"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.AbandonSession(ctx, joined.ID, "rita"); ok {
		t.Error("a joined session must not be abandoned")
	}
	if ok, _ := s.AbandonSession(ctx, "nope", "rita"); ok {
		t.Error("abandoning a missing session should report false")
	}
}
