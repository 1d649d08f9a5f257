// Package sqlstore implements store.Store on database/sql for SQLite and
// PostgreSQL. Uniqueness invariants live in the schema (partial unique
// indexes); violations surface as store.ErrConflict.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/store"
)

// Store is the SQL-backed store.Store.
type Store struct {
	db *DB
}

var _ store.Store = (*Store)(nil)

// timeLayout sorts lexically in the same order as time.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTS(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTS(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTS(s.String)
	return &t
}

// DB exposes the underlying handle (health checks, tests).
func (s *Store) DB() *DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// mapErr converts driver errors into store sentinels.
func (s *Store) mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case s.db.Dialect.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}

/* --------------------------------- words --------------------------------- */

func (s *Store) SeedWords(ctx context.Context, words []game.Word) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, w := range words {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO words(text, definition, part_of_speech) VALUES (?, ?, ?)
			 ON CONFLICT(text) DO NOTHING`,
			w.Text, w.Definition, w.PartOfSpeech,
		); err != nil {
			return fmt.Errorf("seed %s: %w", w.Text, err)
		}
	}
	return tx.Commit()
}

func (s *Store) CountWords(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n)
	return n, err
}

func (s *Store) RandomWordID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM words ORDER BY RANDOM() LIMIT 1`).Scan(&id)
	return id, s.mapErr(err)
}

func (s *Store) NthWordID(ctx context.Context, n int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM words ORDER BY id LIMIT 1 OFFSET ?`, n).Scan(&id)
	return id, s.mapErr(err)
}

func (s *Store) GetWord(ctx context.Context, id int64) (*game.Word, error) {
	w := &game.Word{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, definition, part_of_speech FROM words WHERE id=?`, id,
	).Scan(&w.ID, &w.Text, &w.Definition, &w.PartOfSpeech)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return w, nil
}

/* -------------------------------- sessions ------------------------------- */

const sessionCols = `s.id, s.mode, s.status, s.secret_word_id, s.owner_id, s.day_key, s.created_at`

type scanner interface{ Scan(dest ...any) error }

func scanSession(row scanner, extra ...any) (*game.Session, error) {
	var (
		ses     game.Session
		created string
	)
	dest := append([]any{&ses.ID, &ses.Mode, &ses.Status, &ses.SecretWordID, &ses.OwnerID, &ses.DayKey, &created}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	ses.CreatedAt = parseTS(created)
	return &ses, nil
}

func (s *Store) CreateSession(ctx context.Context, ses *game.Session, owner *game.Participant) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions(id, mode, status, secret_word_id, owner_id, day_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ses.ID, ses.Mode, ses.Status, ses.SecretWordID, ses.OwnerID, ses.DayKey, ts(ses.CreatedAt),
	); err != nil {
		return s.mapErr(err)
	}
	if err := insertParticipant(ctx, tx, owner); err != nil {
		return s.mapErr(err)
	}
	return s.mapErr(tx.Commit())
}

func insertParticipant(ctx context.Context, q querier, p *game.Participant) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO participants(session_id, player_id, mode, day_key, outcome, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.SessionID, p.PlayerID, p.Mode, p.DayKey, p.Outcome, ts(p.JoinedAt),
	)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*game.Session, error) {
	ses, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+` FROM sessions s WHERE s.id=?`, id))
	if err != nil {
		return nil, s.mapErr(err)
	}
	return ses, nil
}

func (s *Store) ActiveSession(ctx context.Context, playerID string, mode game.Mode, dayKey string) (*game.Session, error) {
	ses, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT `+sessionCols+`
		 FROM sessions s JOIN participants p ON p.session_id = s.id
		 WHERE p.player_id=? AND p.mode=? AND p.day_key=?
		   AND (p.outcome='pending' OR p.mode='daily_challenge')
		 ORDER BY p.joined_at DESC
		 LIMIT 1`,
		playerID, mode, dayKey))
	if err != nil {
		return nil, s.mapErr(err)
	}
	return ses, nil
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, from, to game.Status) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status=? WHERE id=? AND status=?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) ListSessions(ctx context.Context, playerID string, f store.SessionFilter) ([]game.SessionSummary, error) {
	q := `SELECT ` + sessionCols + `, p.outcome
	      FROM sessions s JOIN participants p ON p.session_id = s.id
	      WHERE p.player_id=?`
	args := []any{playerID}
	if f.Mode != "" {
		q += ` AND s.mode=?`
		args = append(args, f.Mode)
	}
	if f.Status != "" {
		q += ` AND s.status=?`
		args = append(args, f.Status)
	}
	if f.Outcome != "" {
		q += ` AND p.outcome=?`
		args = append(args, f.Outcome)
	}
	q += ` ORDER BY s.created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []game.SessionSummary{}
	for rows.Next() {
		var o game.Outcome
		ses, err := scanSession(rows, &o)
		if err != nil {
			return nil, err
		}
		out = append(out, game.SessionSummary{Session: *ses, Outcome: o})
	}
	return out, rows.Err()
}

// AbandonSession takes the same session row lock as AddParticipant, so an
// abandon and a join never both succeed. A join that lands after the
// abandon sees the completed status and is rolled back by the caller.
func (s *Store) AbandonSession(ctx context.Context, sessionID, playerID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var sid string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE id=? AND mode=? AND status=?`+s.db.Dialect.ForUpdate(),
		sessionID, game.ModeMultiplayer, game.StatusStarted,
	).Scan(&sid)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var count, mine int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN player_id=? THEN 1 ELSE 0 END), 0)
		 FROM participants WHERE session_id=?`,
		playerID, sessionID,
	).Scan(&count, &mine); err != nil {
		return false, err
	}
	if count != 1 || mine != 1 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM participants WHERE session_id=? AND player_id=?`, sessionID, playerID); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status=? WHERE id=?`, game.StatusCompleted, sessionID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

/* ------------------------------ participants ----------------------------- */

const participantCols = `session_id, player_id, mode, day_key, outcome, joined_at, resolved_at`

func scanParticipant(row scanner) (*game.Participant, error) {
	var (
		p        game.Participant
		joined   string
		resolved sql.NullString
	)
	if err := row.Scan(&p.SessionID, &p.PlayerID, &p.Mode, &p.DayKey, &p.Outcome, &joined, &resolved); err != nil {
		return nil, err
	}
	p.JoinedAt = parseTS(joined)
	p.ResolvedAt = nullTS(resolved)
	return &p, nil
}

// AddParticipant locks the session row (postgres) or holds the immediate
// write lock (sqlite) while counting, so the cap check and insert are atomic.
func (s *Store) AddParticipant(ctx context.Context, p *game.Participant, max int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var sid string
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE id=?`+s.db.Dialect.ForUpdate(), p.SessionID,
	).Scan(&sid); err != nil {
		return false, s.mapErr(err)
	}

	var member, count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN player_id=? THEN 1 ELSE 0 END), 0)
		 FROM participants WHERE session_id=?`,
		p.PlayerID, p.SessionID,
	).Scan(&count, &member); err != nil {
		return false, err
	}
	if member > 0 {
		return true, nil
	}
	if count >= max {
		return false, nil
	}
	if err := insertParticipant(ctx, tx, p); err != nil {
		return false, s.mapErr(err)
	}
	if err := tx.Commit(); err != nil {
		return false, s.mapErr(err)
	}
	return true, nil
}

func (s *Store) RemoveParticipant(ctx context.Context, sessionID, playerID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM participants WHERE session_id=? AND player_id=?`, sessionID, playerID)
	return err
}

func (s *Store) GetParticipant(ctx context.Context, sessionID, playerID string) (*game.Participant, error) {
	p, err := scanParticipant(s.db.QueryRowContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE session_id=? AND player_id=?`,
		sessionID, playerID))
	if err != nil {
		return nil, s.mapErr(err)
	}
	return p, nil
}

func (s *Store) ListParticipants(ctx context.Context, sessionID string) ([]game.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+participantCols+` FROM participants WHERE session_id=? ORDER BY joined_at, player_id`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Participant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func resolvedAt(o game.Outcome) sql.NullString {
	if !o.Resolved() {
		return sql.NullString{}
	}
	return sql.NullString{String: ts(time.Now()), Valid: true}
}

func (s *Store) SetOutcome(ctx context.Context, sessionID, playerID string, to game.Outcome, onlyPending bool) (bool, error) {
	q := `UPDATE participants SET outcome=?, resolved_at=? WHERE session_id=? AND player_id=?`
	if onlyPending {
		q += ` AND outcome='pending'`
	}
	res, err := s.db.ExecContext(ctx, q, to, resolvedAt(to), sessionID, playerID)
	if err != nil {
		return false, s.mapErr(err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *Store) UpdateOutcomes(ctx context.Context, sessionID string, from, to game.Outcome, exceptPlayer string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE participants SET outcome=?, resolved_at=?
		 WHERE session_id=? AND outcome=? AND player_id<>?`,
		to, resolvedAt(to), sessionID, from, exceptPlayer)
	if err != nil {
		return 0, s.mapErr(err)
	}
	return res.RowsAffected()
}

func (s *Store) CountOutcome(ctx context.Context, sessionID string, o game.Outcome) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE session_id=? AND outcome=?`, sessionID, o).Scan(&n)
	return n, err
}

func (s *Store) CountPlayerOutcome(ctx context.Context, playerID string, o game.Outcome) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE player_id=? AND outcome=?`, playerID, o).Scan(&n)
	return n, err
}

func (s *Store) RecentOutcomes(ctx context.Context, playerID string, limit int) ([]game.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.outcome
		 FROM participants p JOIN sessions s ON s.id = p.session_id
		 WHERE p.player_id=? AND p.outcome<>'pending' AND p.resolved_at IS NOT NULL
		 ORDER BY p.resolved_at DESC, s.created_at DESC
		 LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []game.Outcome
	for rows.Next() {
		var o game.Outcome
		if err := rows.Scan(&o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) TopWinners(ctx context.Context, limit int) ([]game.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.player_id, COALESCE(u.username, ''), COUNT(*) AS wins
		 FROM participants p LEFT JOIN users u ON u.id = p.player_id
		 WHERE p.outcome='won'
		 GROUP BY p.player_id, u.username
		 ORDER BY wins DESC, p.player_id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.LeaderboardEntry{}
	for rows.Next() {
		var e game.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Name, &e.Wins); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

/* -------------------------------- guesses -------------------------------- */

// AddGuess counts the player's guesses and inserts the next attempt in one
// transaction. The unique (session, player, attempt) index rejects a
// concurrent insert for the same slot; the loop then re-counts.
func (s *Store) AddGuess(ctx context.Context, g *game.Guess, max int) (bool, error) {
	result, err := json.Marshal(g.Result)
	if err != nil {
		return false, err
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	for attempt := 0; attempt < max+1; attempt++ {
		ok, err := s.addGuess(ctx, g, string(result), max)
		if err != nil && s.db.Dialect.IsUniqueViolation(err) {
			continue
		}
		return ok, s.mapErr(err)
	}
	return false, nil
}

func (s *Store) addGuess(ctx context.Context, g *game.Guess, result string, max int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guesses WHERE session_id=? AND player_id=?`, g.SessionID, g.PlayerID,
	).Scan(&n); err != nil {
		return false, err
	}
	if n >= max {
		return false, nil
	}
	id, err := insertReturningID(ctx, tx, s.db.Dialect,
		`INSERT INTO guesses(session_id, player_id, attempt, guess, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		g.SessionID, g.PlayerID, n+1, g.Text, result, ts(g.CreatedAt))
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	g.ID, g.Attempt = id, n+1
	return true, nil
}

func (s *Store) ListGuesses(ctx context.Context, sessionID, playerID string) ([]game.Guess, error) {
	q := `SELECT id, session_id, player_id, attempt, guess, result, created_at FROM guesses WHERE session_id=?`
	args := []any{sessionID}
	if playerID != "" {
		q += ` AND player_id=?`
		args = append(args, playerID)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Guess{}
	for rows.Next() {
		var (
			g               game.Guess
			result, created string
		)
		if err := rows.Scan(&g.ID, &g.SessionID, &g.PlayerID, &g.Attempt, &g.Text, &result, &created); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(result), &g.Result); err != nil {
			return nil, fmt.Errorf("decode guess %d: %w", g.ID, err)
		}
		g.CreatedAt = parseTS(created)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) CountGuesses(ctx context.Context, sessionID, playerID string) (int, error) {
	q := `SELECT COUNT(*) FROM guesses WHERE session_id=?`
	args := []any{sessionID}
	if playerID != "" {
		q += ` AND player_id=?`
		args = append(args, playerID)
	}
	var n int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

/* ----------------------------- daily results ----------------------------- */

func (s *Store) RecordDailyResult(ctx context.Context, r *game.DailyResult) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_results(player_id, day_key, session_id, guesses, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id, day_key) DO NOTHING`,
		r.PlayerID, r.DayKey, r.SessionID, r.Guesses, r.ElapsedMs, ts(r.CreatedAt))
	return err
}

func (s *Store) DailyLeaderboard(ctx context.Context, dayKey string, limit int) ([]game.DailyResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, day_key, session_id, guesses, elapsed_ms, created_at
		 FROM daily_results
		 WHERE day_key=?
		 ORDER BY elapsed_ms ASC, guesses ASC, created_at ASC
		 LIMIT ?`, dayKey, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.DailyResult{}
	for rows.Next() {
		var (
			r       game.DailyResult
			created string
		)
		if err := rows.Scan(&r.PlayerID, &r.DayKey, &r.SessionID, &r.Guesses, &r.ElapsedMs, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = parseTS(created)
		out = append(out, r)
	}
	return out, rows.Err()
}

/* --------------------------------- users --------------------------------- */

func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, ts(u.CreatedAt))
	return s.mapErr(err)
}

func (s *Store) userBy(ctx context.Context, col, v string) (*store.User, error) {
	var (
		u       store.User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE `+col+`=?`, v,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err != nil {
		return nil, s.mapErr(err)
	}
	u.CreatedAt = parseTS(created)
	return &u, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.userBy(ctx, "username", username)
}

func (s *Store) UserByID(ctx context.Context, id string) (*store.User, error) {
	return s.userBy(ctx, "id", id)
}
