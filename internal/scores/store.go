// internal/scores/store.go
//
// Persistence for finished games.
// Responsibilities:
//   - Record every finished game in results (owner = user or anonymous cookie).
//   - Record the first finished daily game per player per date in daily_results.
//   - Keep per-user counters (games played, best and total score) in step.
//   - Serve leaderboards and recent-game history.

package scores

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Result is one finished game as stored.
type Result struct {
	SessionID   string
	UserID      string // empty for guests
	AnonymousID string // guest cookie, empty for users
	Mode        string // "classic" | "daily"
	Date        string // YYYY-MM-DD
	Score       int
	Length      int
	Ticks       int
	Won         bool
	ElapsedMs   int
}

// PlayerID is the identity used for once-per-day daily attempts.
func (r Result) PlayerID() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.AnonymousID
}

// LBRow is one leaderboard line.
type LBRow struct {
	Player    string `json:"player"`
	Score     int    `json:"score"`
	Length    int    `json:"length"`
	ElapsedMs int    `json:"elapsedMs"`
	Date      string `json:"date"`
}

// GameRow is one entry of a player's history.
type GameRow struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
	Score     int    `json:"score"`
	Length    int    `json:"length"`
	Ticks     int    `json:"ticks"`
	Won       bool   `json:"won"`
	ElapsedMs int    `json:"elapsedMs"`
	CreatedAt string `json:"createdAt"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// InsertResult records r. For daily games the per-date row is only written
// the first time (UNIQUE(player_id, date)); it reports whether it was.
func (s *Store) InsertResult(ctx context.Context, r Result) (dailyRecorded bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO results
            (session_id, user_id, anonymous_id, mode, date, score, length, ticks, won, elapsed_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, nullable(r.UserID), nullable(r.AnonymousID), r.Mode, r.Date,
		r.Score, r.Length, r.Ticks, r.Won, r.ElapsedMs,
	); err != nil {
		return false, fmt.Errorf("insert result: %w", err)
	}

	if r.Mode == "daily" && r.PlayerID() != "" {
		res, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO daily_results (player_id, date, score, length, elapsed_ms)
            VALUES (?, ?, ?, ?, ?)`,
			r.PlayerID(), r.Date, r.Score, r.Length, r.ElapsedMs,
		)
		if err != nil {
			return false, fmt.Errorf("insert daily result: %w", err)
		}
		n, _ := res.RowsAffected()
		dailyRecorded = n > 0
	}

	if r.UserID != "" {
		if _, err := tx.ExecContext(ctx, `
            UPDATE users
            SET games_played = games_played + 1,
                total_score  = total_score + ?,
                best_score   = MAX(best_score, ?)
            WHERE id = ?`, r.Score, r.Score, r.UserID,
		); err != nil {
			return false, fmt.Errorf("bump stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return dailyRecorded, nil
}

// AlreadyPlayed reports whether player has a recorded daily game for date.
func (s *Store) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE player_id=? AND date=?`,
		playerID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

/**
 * Leaderboard fetches the best classic games of all time.
 *
 * - Ordered by score DESC, then elapsed time ASC, then insertion order.
 * - Default limit is 20 if not specified.
 */
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT COALESCE(u.username, 'guest'), r.score, r.length, r.elapsed_ms, r.date
        FROM results r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.mode = 'classic'
        ORDER BY r.score DESC, r.elapsed_ms ASC, r.id ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanLB(rows, limit)
}

// DailyLeaderboard fetches the top daily attempts for date.
func (s *Store) DailyLeaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT COALESCE(u.username, 'guest'), d.score, d.length, d.elapsed_ms, d.date
        FROM daily_results d
        LEFT JOIN users u ON u.id = d.player_id
        WHERE d.date = ?
        ORDER BY d.score DESC, d.elapsed_ms ASC, d.created_at ASC
        LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	return scanLB(rows, limit)
}

// Recent returns a user's latest games, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, mode, score, length, ticks, won, elapsed_ms, created_at
        FROM results
        WHERE user_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GameRow, 0, limit)
	for rows.Next() {
		var g GameRow
		if err := rows.Scan(&g.SessionID, &g.Mode, &g.Score, &g.Length, &g.Ticks, &g.Won, &g.ElapsedMs, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ClaimAnonymous moves a guest's history onto a user account after login.
func (s *Store) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE results SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID,
	); err != nil {
		return fmt.Errorf("claim results: %w", err)
	}
	// A user who already played today's daily keeps their own row.
	if _, err := tx.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET player_id=? WHERE player_id=?`, userID, anonID,
	); err != nil {
		return fmt.Errorf("claim daily results: %w", err)
	}
	return tx.Commit()
}

func scanLB(rows *sql.Rows, limit int) ([]LBRow, error) {
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Player, &r.Score, &r.Length, &r.ElapsedMs, &r.Date); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nowRFC3339 is the timestamp format used for columns written from Go.
func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
