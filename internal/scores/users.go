package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrNoUser        = errors.New("user not found")
)

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	BestScore    int       `json:"bestScore"`
	TotalScore   int       `json:"totalScore"`
}

// CreateUser inserts a user with an already hashed password.
func (s *Store) CreateUser(ctx context.Context, id, username, passwordHash string) (*User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	now := nowRFC3339()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, username, passwordHash, now,
	); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: parseTime(now)}, nil
}

// FindUserByUsername loads a user case-insensitively, or ErrNoUser.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at, games_played, best_score, total_score
        FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// FindUserByID loads a user, or ErrNoUser.
func (s *Store) FindUserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at, games_played, best_score, total_score
        FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.BestScore, &u.TotalScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoUser
		}
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
