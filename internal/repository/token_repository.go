package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// TokenRepo persists refresh tokens.  A row lives from login until logout or
// until its user is deleted; refresh never rewrites it.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row.
func (r *TokenRepo) Store(ctx context.Context, userID uint64, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token, expires_at) VALUES (?,?,?)",
		userID, token, expiresAt.UTC())
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// FindActive returns the row for token if it expires after now.
func (r *TokenRepo) FindActive(ctx context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token=? AND expires_at > ? LIMIT 1",
		token, now.UTC()).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &t, nil
}

// Delete removes the row for token and reports how many rows went away.
func (r *TokenRepo) Delete(ctx context.Context, token string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token=?", token)
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete refresh token: %w", err)
	}
	return n, nil
}

// DeleteExpired purges rows that expired before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
