package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// RatingRepo persists store ratings.
type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo {
	return &RatingRepo{db: db}
}

// Create inserts a rating.  A second rating by the same user for the same
// store violates the (user_id, store_id) unique key and yields ErrDuplicate.
func (r *RatingRepo) Create(ctx context.Context, rt *model.Rating) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO ratings (user_id, store_id, rating) VALUES (?,?,?)",
		rt.UserID, rt.StoreID, rt.Rating)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert rating: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert rating: %w", err)
	}
	rt.ID = uint64(id)
	return rt.ID, nil
}

// GetByID fetches a rating by id.
func (r *RatingRepo) GetByID(ctx context.Context, id uint64) (*model.Rating, error) {
	var rt model.Rating
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, store_id, rating, created_at, updated_at FROM ratings WHERE id=?", id).
		Scan(&rt.ID, &rt.UserID, &rt.StoreID, &rt.Rating, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rating: %w", err)
	}
	return &rt, nil
}

// ExistsForUser reports whether userID already rated storeID.
func (r *RatingRepo) ExistsForUser(ctx context.Context, userID, storeID uint64) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM ratings WHERE user_id=? AND store_id=? LIMIT 1", userID, storeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check rating: %w", err)
	}
	return true, nil
}

// UpdateValue sets the rating value of id.
func (r *RatingRepo) UpdateValue(ctx context.Context, id uint64, value int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE ratings SET rating=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", value, id)
	if err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForStore returns the ratings a store received, newest first, with the
// rater's name and email.
func (r *RatingRepo) ListForStore(ctx context.Context, storeID uint64) ([]model.ReceivedRating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.id, u.name, u.email, r.rating, r.created_at
		 FROM ratings r
		 JOIN users u ON r.user_id = u.id
		 WHERE r.store_id = ?
		 ORDER BY r.created_at DESC`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store ratings: %w", err)
	}
	defer rows.Close()

	out := []model.ReceivedRating{}
	for rows.Next() {
		var rr model.ReceivedRating
		if err := rows.Scan(&rr.UserID, &rr.UserName, &rr.UserEmail, &rr.SubmittedRating, &rr.RatingDate); err != nil {
			return nil, fmt.Errorf("list store ratings: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list store ratings: %w", err)
	}
	return out, nil
}

// Count returns the number of ratings.
func (r *RatingRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM ratings").Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}
