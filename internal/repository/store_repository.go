package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// StoreRepo encapsulates all database queries related to stores.
type StoreRepo struct {
	db *sql.DB
}

func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// storeRow is a store joined with its live rating average (NULL when the
// store has no ratings).
type storeRow struct {
	model.Store
	LiveAverage *float64
}

func scanStoreRow(s rowScanner) (*storeRow, error) {
	var (
		row   storeRow
		owner sql.NullInt64
		avg   sql.NullFloat64
	)
	if err := s.Scan(&row.ID, &row.Name, &row.Email, &row.Address, &owner, &row.AverageRating, &avg); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := uint64(owner.Int64)
		row.OwnerID = &id
	}
	if avg.Valid {
		row.LiveAverage = &avg.Float64
	}
	return &row, nil
}

func (row *storeRow) view() model.StoreView {
	return model.StoreView{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Address:       row.Address,
		OwnerID:       row.OwnerID,
		AverageRating: model.FormatAverage(row.LiveAverage, 2),
	}
}

const storeSelect = `SELECT s.id, s.name, s.email, s.address, s.owner_id, s.average_rating,
	(SELECT AVG(r.rating) FROM ratings r WHERE r.store_id = s.id) AS live_average
	FROM stores s`

// EmailExists reports whether another store already uses email.  excludeID
// skips the store being updated; pass 0 on create.
func (r *StoreRepo) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM stores WHERE email=? AND id<>? LIMIT 1", email, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check store email: %w", err)
	}
	return true, nil
}

// Create inserts a store and returns its id.
func (r *StoreRepo) Create(ctx context.Context, s *model.Store) (uint64, error) {
	var owner any
	if s.OwnerID != nil {
		owner = *s.OwnerID
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO stores (name, email, address, owner_id) VALUES (?,?,?,?)",
		s.Name, s.Email, s.Address, owner)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert store: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert store: %w", err)
	}
	s.ID = uint64(id)
	return s.ID, nil
}

// Exists reports whether a store with id exists.
func (r *StoreRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var got uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM stores WHERE id=?", id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check store: %w", err)
	}
	return true, nil
}

// GetView returns the admin view of store id.
func (r *StoreRepo) GetView(ctx context.Context, id uint64) (*model.StoreView, error) {
	row, err := scanStoreRow(r.db.QueryRowContext(ctx, storeSelect+" WHERE s.id=?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	v := row.view()
	return &v, nil
}

// GetByOwner returns the first store owned by ownerID together with its live
// average (nil without ratings).
func (r *StoreRepo) GetByOwner(ctx context.Context, ownerID uint64) (*model.Store, *float64, error) {
	row, err := scanStoreRow(r.db.QueryRowContext(ctx, storeSelect+" WHERE s.owner_id=? ORDER BY s.id LIMIT 1", ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get store by owner: %w", err)
	}
	return &row.Store, row.LiveAverage, nil
}

var storeSortColumns = map[string]string{
	"name":    "s.name",
	"email":   "s.email",
	"address": "s.address",
	"rating":  "live_average",
}

// List returns the admin view of stores matching f.
func (r *StoreRepo) List(ctx context.Context, f model.StoreFilter) ([]model.StoreView, error) {
	where, args := storeWhere(f)
	q := storeSelect + where
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	q += " ORDER BY " + sortColumn(storeSortColumns, f.Sort, "s.id") + " " + dir

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	out := []model.StoreView{}
	for rows.Next() {
		row, err := scanStoreRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list stores: %w", err)
		}
		out = append(out, row.view())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return out, nil
}

func storeWhere(f model.StoreFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, "s.name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.Email != "" {
		where = append(where, "s.email LIKE ?")
		args = append(args, "%"+f.Email+"%")
	}
	if f.Address != "" {
		where = append(where, "s.address LIKE ?")
		args = append(args, "%"+f.Address+"%")
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// ListForUser returns every store matching f annotated with userID's own
// rating.  The overall rating is the live average, 0 without ratings.
func (r *StoreRepo) ListForUser(ctx context.Context, userID uint64, f model.StoreFilter) ([]model.UserStoreView, error) {
	where, args := storeWhere(f)
	q := `SELECT s.id, s.name, s.address,
		COALESCE((SELECT AVG(a.rating) FROM ratings a WHERE a.store_id = s.id), 0),
		ur.rating, ur.id
		FROM stores s
		LEFT JOIN ratings ur ON ur.store_id = s.id AND ur.user_id = ?` + where + ` ORDER BY s.id ASC`

	rows, err := r.db.QueryContext(ctx, q, append([]any{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list stores for user: %w", err)
	}
	defer rows.Close()

	out := []model.UserStoreView{}
	for rows.Next() {
		var (
			v        model.UserStoreView
			overall  float64
			rating   sql.NullInt64
			ratingID sql.NullInt64
		)
		if err := rows.Scan(&v.StoreID, &v.StoreName, &v.StoreAddress, &overall, &rating, &ratingID); err != nil {
			return nil, fmt.Errorf("list stores for user: %w", err)
		}
		v.OverallRating = model.FormatAverage(&overall, 1)
		if rating.Valid {
			n := int(rating.Int64)
			v.UserSubmittedRating = &n
		}
		if ratingID.Valid {
			id := uint64(ratingID.Int64)
			v.UserRatingID = &id
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stores for user: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of upd to store id.
func (r *StoreRepo) Update(ctx context.Context, id uint64, upd model.StoreUpdate) error {
	var (
		set  []string
		args []any
	)
	if upd.Name != nil {
		set = append(set, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		set = append(set, "email=?")
		args = append(args, *upd.Email)
	}
	if upd.Address != nil {
		set = append(set, "address=?")
		args = append(args, *upd.Address)
	}
	switch {
	case upd.ClearOwner:
		set = append(set, "owner_id=NULL")
	case upd.OwnerID != nil:
		set = append(set, "owner_id=?")
		args = append(args, *upd.OwnerID)
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, "UPDATE stores SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a store and its ratings within one transaction.
func (r *StoreRepo) Delete(ctx context.Context, id uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM ratings WHERE store_id=?", id); err != nil {
		return fmt.Errorf("delete store: ratings: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM stores WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

// RecomputeAverage refreshes the cached stores.average_rating column from
// the ratings table and returns the new value (0 without ratings).
func (r *StoreRepo) RecomputeAverage(ctx context.Context, storeID uint64) (float64, error) {
	var avg float64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE store_id=?", storeID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("recompute average: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		"UPDATE stores SET average_rating=? WHERE id=?", avg, storeID); err != nil {
		return 0, fmt.Errorf("recompute average: %w", err)
	}
	return avg, nil
}

// Count returns the number of stores.
func (r *StoreRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(id) FROM stores").Scan(&n); err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return n, nil
}
