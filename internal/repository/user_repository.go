package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/store-rating-api/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, name, email, password, address, role, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u       model.User
		address sql.NullString
		role    string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &address, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if address.Valid {
		u.Address = &address.String
	}
	u.Role = model.Role(role)
	return &u, nil
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// EmailExists reports whether another user already holds email.  excludeID
// skips the user being updated; pass 0 on create.
func (r *UserRepo) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND id<>? LIMIT 1", email, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return true, nil
}

// Create inserts u and returns its ID.  The unique index on email turns a
// concurrent duplicate into ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password, address, role) VALUES (?,?,?,?,?)",
		u.Name, u.Email, u.PasswordHash, nullableString(u.Address), string(u.Role))
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// UpdatePassword stores a new password digest.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var userSortColumns = map[string]string{
	"name":       "name",
	"email":      "email",
	"address":    "address",
	"role":       "role",
	"created_at": "created_at",
}

// List returns users matching f.  Name, email and address are substring
// matches; role is exact.
func (r *UserRepo) List(ctx context.Context, f model.UserFilter) ([]model.User, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.Name+"%")
	}
	if f.Email != "" {
		where = append(where, "email LIKE ?")
		args = append(args, "%"+f.Email+"%")
	}
	if f.Address != "" {
		where = append(where, "address LIKE ?")
		args = append(args, "%"+f.Address+"%")
	}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, string(f.Role))
	}
	q := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	q += " ORDER BY " + sortColumn(userSortColumns, f.Sort, "id") + " " + dir

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of upd to user id.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd model.UserUpdate) error {
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
		args = append(args, nullableString(upd.Address))
	}
	if upd.Role != nil {
		set = append(set, "role=?")
		args = append(args, string(*upd.Role))
	}
	if upd.PasswordHash != nil {
		set = append(set, "password=?")
		args = append(args, *upd.PasswordHash)
	}
	set = append(set, "updated_at=CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user together with everything that hangs off it: refresh
// tokens and ratings are deleted, owned stores are detached (owner_id set to
// NULL, the stores survive).  It returns the ids of stores that lost ratings
// so their cached averages can be recomputed.  The deletion occurs within a
// transaction; if the user does not exist nothing is changed and ErrNotFound
// is returned.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (rated []uint64, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var exists uint64
	if err = tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT DISTINCT store_id FROM ratings WHERE user_id=?", id)
	if err != nil {
		return nil, fmt.Errorf("delete user: rated stores: %w", err)
	}
	for rows.Next() {
		var sid uint64
		if err = rows.Scan(&sid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("delete user: rated stores: %w", err)
		}
		rated = append(rated, sid)
	}
	if err = rows.Close(); err != nil {
		return nil, fmt.Errorf("delete user: rated stores: %w", err)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("delete user: rated stores: %w", err)
	}

	steps := []struct {
		what string
		q    string
	}{
		{"refresh tokens", "DELETE FROM refresh_tokens WHERE user_id=?"},
		{"ratings", "DELETE FROM ratings WHERE user_id=?"},
		{"detach stores", "UPDATE stores SET owner_id=NULL WHERE owner_id=?"},
		{"user", "DELETE FROM users WHERE id=?"},
	}
	for _, s := range steps {
		if _, err = tx.ExecContext(ctx, s.q, id); err != nil {
			return nil, fmt.Errorf("delete user: %s: %w", s.what, err)
		}
	}
	return rated, nil
}

// Count returns the number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(id) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}
