package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating-api/internal/model"
)

func newMock(t *testing.T) (sqlmock.Sqlmock, func() *UserRepo) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return mock, func() *UserRepo { return NewUserRepo(db) }
}

func TestUserDelete_CommitsAndReturnsRatedStores(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id=? FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT store_id FROM ratings WHERE user_id=?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"store_id"}).AddRow(3).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id=?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ratings WHERE user_id=?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stores SET owner_id=NULL WHERE owner_id=?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rated, err := repo().Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 5}, rated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete_RollsBackOnFailure(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT store_id FROM ratings WHERE user_id=?")).
		WillReturnRows(sqlmock.NewRows([]string{"store_id"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE user_id=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ratings WHERE user_id=?")).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	_, err := repo().Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete_Missing(t *testing.T) {
	mock, repo := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id=? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo().Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_FindActiveAndDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTokenRepo(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token=? AND expires_at > ?")).
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow(1, 7, "tok", now.Add(time.Hour), now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token=? AND expires_at > ?")).
		WithArgs("gone", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE token=?")).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rt, err := repo.FindActive(context.Background(), "tok", now)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rt.UserID)
	assert.Equal(t, now.Add(time.Hour), rt.ExpiresAt)

	_, err = repo.FindActive(context.Background(), "gone", now)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.Delete(context.Background(), "tok")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingCreate_DuplicateMapsToErrDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ratings (user_id, store_id, rating) VALUES (?,?,?)")).
		WithArgs(uint64(1), uint64(2), 4).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2'"})

	_, err = NewRatingRepo(db).Create(context.Background(), &model.Rating{UserID: 1, StoreID: 2, Rating: 4})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreDelete_NotFoundRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ratings WHERE store_id=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM stores WHERE id=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = NewStoreRepo(db).Delete(context.Background(), 4)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRecomputeAverage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE store_id=?")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(3.5))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE stores SET average_rating=? WHERE id=?")).
		WithArgs(3.5, uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	avg, err := NewStoreRepo(db).RecomputeAverage(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3.5, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSortColumnWhitelist(t *testing.T) {
	allowed := map[string]string{"name": "u.name"}
	assert.Equal(t, "u.name", sortColumn(allowed, "name", "u.id"))
	assert.Equal(t, "u.id", sortColumn(allowed, "name; DROP TABLE users", "u.id"))
}

func TestStoreListForUser_AnnotatesOwnRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("LEFT JOIN ratings ur ON ur.store_id = s.id AND ur.user_id = \\? WHERE s.name LIKE \\?").
		WithArgs(uint64(2), "%Book%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "overall", "rating", "rating_id"}).
			AddRow(1, "Corner Bookshop and Coffee", "1 Main St", 4.5, 4, 10).
			AddRow(2, "Harbour Bookbinders Guild", "2 Dock Rd", 0.0, nil, nil))

	got, err := NewStoreRepo(db).ListForUser(context.Background(), 2, model.StoreFilter{Name: "Book"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4.5", got[0].OverallRating)
	assert.Equal(t, 4, *got[0].UserSubmittedRating)
	assert.Equal(t, uint64(10), *got[0].UserRatingID)
	assert.Equal(t, "0.0", got[1].OverallRating)
	assert.Nil(t, got[1].UserSubmittedRating)
	assert.Nil(t, got[1].UserRatingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetView_NoRatings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM stores s WHERE s.id=\\?").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "address", "owner_id", "average_rating", "live_average"}).
			AddRow(5, "Corner Bookshop and Coffee", "shop@example.com", "1 Main St", nil, 0.0, nil))

	v, err := NewStoreRepo(db).GetView(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, v.OwnerID)
	assert.Equal(t, "N/A", v.AverageRating)

	mock.ExpectQuery("FROM stores s WHERE s.id=\\?").
		WithArgs(uint64(6)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = NewStoreRepo(db).GetView(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
