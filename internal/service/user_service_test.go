package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/model"
)

type userFixture struct {
	users   *fakeUsers
	stores  *fakeStores
	ratings *fakeRatings
	sched   *recordingScheduler
	svc     *UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:   newFakeUsers(),
		stores:  newFakeStores(),
		ratings: newFakeRatings(),
		sched:   &recordingScheduler{},
	}
	f.svc = NewUserService(f.users, f.stores, f.ratings, plainHasher{}, f.sched, zerolog.Nop())
	return f
}

func TestAdminCreateUser(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	id, err := f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "owner@example.com", Password: testPassword, Role: "store_owner"})
	require.NoError(t, err)
	u, _ := f.users.GetByID(ctx, id)
	assert.Equal(t, model.RoleStoreOwner, u.Role)

	_, err = f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "x@example.com", Password: testPassword})
	_, msg := apperr.Public(err)
	assert.Equal(t, "Role is required for user creation by admin.", msg)

	_, err = f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "x@example.com", Password: testPassword, Role: "superuser"})
	_, msg = apperr.Public(err)
	assert.Equal(t, "Invalid role specified.", msg)

	_, err = f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "owner@example.com", Password: testPassword, Role: "normal_user"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAdminGetUser_IncludesOwnedStore(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	oid, err := f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "owner@example.com", Password: testPassword, Role: "store_owner"})
	require.NoError(t, err)

	v, err := f.svc.Get(ctx, oid)
	require.NoError(t, err)
	assert.Nil(t, v.OwnedStore)

	f.stores.add(model.Store{Name: "Corner Bookshop and Coffee", Email: "shop@example.com", Address: "1 Main St", OwnerID: &oid, AverageRating: 3.5})
	v, err = f.svc.Get(ctx, oid)
	require.NoError(t, err)
	require.NotNil(t, v.OwnedStore)
	assert.Equal(t, "3.50", v.OwnedStore.AverageRating)

	_, err = f.svc.Get(ctx, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdminListUsers_RejectsUnknownRole(t *testing.T) {
	f := newUserFixture()
	_, err := f.svc.List(context.Background(), model.UserFilter{Role: "root"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	out, err := f.svc.List(context.Background(), model.UserFilter{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestAdminUpdateUser(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	a, err := f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "a@example.com", Password: testPassword, Role: "normal_user"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "b@example.com", Password: testPassword, Role: "normal_user"})
	require.NoError(t, err)

	err = f.svc.Update(ctx, a, UpdateUserInput{})
	_, msg := apperr.Public(err)
	assert.Equal(t, "No fields provided to update.", msg)

	err = f.svc.Update(ctx, a, UpdateUserInput{Email: strp("b@example.com")})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = f.svc.Update(ctx, 999, UpdateUserInput{Name: strp(testName)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = f.svc.Update(ctx, a, UpdateUserInput{Role: strp("boss")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, f.svc.Update(ctx, a, UpdateUserInput{Email: strp("a@example.com"), Password: strp("Changed#99"), Role: strp("store_owner")}))
	u, _ := f.users.GetByID(ctx, a)
	assert.Equal(t, "h:Changed#99", u.PasswordHash)
	assert.Equal(t, model.RoleStoreOwner, u.Role)
}

func TestAdminDeleteUser_SchedulesRecomputes(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	id, err := f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "a@example.com", Password: testPassword, Role: "normal_user"})
	require.NoError(t, err)
	f.users.rated[id] = []uint64{3, 5}

	require.NoError(t, f.svc.Delete(ctx, id))
	assert.Equal(t, []uint64{3, 5}, f.sched.scheduled())

	err = f.svc.Delete(ctx, id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStats(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()
	_, err := f.svc.Create(ctx, CreateUserInput{Name: testName, Email: "a@example.com", Password: testPassword, Role: "normal_user"})
	require.NoError(t, err)
	sid := f.stores.add(model.Store{Name: "Corner Bookshop and Coffee", Email: "shop@example.com", Address: "1 Main St"})
	_, err = f.ratings.Create(ctx, &model.Rating{UserID: 1, StoreID: sid, Rating: 5})
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{TotalUsers: 1, TotalStores: 1, TotalRatings: 1}, *st)
}
