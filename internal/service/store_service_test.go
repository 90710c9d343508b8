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

const storeName = "Corner Bookshop and Coffee"

func newStoreFixture(t *testing.T) (*StoreService, *fakeStores, *fakeRatings, uint64, uint64) {
	t.Helper()
	users, stores, ratings := newFakeUsers(), newFakeStores(), newFakeRatings()
	owner, err := users.Create(context.Background(), &model.User{Name: testName, Email: "owner@example.com", Role: model.RoleStoreOwner})
	require.NoError(t, err)
	normal, err := users.Create(context.Background(), &model.User{Name: testName, Email: "user@example.com", Role: model.RoleNormalUser})
	require.NoError(t, err)
	return NewStoreService(stores, users, ratings, zerolog.Nop()), stores, ratings, owner, normal
}

func TestCreateStore(t *testing.T) {
	svc, stores, _, owner, normal := newStoreFixture(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateStoreInput{Name: storeName, Email: "shop@example.com", Address: "1 Main St", OwnerID: &owner})
	require.NoError(t, err)
	v, err := stores.GetView(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, owner, *v.OwnerID)

	cases := []struct {
		name string
		in   CreateStoreInput
		code int
		msg  string
	}{
		{"missing", CreateStoreInput{Name: storeName}, 400, "Please provide name, email, and address for the store."},
		{"short name", CreateStoreInput{Name: "Shop", Email: "s2@example.com", Address: "x"}, 400, "Store name must be between 20 and 60 characters."},
		{"bad email", CreateStoreInput{Name: storeName, Email: "nope", Address: "x"}, 400, "Invalid store email format."},
		{"duplicate", CreateStoreInput{Name: storeName, Email: "shop@example.com", Address: "x"}, 409, "A store with this email already exists."},
		{"owner not store owner", CreateStoreInput{Name: storeName, Email: "s3@example.com", Address: "x", OwnerID: &normal}, 400, "Provided owner_id is not a valid store owner user."},
		{"owner missing", CreateStoreInput{Name: storeName, Email: "s4@example.com", Address: "x", OwnerID: u64p(77)}, 400, "Provided owner_id is not a valid store owner user."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.in)
			code, msg := apperr.Public(err)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.msg, msg)
		})
	}
	n, _ := stores.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestUpdateStore_ClearsOwner(t *testing.T) {
	svc, stores, _, owner, _ := newStoreFixture(t)
	ctx := context.Background()
	id, err := svc.Create(ctx, CreateStoreInput{Name: storeName, Email: "shop@example.com", Address: "1 Main St", OwnerID: &owner})
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, id, UpdateStoreInput{OwnerID: u64p(0), Address: strp("2 High St")}))
	v, _ := stores.GetView(ctx, id)
	assert.Nil(t, v.OwnerID)
	assert.Equal(t, "2 High St", v.Address)

	err = svc.Update(ctx, 999, UpdateStoreInput{Name: strp(storeName)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	err = svc.Update(ctx, id, UpdateStoreInput{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestDeleteStore(t *testing.T) {
	svc, _, _, _, _ := newStoreFixture(t)
	ctx := context.Background()
	id, err := svc.Create(ctx, CreateStoreInput{Name: storeName, Email: "shop@example.com", Address: "1 Main St"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id))
	err = svc.Delete(ctx, id)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestOwnerDashboard(t *testing.T) {
	svc, stores, ratings, owner, normal := newStoreFixture(t)
	ctx := context.Background()

	_, err := svc.OwnerDashboard(ctx, owner)
	_, msg := apperr.Public(err)
	assert.Equal(t, "No store found associated with this owner.", msg)

	id, err := svc.Create(ctx, CreateStoreInput{Name: storeName, Email: "shop@example.com", Address: "1 Main St", OwnerID: &owner})
	require.NoError(t, err)

	d, err := svc.OwnerDashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "0.0", d.Store.AverageRating)
	assert.Empty(t, d.Ratings)

	_, err = ratings.Create(ctx, &model.Rating{UserID: normal, StoreID: id, Rating: 4})
	require.NoError(t, err)
	stores.rows[id].AverageRating = 4
	d, err = svc.OwnerDashboard(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "4.0", d.Store.AverageRating)
	require.Len(t, d.Ratings, 1)
	assert.Equal(t, 4, d.Ratings[0].SubmittedRating)
}
