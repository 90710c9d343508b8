// Package service holds the business operations behind the HTTP handlers:
// the session/auth lifecycle, admin user and store management, ratings and
// the store owner dashboard.  Services validate input before touching
// persistence and translate repository failures into apperr kinds.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

// UserStore is the users half of the credential store.
type UserStore interface {
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
	Create(ctx context.Context, u *model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// UserAdminStore adds the admin-only user operations.
type UserAdminStore interface {
	UserStore
	List(ctx context.Context, f model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, id uint64, upd model.UserUpdate) error
	Delete(ctx context.Context, id uint64) ([]uint64, error)
	Count(ctx context.Context) (int64, error)
}

// TokenStore is the refresh_tokens half of the credential store.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, token string, expiresAt time.Time) error
	FindActive(ctx context.Context, token string, now time.Time) (*model.RefreshToken, error)
	Delete(ctx context.Context, token string) (int64, error)
}

// StoreStore persists stores.
type StoreStore interface {
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
	Create(ctx context.Context, s *model.Store) (uint64, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	GetView(ctx context.Context, id uint64) (*model.StoreView, error)
	GetByOwner(ctx context.Context, ownerID uint64) (*model.Store, *float64, error)
	List(ctx context.Context, f model.StoreFilter) ([]model.StoreView, error)
	ListForUser(ctx context.Context, userID uint64, f model.StoreFilter) ([]model.UserStoreView, error)
	Update(ctx context.Context, id uint64, upd model.StoreUpdate) error
	Delete(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int64, error)
}

// AverageStore refreshes a store's cached rating average.
type AverageStore interface {
	RecomputeAverage(ctx context.Context, storeID uint64) (float64, error)
}

// RatingStore persists ratings.
type RatingStore interface {
	Create(ctx context.Context, r *model.Rating) (uint64, error)
	GetByID(ctx context.Context, id uint64) (*model.Rating, error)
	ExistsForUser(ctx context.Context, userID, storeID uint64) (bool, error)
	UpdateValue(ctx context.Context, id uint64, value int) error
	ListForStore(ctx context.Context, storeID uint64) ([]model.ReceivedRating, error)
	Count(ctx context.Context) (int64, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// TokenIssuer signs access and refresh tokens.
type TokenIssuer interface {
	IssueAccessToken(id model.Identity) (string, error)
	IssueRefreshToken(id model.Identity) (string, error)
	ComputeExpiry(days int) time.Time
	ParseRefreshToken(raw string) (*utils.Claims, error)
}

// AverageScheduler queues a cached-average recompute for a store without
// waiting for it.
type AverageScheduler interface {
	Schedule(storeID uint64)
}

// Observer receives business events for metrics.
type Observer interface {
	AuthEvent(op, outcome string)
	AverageRecomputed(ok bool)
}

type nopObserver struct{}

func (nopObserver) AuthEvent(string, string) {}
func (nopObserver) AverageRecomputed(bool)   {}
