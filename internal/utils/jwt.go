package utils // package utils provides password hashing and token issuing

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the payload of both token kinds: the user's id, email and role
// plus the registered exp/iat/jti claims.  jti is random so two tokens issued
// for the same user in the same second still differ.
type Claims struct {
	UserID uint64     `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the identity carried by the claims.
func (c *Claims) Identity() model.Identity {
	return model.Identity{ID: c.UserID, Email: c.Email, Role: c.Role}
}

// Issuer signs and verifies HS256 access and refresh tokens.  Access and
// refresh tokens use distinct secrets so one can never stand in for the
// other.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewIssuer builds an Issuer.  Access tokens live accessTTL, refresh tokens
// refreshDays days.
func NewIssuer(accessSecret, refreshSecret string, accessTTL time.Duration, refreshDays int) *Issuer {
	return &Issuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    time.Duration(refreshDays) * 24 * time.Hour,
		now:           time.Now,
	}
}

// WithClock replaces the issuer's clock.  Used by tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

// IssueAccessToken signs a short-lived access token for id.
func (i *Issuer) IssueAccessToken(id model.Identity) (string, error) {
	return i.sign(id, i.accessTTL, i.accessSecret)
}

// IssueRefreshToken signs a long-lived refresh token for id.
func (i *Issuer) IssueRefreshToken(id model.Identity) (string, error) {
	return i.sign(id, i.refreshTTL, i.refreshSecret)
}

// ComputeExpiry returns now plus the given number of days.  It is the
// persisted refresh expiry and is deliberately not read back from the token.
func (i *Issuer) ComputeExpiry(days int) time.Time {
	return i.now().UTC().AddDate(0, 0, days)
}

// ParseAccessToken verifies signature and expiry against the access secret.
func (i *Issuer) ParseAccessToken(raw string) (*Claims, error) {
	return i.parse(raw, i.accessSecret)
}

// ParseRefreshToken verifies signature and expiry against the refresh secret.
func (i *Issuer) ParseRefreshToken(raw string) (*Claims, error) {
	return i.parse(raw, i.refreshSecret)
}

func (i *Issuer) sign(id model.Identity, ttl time.Duration, secret []byte) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		UserID: id.ID,
		Email:  id.Email,
		Role:   id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (i *Issuer) parse(raw string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
