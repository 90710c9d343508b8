package model

import "time"

// Role is the authorization class of a user.  It is stored in users.role and
// carried in every token's "role" claim.
type Role string

const (
	RoleSystemAdmin Role = "system_admin"
	RoleStoreOwner  Role = "store_owner"
	RoleNormalUser  Role = "normal_user"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystemAdmin, RoleStoreOwner, RoleNormalUser:
		return true
	}
	return false
}

// User represents an application user record as stored in the
// `users` table.  PasswordHash never leaves the service layer; handlers
// render UserView instead.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Name         – display name, 20 to 60 characters.
//	Email        – unique address, case-sensitive as stored.
//	PasswordHash – bcrypt digest.
//	Address      – optional postal address (NULL when absent).
//	Role         – system_admin, store_owner or normal_user.
type User struct {
	ID           uint64
	Name         string
	Email        string
	PasswordHash string
	Address      *string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the verified subject of an access token.  Auth middleware
// attaches it to each request; it is never shared across requests.
type Identity struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IdentityOf returns the public identity of u.
func IdentityOf(u *User) Identity {
	return Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// RefreshToken models an entry in the `refresh_tokens` table.  Token holds
// the signed refresh JWT exactly as issued; ExpiresAt is computed
// independently of the token's own exp claim.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserView is the admin-facing JSON shape of a user.
type UserView struct {
	ID         uint64      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Address    *string     `json:"address"`
	Role       Role        `json:"role"`
	CreatedAt  *time.Time  `json:"created_at,omitempty"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
	OwnedStore *OwnedStore `json:"ownedStore,omitempty"`
}

// OwnedStore summarizes the store a store owner manages.
type OwnedStore struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	AverageRating string `json:"averageRating"`
}

// UserFilter narrows and orders the admin user listing.  Empty fields match
// everything.
type UserFilter struct {
	Name    string
	Email   string
	Address string
	Role    Role
	Sort    string
	Desc    bool
}

// UserUpdate carries the fields an admin changes; nil means unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	Address      *string
	Role         *Role
	PasswordHash *string
}

// Stats counts the rows shown on the admin dashboard.
type Stats struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalStores  int64 `json:"totalStores"`
	TotalRatings int64 `json:"totalRatings"`
}
