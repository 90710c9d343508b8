package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/validation"
)

const msgInvalidCredentials = "Invalid credentials."

// AuthService runs the session lifecycle: signup, login, access-token
// refresh, logout and password change.
//
// Access tokens are verified by signature alone, so they stay valid until
// they expire even after logout, password change or account deletion.  Only
// refresh tokens are checked against persisted state.
type AuthService struct {
	users       UserStore
	tokens      TokenStore
	hasher      PasswordHasher
	issuer      TokenIssuer
	refreshDays int
	now         func() time.Time
	log         zerolog.Logger
	obs         Observer

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithClock replaces the service clock.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithLogger sets the logger used for server-side failure details.
func WithLogger(l zerolog.Logger) AuthOption {
	return func(s *AuthService) { s.log = l }
}

// WithObserver reports auth outcomes to o.
func WithObserver(o Observer) AuthOption {
	return func(s *AuthService) { s.obs = o }
}

func NewAuthService(users UserStore, tokens TokenStore, hasher PasswordHasher, issuer TokenIssuer, refreshDays int, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		issuer:      issuer,
		refreshDays: refreshDays,
		now:         time.Now,
		log:         zerolog.Nop(),
		obs:         nopObserver{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SignupInput is the public registration form.  Any role a client sends is
// ignored; self-registered accounts are always normal users.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Address  *string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         model.Identity
}

// ValidateUserFields applies the shared field rules used by signup, admin
// user creation and the create-admin command.
func ValidateUserFields(name, email, password string, address *string) error {
	if name == "" || email == "" || password == "" {
		return apperr.Validation("Name, email, and password are required.")
	}
	if !validation.Name(name) {
		return apperr.Validation(validation.MsgName)
	}
	if !validation.Email(email) {
		return apperr.Validation(validation.MsgEmail)
	}
	if !validation.Password(password) {
		return apperr.Validation(validation.MsgPassword)
	}
	if address != nil && !validation.Address(*address) {
		return apperr.Validation(validation.MsgAddress)
	}
	return nil
}

// Signup registers a normal user and returns the new id.  It does not log
// the user in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (uint64, error) {
	if err := ValidateUserFields(in.Name, in.Email, in.Password, in.Address); err != nil {
		return 0, err
	}
	id, err := createUser(ctx, s.users, s.hasher, &model.User{
		Name:    in.Name,
		Email:   in.Email,
		Address: in.Address,
		Role:    model.RoleNormalUser,
	}, in.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindServer {
			s.log.Error().Err(err).Msg("signup failed")
			return 0, apperr.Server("Server error during registration.", err)
		}
		return 0, err
	}
	s.obs.AuthEvent("signup", "success")
	return id, nil
}

// createUser is shared by signup and admin creation: reject a taken email,
// hash the password and insert.
func createUser(ctx context.Context, users UserStore, hasher PasswordHasher, u *model.User, password string) (uint64, error) {
	taken, err := users.EmailExists(ctx, u.Email, 0)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, apperr.Conflict("User with this email already exists.")
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	u.PasswordHash = hash
	id, err := users.Create(ctx, u)
	if errors.Is(err, repository.ErrDuplicate) {
		return 0, apperr.Conflict("User with this email already exists.")
	}
	return id, err
}

// Login verifies credentials and issues an access/refresh token pair.  An
// unknown email and a wrong password fail identically; a bcrypt comparison
// runs in both cases so the two are not told apart by latency either.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required.")
	}
	if !validation.Email(email) {
		return nil, apperr.Validation(validation.MsgEmail)
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.hasher.Verify(s.dummy(), password)
		s.obs.AuthEvent("login", "invalid_credentials")
		return nil, apperr.InvalidCredentials(msgInvalidCredentials)
	case err != nil:
		return nil, s.serverError("login", "Server error during login.", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.obs.AuthEvent("login", "invalid_credentials")
		return nil, apperr.InvalidCredentials(msgInvalidCredentials)
	}

	id := model.IdentityOf(u)
	access, err := s.issuer.IssueAccessToken(id)
	if err != nil {
		return nil, s.serverError("login", "Server error during login.", err)
	}
	refresh, err := s.issuer.IssueRefreshToken(id)
	if err != nil {
		return nil, s.serverError("login", "Server error during login.", err)
	}
	if err := s.tokens.Store(ctx, u.ID, refresh, s.issuer.ComputeExpiry(s.refreshDays)); err != nil {
		return nil, s.serverError("login", "Server error during login.", err)
	}

	s.obs.AuthEvent("login", "success")
	return &LoginResult{AccessToken: access, RefreshToken: refresh, User: id}, nil
}

// Refresh exchanges a stored, unexpired refresh token for a new access
// token.  The refresh token and its persisted expiry are left untouched.
func (s *AuthService) Refresh(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Unauthenticated("Token missing.")
	}

	stored, err := s.tokens.FindActive(ctx, raw, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.obs.AuthEvent("refresh", "rejected")
		return "", apperr.Forbidden("Invalid or expired refresh token.")
	case err != nil:
		return "", s.serverError("refresh", "Server error during token refresh.", err)
	}

	claims, err := s.issuer.ParseRefreshToken(raw)
	if err != nil {
		s.obs.AuthEvent("refresh", "rejected")
		return "", apperr.Forbidden("Invalid or expired refresh token.")
	}
	if claims.UserID != stored.UserID {
		s.log.Warn().Uint64("token_user", claims.UserID).Uint64("row_user", stored.UserID).Msg("refresh token user mismatch")
		s.obs.AuthEvent("refresh", "rejected")
		return "", apperr.Forbidden("Refresh token user mismatch.")
	}

	u, err := s.users.GetByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "", apperr.NotFound("User with refresh token not found.")
	case err != nil:
		return "", s.serverError("refresh", "Server error during token refresh.", err)
	}

	access, err := s.issuer.IssueAccessToken(model.IdentityOf(u))
	if err != nil {
		return "", s.serverError("refresh", "Server error during token refresh.", err)
	}
	s.obs.AuthEvent("refresh", "success")
	return access, nil
}

// Logout destroys the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return apperr.Validation("Refresh token missing.")
	}
	n, err := s.tokens.Delete(ctx, raw)
	if err != nil {
		return s.serverError("logout", "Server error during logout.", err)
	}
	if n == 0 {
		return apperr.NotFound("Refresh token not found.")
	}
	s.obs.AuthEvent("logout", "success")
	return nil
}

// ChangePassword replaces userID's password after verifying the old one.
// Existing refresh tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("Old password and new password are required.")
	}
	if !validation.Password(newPassword) {
		return apperr.Validation("New password must be 8-16 characters, include at least one uppercase letter and one special character.")
	}

	u, err := s.users.GetByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("User not found.")
	case err != nil:
		return s.serverError("change_password", "Server error during password update.", err)
	}
	if !s.hasher.Verify(u.PasswordHash, oldPassword) {
		s.obs.AuthEvent("change_password", "invalid_credentials")
		return apperr.InvalidCredentials("Old password incorrect.")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return s.serverError("change_password", "Server error during password update.", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found.")
		}
		return s.serverError("change_password", "Server error during password update.", err)
	}
	s.obs.AuthEvent("change_password", "success")
	return nil
}

func (s *AuthService) serverError(op, msg string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("auth operation failed")
	s.obs.AuthEvent(op, "error")
	return apperr.Server(msg, err)
}

// dummy returns a digest to compare against when the email is unknown.
func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("timing-equalizer-Aa1!")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
