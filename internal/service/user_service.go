package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/validation"
)

// UserService backs the admin user management endpoints and the dashboard
// counters.
type UserService struct {
	users    UserAdminStore
	stores   StoreStore
	ratings  RatingStore
	hasher   PasswordHasher
	averages AverageScheduler
	log      zerolog.Logger
}

func NewUserService(users UserAdminStore, stores StoreStore, ratings RatingStore, hasher PasswordHasher, averages AverageScheduler, log zerolog.Logger) *UserService {
	return &UserService{users: users, stores: stores, ratings: ratings, hasher: hasher, averages: averages, log: log}
}

// CreateUserInput is the admin user creation form; Role is mandatory.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  *string
	Role     string
}

// Create adds a user with an explicit role.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (uint64, error) {
	if err := ValidateUserFields(in.Name, in.Email, in.Password, in.Address); err != nil {
		return 0, err
	}
	if in.Role == "" {
		return 0, apperr.Validation("Role is required for user creation by admin.")
	}
	role := model.Role(in.Role)
	if !role.Valid() {
		return 0, apperr.Validation(validation.MsgRole)
	}
	id, err := createUser(ctx, s.users, s.hasher, &model.User{
		Name:    in.Name,
		Email:   in.Email,
		Address: in.Address,
		Role:    role,
	}, in.Password)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindServer {
			return 0, s.serverError("Server error while creating user.", err)
		}
		return 0, err
	}
	return id, nil
}

func userView(u *model.User) model.UserView {
	created, updated := u.CreatedAt, u.UpdatedAt
	return model.UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Address:   u.Address,
		Role:      u.Role,
		CreatedAt: &created,
		UpdatedAt: &updated,
	}
}

// List returns the users matching f.
func (s *UserService) List(ctx context.Context, f model.UserFilter) ([]model.UserView, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, apperr.Validation(validation.MsgRole)
	}
	users, err := s.users.List(ctx, f)
	if err != nil {
		return nil, s.serverError("Server error while fetching user list.", err)
	}
	out := make([]model.UserView, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}
	return out, nil
}

// Get returns one user; store owners also carry the store they own.
func (s *UserService) Get(ctx context.Context, id uint64) (*model.UserView, error) {
	u, err := s.users.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound("User not found.")
	case err != nil:
		return nil, s.serverError("Server error while fetching user details.", err)
	}
	v := userView(u)
	if u.Role == model.RoleStoreOwner {
		st, avg, err := s.stores.GetByOwner(ctx, u.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return nil, s.serverError("Server error while fetching user details.", err)
		default:
			v.OwnedStore = &model.OwnedStore{
				ID:            st.ID,
				Name:          st.Name,
				Email:         st.Email,
				Address:       st.Address,
				AverageRating: model.FormatAverage(avg, 2),
			}
		}
	}
	return &v, nil
}

// UpdateUserInput holds the fields an admin wants to change; nil fields are
// left alone.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Address  *string
	Role     *string
}

// Update validates and applies a partial user update.
func (s *UserService) Update(ctx context.Context, id uint64, in UpdateUserInput) error {
	if in.Name == nil && in.Email == nil && in.Password == nil && in.Address == nil && in.Role == nil {
		return apperr.Validation("No fields provided to update.")
	}
	if in.Name != nil && !validation.Name(*in.Name) {
		return apperr.Validation(validation.MsgName)
	}
	if in.Email != nil && !validation.Email(*in.Email) {
		return apperr.Validation(validation.MsgEmail)
	}
	if in.Password != nil && !validation.Password(*in.Password) {
		return apperr.Validation(validation.MsgPassword)
	}
	if in.Address != nil && !validation.Address(*in.Address) {
		return apperr.Validation(validation.MsgAddress)
	}
	upd := model.UserUpdate{Name: in.Name, Email: in.Email, Address: in.Address}
	if in.Role != nil {
		role := model.Role(*in.Role)
		if !role.Valid() {
			return apperr.Validation(validation.MsgRole)
		}
		upd.Role = &role
	}

	if _, err := s.users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found.")
		}
		return s.serverError("Server error while updating user.", err)
	}
	if in.Email != nil {
		taken, err := s.users.EmailExists(ctx, *in.Email, id)
		if err != nil {
			return s.serverError("Server error while updating user.", err)
		}
		if taken {
			return apperr.Conflict("User with this email already exists.")
		}
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return s.serverError("Server error while updating user.", err)
		}
		upd.PasswordHash = &hash
	}

	switch err := s.users.Update(ctx, id, upd); {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("User not found.")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("User with this email already exists.")
	case err != nil:
		return s.serverError("Server error while updating user.", err)
	}
	return nil
}

// Delete removes a user, their ratings and refresh tokens, and detaches the
// stores they owned.  Stores that lost ratings get their averages recomputed.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	rated, err := s.users.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("User not found.")
	case err != nil:
		return s.serverError("Server error while deleting user.", err)
	}
	for _, sid := range rated {
		s.averages.Schedule(sid)
	}
	return nil
}

// Stats counts users, stores and ratings.
func (s *UserService) Stats(ctx context.Context) (*model.Stats, error) {
	var (
		st  model.Stats
		err error
	)
	if st.TotalUsers, err = s.users.Count(ctx); err != nil {
		return nil, s.serverError("Server error while fetching dashboard statistics.", err)
	}
	if st.TotalStores, err = s.stores.Count(ctx); err != nil {
		return nil, s.serverError("Server error while fetching dashboard statistics.", err)
	}
	if st.TotalRatings, err = s.ratings.Count(ctx); err != nil {
		return nil, s.serverError("Server error while fetching dashboard statistics.", err)
	}
	return &st, nil
}

func (s *UserService) serverError(msg string, err error) error {
	s.log.Error().Err(err).Msg(msg)
	return apperr.Server(msg, err)
}
