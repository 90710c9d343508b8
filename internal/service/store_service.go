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

// StoreService backs admin store management, the browsable store list and
// the store owner dashboard.
type StoreService struct {
	stores  StoreStore
	users   UserStore
	ratings RatingStore
	log     zerolog.Logger
}

func NewStoreService(stores StoreStore, users UserStore, ratings RatingStore, log zerolog.Logger) *StoreService {
	return &StoreService{stores: stores, users: users, ratings: ratings, log: log}
}

// CreateStoreInput is the admin store creation form.
type CreateStoreInput struct {
	Name    string
	Email   string
	Address string
	OwnerID *uint64
}

func validateStoreFields(name, email, address *string) error {
	if name != nil && !validation.Name(*name) {
		return apperr.Validation("Store name must be between 20 and 60 characters.")
	}
	if email != nil && !validation.Email(*email) {
		return apperr.Validation("Invalid store email format.")
	}
	if address != nil && !validation.Address(*address) {
		return apperr.Validation("Store address cannot exceed 400 characters.")
	}
	return nil
}

// checkOwner verifies that ownerID refers to a store_owner user.
func (s *StoreService) checkOwner(ctx context.Context, ownerID uint64, failMsg string) error {
	u, err := s.users.GetByID(ctx, ownerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.Validation("Provided owner_id is not a valid store owner user.")
	case err != nil:
		return s.serverError(failMsg, err)
	}
	if u.Role != model.RoleStoreOwner {
		return apperr.Validation("Provided owner_id is not a valid store owner user.")
	}
	return nil
}

// Create adds a store, optionally owned by a store owner.
func (s *StoreService) Create(ctx context.Context, in CreateStoreInput) (uint64, error) {
	const failMsg = "Server error. Could not add store."
	if in.Name == "" || in.Email == "" || in.Address == "" {
		return 0, apperr.Validation("Please provide name, email, and address for the store.")
	}
	if err := validateStoreFields(&in.Name, &in.Email, &in.Address); err != nil {
		return 0, err
	}

	taken, err := s.stores.EmailExists(ctx, in.Email, 0)
	if err != nil {
		return 0, s.serverError(failMsg, err)
	}
	if taken {
		return 0, apperr.Conflict("A store with this email already exists.")
	}
	if in.OwnerID != nil && *in.OwnerID != 0 {
		if err := s.checkOwner(ctx, *in.OwnerID, failMsg); err != nil {
			return 0, err
		}
	} else {
		in.OwnerID = nil
	}

	id, err := s.stores.Create(ctx, &model.Store{Name: in.Name, Email: in.Email, Address: in.Address, OwnerID: in.OwnerID})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, apperr.Conflict("A store with this email already exists.")
		}
		return 0, s.serverError(failMsg, err)
	}
	return id, nil
}

// List returns the admin store listing.
func (s *StoreService) List(ctx context.Context, f model.StoreFilter) ([]model.StoreView, error) {
	out, err := s.stores.List(ctx, f)
	if err != nil {
		return nil, s.serverError("Server error while fetching store list.", err)
	}
	return out, nil
}

// Get returns one store.
func (s *StoreService) Get(ctx context.Context, id uint64) (*model.StoreView, error) {
	v, err := s.stores.GetView(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound("Store not found.")
	case err != nil:
		return nil, s.serverError("Server error while fetching store.", err)
	}
	return v, nil
}

// UpdateStoreInput holds the fields to change.  An OwnerID of 0 detaches the
// store from its owner.
type UpdateStoreInput struct {
	Name    *string
	Email   *string
	Address *string
	OwnerID *uint64
}

// Update validates and applies a partial store update.
func (s *StoreService) Update(ctx context.Context, id uint64, in UpdateStoreInput) error {
	const failMsg = "Server error while updating store."
	if in.Name == nil && in.Email == nil && in.Address == nil && in.OwnerID == nil {
		return apperr.Validation("No fields provided to update.")
	}
	if err := validateStoreFields(in.Name, in.Email, in.Address); err != nil {
		return err
	}

	ok, err := s.stores.Exists(ctx, id)
	if err != nil {
		return s.serverError(failMsg, err)
	}
	if !ok {
		return apperr.NotFound("Store not found.")
	}
	if in.Email != nil {
		taken, err := s.stores.EmailExists(ctx, *in.Email, id)
		if err != nil {
			return s.serverError(failMsg, err)
		}
		if taken {
			return apperr.Conflict("A store with this email already exists.")
		}
	}
	upd := model.StoreUpdate{Name: in.Name, Email: in.Email, Address: in.Address}
	if in.OwnerID != nil {
		if *in.OwnerID == 0 {
			upd.ClearOwner = true
		} else {
			if err := s.checkOwner(ctx, *in.OwnerID, failMsg); err != nil {
				return err
			}
			upd.OwnerID = in.OwnerID
		}
	}

	switch err := s.stores.Update(ctx, id, upd); {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Store not found.")
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Conflict("A store with this email already exists.")
	case err != nil:
		return s.serverError(failMsg, err)
	}
	return nil
}

// Delete removes a store and its ratings.
func (s *StoreService) Delete(ctx context.Context, id uint64) error {
	switch err := s.stores.Delete(ctx, id); {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Store not found.")
	case err != nil:
		return s.serverError("Server error while deleting store.", err)
	}
	return nil
}

// ListForUser returns the browsable store list annotated with userID's own
// ratings.
func (s *StoreService) ListForUser(ctx context.Context, userID uint64, f model.StoreFilter) ([]model.UserStoreView, error) {
	out, err := s.stores.ListForUser(ctx, userID, f)
	if err != nil {
		return nil, s.serverError("Server error while fetching stores.", err)
	}
	return out, nil
}

// OwnerDashboard returns the store ownerID manages and the ratings it
// received.
func (s *StoreService) OwnerDashboard(ctx context.Context, ownerID uint64) (*model.OwnerDashboard, error) {
	const failMsg = "Server error while fetching dashboard data."
	st, avg, err := s.stores.GetByOwner(ctx, ownerID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.NotFound("No store found associated with this owner.")
	case err != nil:
		return nil, s.serverError(failMsg, err)
	}
	ratings, err := s.ratings.ListForStore(ctx, st.ID)
	if err != nil {
		return nil, s.serverError(failMsg, err)
	}
	zero := 0.0
	if avg == nil {
		avg = &zero
	}
	return &model.OwnerDashboard{
		Store: model.DashboardStore{
			ID:            st.ID,
			Name:          st.Name,
			Email:         st.Email,
			Address:       st.Address,
			AverageRating: model.FormatAverage(avg, 1),
		},
		Ratings: ratings,
	}, nil
}

func (s *StoreService) serverError(msg string, err error) error {
	s.log.Error().Err(err).Msg(msg)
	return apperr.Server(msg, err)
}
