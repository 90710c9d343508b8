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

// RatingService lets normal users rate stores once and modify that rating.
type RatingService struct {
	ratings  RatingStore
	stores   StoreStore
	averages AverageScheduler
	log      zerolog.Logger
}

func NewRatingService(ratings RatingStore, stores StoreStore, averages AverageScheduler, log zerolog.Logger) *RatingService {
	return &RatingService{ratings: ratings, stores: stores, averages: averages, log: log}
}

func checkRating(rating *int) error {
	if rating == nil || !validation.Rating(*rating) {
		return apperr.Validation(validation.MsgRating)
	}
	return nil
}

// Submit records userID's first rating of storeID and schedules the store's
// average recompute.
func (s *RatingService) Submit(ctx context.Context, userID uint64, storeID *uint64, rating *int) (uint64, error) {
	if err := checkRating(rating); err != nil {
		return 0, err
	}
	if storeID == nil || *storeID == 0 {
		return 0, apperr.Validation("Store ID is required to submit a rating.")
	}

	ok, err := s.stores.Exists(ctx, *storeID)
	if err != nil {
		return 0, s.serverError("Server error while submitting rating.", err)
	}
	if !ok {
		return 0, apperr.NotFound("Store not found.")
	}
	dup, err := s.ratings.ExistsForUser(ctx, userID, *storeID)
	if err != nil {
		return 0, s.serverError("Server error while submitting rating.", err)
	}
	if dup {
		return 0, apperr.Conflict(msgAlreadyRated)
	}

	id, err := s.ratings.Create(ctx, &model.Rating{UserID: userID, StoreID: *storeID, Rating: *rating})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, apperr.Conflict(msgAlreadyRated)
		}
		return 0, s.serverError("Server error while submitting rating.", err)
	}
	s.averages.Schedule(*storeID)
	return id, nil
}

const msgAlreadyRated = "You have already submitted a rating for this store. Please modify your existing rating."

// Modify changes the value of a rating userID owns and schedules the store's
// average recompute.
func (s *RatingService) Modify(ctx context.Context, userID, ratingID uint64, rating *int) error {
	if err := checkRating(rating); err != nil {
		return err
	}
	existing, err := s.ratings.GetByID(ctx, ratingID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("Rating not found.")
	case err != nil:
		return s.serverError("Server error while modifying rating.", err)
	}
	if existing.UserID != userID {
		return apperr.Forbidden("You are not authorized to modify this rating.")
	}
	if err := s.ratings.UpdateValue(ctx, ratingID, *rating); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Rating not found.")
		}
		return s.serverError("Server error while modifying rating.", err)
	}
	s.averages.Schedule(existing.StoreID)
	return nil
}

func (s *RatingService) serverError(msg string, err error) error {
	s.log.Error().Err(err).Msg(msg)
	return apperr.Server(msg, err)
}
