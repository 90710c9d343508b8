package handler

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating-api/internal/apperr"
	"github.com/iliyamo/store-rating-api/internal/validation"
)

// RatingAPI is the rating submission behind /api/ratings.
type RatingAPI interface {
	Submit(ctx context.Context, userID uint64, storeID *uint64, rating *int) (uint64, error)
	Modify(ctx context.Context, userID, ratingID uint64, rating *int) error
}

// RatingHandler serves the normal-user store list and rating writes.
type RatingHandler struct {
	Ratings RatingAPI
	Stores  StoreAPI
}

func NewRatingHandler(ratings RatingAPI, stores StoreAPI) *RatingHandler {
	return &RatingHandler{Ratings: ratings, Stores: stores}
}

// ratingReq takes the value as a float so that 4.5 is rejected with the
// rating message rather than a decode error.
type ratingReq struct {
	StoreID *uint64  `json:"storeId"`
	Rating  *float64 `json:"rating"`
}

func (r ratingReq) value() (*int, error) {
	if r.Rating == nil {
		return nil, nil
	}
	v := *r.Rating
	if v != math.Trunc(v) || v < validation.RatingMin || v > validation.RatingMax {
		return nil, apperr.Validation(validation.MsgRating)
	}
	n := int(v)
	return &n, nil
}

// ListStores returns every store annotated with the caller's own rating.
func (h *RatingHandler) ListStores(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stores, err := h.Stores.ListForUser(ctx, id.ID, storeFilter(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stores)
}

// Submit records the caller's rating of a store.
func (h *RatingHandler) Submit(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	var req ratingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	value, err := req.value()
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rid, err := h.Ratings.Submit(ctx, id.ID, req.StoreID, value)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Rating submitted successfully!", "ratingId": rid})
}

// Modify changes the value of one of the caller's ratings.
func (h *RatingHandler) Modify(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return fail(c, err)
	}
	rid, err := pathID(c, "rating")
	if err != nil {
		return fail(c, err)
	}
	var req ratingReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	value, err := req.value()
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Ratings.Modify(ctx, id.ID, rid, value); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, msg{Message: "Rating modified successfully!"})
}
