package model

import (
	"strconv"
	"time"
)

// Store represents a row in the `stores` table.  AverageRating is the cached
// column refreshed asynchronously after rating writes; listings compute a live
// average instead.
type Store struct {
	ID            uint64
	Name          string
	Email         string
	Address       string
	OwnerID       *uint64
	AverageRating float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StoreView is the admin listing shape.  AverageRating is formatted with two
// decimals or "N/A" when the store has no ratings.
type StoreView struct {
	ID            uint64  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Address       string  `json:"address"`
	OwnerID       *uint64 `json:"owner_id"`
	AverageRating string  `json:"averageRating"`
}

// UserStoreView is one entry of the browsable store list, annotated with the
// caller's own rating when there is one.
type UserStoreView struct {
	StoreID             uint64  `json:"storeId"`
	StoreName           string  `json:"storeName"`
	StoreAddress        string  `json:"storeAddress"`
	OverallRating       string  `json:"overallRating"`
	UserSubmittedRating *int    `json:"userSubmittedRating"`
	UserRatingID        *uint64 `json:"userRatingId"`
}

// StoreFilter narrows and orders store listings.
type StoreFilter struct {
	Name    string
	Email   string
	Address string
	Sort    string
	Desc    bool
}

// StoreUpdate carries the fields an admin changes; nil means unchanged.
// ClearOwner detaches the store from its owner.
type StoreUpdate struct {
	Name       *string
	Email      *string
	Address    *string
	OwnerID    *uint64
	ClearOwner bool
}

// FormatAverage renders avg with the given number of decimals, or "N/A"
// when avg is nil.
func FormatAverage(avg *float64, decimals int) string {
	if avg == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*avg, 'f', decimals, 64)
}
