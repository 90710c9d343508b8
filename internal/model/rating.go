package model

import "time"

// Rating represents a row in the `ratings` table.  (user_id, store_id) is
// unique: a user rates a store once and modifies that rating afterwards.
type Rating struct {
	ID        uint64
	UserID    uint64
	StoreID   uint64
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReceivedRating is a rating as seen by the owner of the rated store.
type ReceivedRating struct {
	UserID          uint64    `json:"userId"`
	UserName        string    `json:"userName"`
	UserEmail       string    `json:"userEmail"`
	SubmittedRating int       `json:"submittedRating"`
	RatingDate      time.Time `json:"ratingDate"`
}

// DashboardStore is the store summary on the owner dashboard; AverageRating
// has one decimal.
type DashboardStore struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	AverageRating string `json:"averageRating"`
}

// OwnerDashboard is the store owner's view of their store and its ratings.
type OwnerDashboard struct {
	Store   DashboardStore   `json:"store"`
	Ratings []ReceivedRating `json:"ratingsGivenByUsers"`
}
