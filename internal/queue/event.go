// Package queue carries store rating changes over RabbitMQ so that cached
// averages are recomputed outside the request path.
package queue

import "time"

// RatingChangedQueue is the durable queue rating events are published to.
const RatingChangedQueue = "rating.changed"

// RatingChangedEvent is published after a rating is created or modified and
// after a user with ratings is deleted.  Consumers recompute the cached
// average of StoreID; the event carries no rating value because the average
// is always recomputed from the ratings table.
type RatingChangedEvent struct {
	StoreID   uint64    `json:"store_id"`
	ChangedAt time.Time `json:"changed_at"`
}
