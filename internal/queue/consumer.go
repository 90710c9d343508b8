package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// RecomputeFunc refreshes the cached average of one store.
type RecomputeFunc func(ctx context.Context, storeID uint64) error

// Consumer drains the rating.changed queue and recomputes store averages.
type Consumer struct {
	url       string
	recompute RecomputeFunc
	log       zerolog.Logger
}

func NewConsumer(url string, recompute RecomputeFunc, log zerolog.Logger) *Consumer {
	return &Consumer{url: url, recompute: recompute, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-dialed with exponential backoff capped at 30s.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("rating-consumer: failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("rating-consumer: consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("rating-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(RatingChangedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(RatingChangedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info().Str("queue", RatingChangedQueue).Msg("rating-consumer: consuming")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error().Err(err).Msg("rating-consumer: handle message failed")
				// reject without requeue to avoid tight loops
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and recomputes the named store.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev RatingChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.StoreID == 0 {
		return errors.New("event without store_id")
	}
	rctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.recompute(rctx, ev.StoreID)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
