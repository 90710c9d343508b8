package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Scheduler runs an average recompute for a store without waiting for it.
type Scheduler interface {
	Schedule(storeID uint64)
}

// Publisher schedules recomputes by publishing RatingChangedEvents.  When the
// broker cannot be reached the work is handed to the fallback scheduler so a
// rating write never goes without its recompute.
type Publisher struct {
	url      string
	fallback Scheduler
	log      zerolog.Logger
	timeout  time.Duration
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewPublisher(url string, fallback Scheduler, log zerolog.Logger) *Publisher {
	return &Publisher{url: url, fallback: fallback, log: log, timeout: 3 * time.Second, now: time.Now}
}

// Schedule publishes in the background and returns immediately.
func (p *Publisher) Schedule(storeID uint64) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Publish(ctx, RatingChangedEvent{StoreID: storeID, ChangedAt: p.now().UTC()}); err != nil {
			p.log.Warn().Err(err).Uint64("store_id", storeID).Msg("rabbitmq publish failed; recomputing in process")
			p.fallback.Schedule(storeID)
		}
	}()
}

// Wait blocks until in-flight publishes have finished.
func (p *Publisher) Wait() { p.wg.Wait() }

// Publish sends ev to the rating.changed queue as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev RatingChangedEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.timeout)})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		RatingChangedQueue, // name
		true,               // durable
		false,              // autoDelete
		false,              // exclusive
		false,              // noWait
		nil,                // args
	); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",                 // default exchange
		RatingChangedQueue, // routing key = queue name
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    ev.ChangedAt,
			Body:         body,
		})
}
