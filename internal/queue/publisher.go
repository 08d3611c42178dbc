package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueName is the durable queue carrying Event messages.
const QueueName = "suggestion.events"

// Publisher sends domain events.  Implementations must not panic; errors
// are returned so callers can log and move on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.  Used when EVENTS_ENABLED is false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// RabbitPublisher publishes events to RabbitMQ, opening a connection per
// message.  Event volume is a handful per moderation action, so there is
// no connection to keep healthy between requests.
type RabbitPublisher struct {
	URL         string
	DialTimeout time.Duration
}

func NewRabbitPublisher(url string) *RabbitPublisher {
	return &RabbitPublisher{URL: url, DialTimeout: 2 * time.Second}
}

// Publish marshals ev and publishes it as a persistent message to QueueName.
func (p *RabbitPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.DialTimeout)})
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
		slog.Warn("rabbitmq: publish failed", "type", ev.Type, "error", err)
		return err
	}
	return nil
}

// AsyncPublisher hands each event to a goroutine so a slow or unreachable
// broker never delays the request that produced it.  Wait blocks until all
// in-flight publishes have finished and is called on shutdown.
type AsyncPublisher struct {
	next    Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewAsyncPublisher(next Publisher, timeout time.Duration) *AsyncPublisher {
	return &AsyncPublisher{next: next, timeout: timeout}
}

// Publish always returns nil; failures are logged.
func (a *AsyncPublisher) Publish(ctx context.Context, ev Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		if err := a.next.Publish(pubCtx, ev); err != nil {
			slog.Warn("event dropped", "type", ev.Type, "error", err)
		}
	}()
	return nil
}

func (a *AsyncPublisher) Wait() { a.wg.Wait() }
