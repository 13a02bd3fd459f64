// Package service publishes ticket lifecycle events to RabbitMQ. Errors are
// logged and returned so callers can ignore them without interrupting the
// request that produced the event.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// channel is the part of *amqp.Channel used for publishing.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel and returns a func that closes the connection.
type dialFunc func(url string) (channel, func(), error)

func dialAMQP(url string) (channel, func(), error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return ch, func() { _ = conn.Close() }, nil
}

// Publisher sends each event as a persistent JSON message to the durable
// queue named by the event, through the default exchange. It dials per
// publish; ticket events are rare enough that a pooled connection is not
// worth the reconnect handling.
type Publisher struct {
	url  string
	dial dialFunc
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dial: dialAMQP}
}

// Publish implements reservation.Publisher.
func (p *Publisher) Publish(ctx context.Context, ev queue.Event) error {
	name := ev.QueueName()
	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer closeConn()
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare %s failed: %v", name, err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("rabbitmq: marshal %s failed: %v", name, err)
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         name,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", name, false, false, msg); err != nil {
		log.Printf("rabbitmq: publish %s failed: %v", name, err)
		return err
	}
	return nil
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, queue.Event) error { return nil }
