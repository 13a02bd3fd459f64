package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AuditConsumer listens to the ticket queues and appends one line per event
// to an audit log file.
type AuditConsumer struct {
	url     string
	logPath string

	mu sync.Mutex // serialises writes from the per-queue goroutines
}

// NewAuditConsumer returns a consumer for the broker at url writing to
// logPath (logs/tickets.log when empty).
func NewAuditConsumer(url, logPath string) *AuditConsumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "tickets.log")
	}
	return &AuditConsumer{url: url, logPath: logPath}
}

// Run connects to RabbitMQ, declares the ticket queues (durable) and
// consumes them until ctx is cancelled. Broker failures trigger a reconnect
// with exponential backoff capped at 30s; malformed messages are rejected
// without requeue.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("ticket-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("ticket-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
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

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("ticket-consumer: set QoS failed: %v", err)
	}

	queues := []string{TicketSoldQueue, TicketCancelledQueue, TicketNoShowQueue}
	merged := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	var wg sync.WaitGroup
	for _, name := range queues {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		wg.Add(1)
		go func(msgs <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range msgs {
				select {
				case merged <- d:
				case <-done:
					return
				}
			}
		}(msgs)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-merged:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.record(d.RoutingKey, d.Body); err != nil {
				log.Printf("ticket-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// record appends the formatted event to the audit log.
func (c *AuditConsumer) record(queueName string, body []byte) error {
	line, err := FormatAuditLine(queueName, body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := io.WriteString(f, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders one event as a single human-readable line.
func FormatAuditLine(queueName string, body []byte) (string, error) {
	switch queueName {
	case TicketSoldQueue:
		var ev TicketSoldEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queueName, err)
		}
		line := fmt.Sprintf("[%s] Ticket sold | ticket_id=%d | code=%s | trip_id=%d | passenger_id=%d | seat=%d | stops=%d->%d | price=%s | payment=%s",
			ev.SoldAt, ev.TicketID, ev.Code, ev.TripID, ev.PassengerID, ev.SeatNumber, ev.FromStopID, ev.ToStopID, ev.Price, ev.PaymentMethod)
		if ev.BaggageFee != "" {
			line += " | baggage_fee=" + ev.BaggageFee
		}
		return line + "\n", nil
	case TicketCancelledQueue:
		var ev TicketCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queueName, err)
		}
		return fmt.Sprintf("[%s] Ticket cancelled | ticket_id=%d | code=%s | trip_id=%d | passenger_id=%d | seat=%d | refund=%s (%d%%)\n",
			ev.CancelledAt, ev.TicketID, ev.Code, ev.TripID, ev.PassengerID, ev.SeatNumber, ev.RefundAmount, ev.RefundPercent), nil
	case TicketNoShowQueue:
		var ev NoShowSweptEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", queueName, err)
		}
		return fmt.Sprintf("[%s] No-show sweep | tickets=%d | window=(%s, %s]\n",
			ev.SweptAt, ev.Count, ev.WindowStart, ev.WindowEnd), nil
	default:
		return "", fmt.Errorf("unknown queue %q", queueName)
	}
}
