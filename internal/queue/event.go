// Package queue defines the ticket lifecycle events exchanged over the
// message broker and the consumer that records them.
package queue

// Queue names. Each event type is routed through the default exchange to
// the durable queue of the same name.
const (
	TicketSoldQueue      = "ticket.sold"
	TicketCancelledQueue = "ticket.cancelled"
	TicketNoShowQueue    = "ticket.no_show"
)

// Event is a broker message that knows its destination queue.
type Event interface {
	QueueName() string
}

// TicketSoldEvent is published after a purchase commits. Money fields are
// decimal strings with two places.
type TicketSoldEvent struct {
	TicketID      uint64 `json:"ticket_id"`
	Code          string `json:"code"`
	TripID        uint64 `json:"trip_id"`
	PassengerID   uint64 `json:"passenger_id"`
	SeatNumber    int    `json:"seat_number"`
	FromStopID    uint64 `json:"from_stop_id"`
	ToStopID      uint64 `json:"to_stop_id"`
	Price         string `json:"price"`
	BaggageFee    string `json:"baggage_fee,omitempty"`
	PaymentMethod string `json:"payment_method"`
	SoldAt        string `json:"sold_at"`
}

func (TicketSoldEvent) QueueName() string { return TicketSoldQueue }

// TicketCancelledEvent is published after a cancellation commits.
type TicketCancelledEvent struct {
	TicketID      uint64 `json:"ticket_id"`
	Code          string `json:"code"`
	TripID        uint64 `json:"trip_id"`
	PassengerID   uint64 `json:"passenger_id"`
	SeatNumber    int    `json:"seat_number"`
	RefundAmount  string `json:"refund_amount"`
	RefundPercent int    `json:"refund_percent"`
	CancelledAt   string `json:"cancelled_at"`
}

func (TicketCancelledEvent) QueueName() string { return TicketCancelledQueue }

// NoShowSweptEvent summarises one no-show sweep that changed at least one
// ticket. The window is (WindowStart, WindowEnd] in RFC3339.
type NoShowSweptEvent struct {
	Count       int64  `json:"count"`
	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
	SweptAt     string `json:"swept_at"`
}

func (NoShowSweptEvent) QueueName() string { return TicketNoShowQueue }
