package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus is the state of a sold ticket. CANCELLED and NO_SHOW are
// terminal.
type TicketStatus string

const (
	TicketSold      TicketStatus = "SOLD"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketNoShow    TicketStatus = "NO_SHOW"
)

// Ticket is a completed sale of one seat on one trip across the segment
// [FromOrder, ToOrder). Stop orders are copied onto the ticket at sale time
// so overlap checks never join the stop catalog.
//
// Fields:
//  Code          – unique opaque ticket code.
//  PassengerID   – users.id of the traveller.
//  PaymentMethod – free-form method label recorded for the cashier.
//  BoardedAt     – set when the passenger checks in; boarded tickets are never no-shows.
//  CancelledAt   – set by cancellation together with the refund fields.
type Ticket struct {
	ID            uint64           `json:"id"`
	Code          string           `json:"code"`
	TripID        uint64           `json:"trip_id"`
	PassengerID   uint64           `json:"passenger_id"`
	SeatNumber    int              `json:"seat_number"`
	FromStopID    uint64           `json:"from_stop_id"`
	ToStopID      uint64           `json:"to_stop_id"`
	FromOrder     int              `json:"from_order"`
	ToOrder       int              `json:"to_order"`
	Price         decimal.Decimal  `json:"price"`
	PaymentMethod string           `json:"payment_method"`
	Status        TicketStatus     `json:"status"`
	PurchasedAt   time.Time        `json:"purchased_at"`
	BoardedAt     *time.Time       `json:"boarded_at,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
	RefundAmount  *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundPercent *int             `json:"refund_percent,omitempty"`
	Baggage       *Baggage         `json:"baggage,omitempty"`
}

// Segment returns the stop-order range the ticket occupies.
func (t Ticket) Segment() Segment {
	return Segment{From: t.FromOrder, To: t.ToOrder}
}

// Baggage is checked luggage attached to a ticket.
type Baggage struct {
	ID        uint64          `json:"id"`
	TicketID  uint64          `json:"ticket_id"`
	TagCode   string          `json:"tag_code"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
	ExcessFee decimal.Decimal `json:"excess_fee"`
}

// SeatState is the per-segment availability of a seat as shown to clients.
type SeatState string

const (
	SeatAvailable SeatState = "AVAILABLE"
	SeatSold      SeatState = "SOLD"
	SeatHeld      SeatState = "HELD"
)

// SeatStatus pairs a seat number with its state on a requested segment.
type SeatStatus struct {
	SeatNumber int       `json:"seat_number"`
	State      SeatState `json:"state"`
}
