package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Store is the reservation engine's view of durable storage. Missing rows
// are reported as ErrNotFound and unique-index violations as ErrDuplicate.
type Store interface {
	// WithinTx runs fn inside one transaction. The Store passed to fn is
	// bound to that transaction; fn's error rolls it back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	// Catalog, read-only apart from the trip status.
	GetTrip(ctx context.Context, id uint64) (model.Trip, error)
	SetTripStatus(ctx context.Context, id uint64, from, to model.TripStatus) (bool, error)
	GetStop(ctx context.Context, id uint64) (model.Stop, error)
	GetUser(ctx context.Context, id uint64) (model.User, error)
	// FindFareRule returns nil when no override exists.
	FindFareRule(ctx context.Context, routeID, fromStopID, toStopID uint64) (*model.FareRule, error)

	// LockSeat takes the per-(trip, seat) row lock held until commit.
	LockSeat(ctx context.Context, tripID uint64, seat int) error

	// Holds.
	ActiveSeatHold(ctx context.Context, tripID uint64, seat int, now time.Time) (*model.SeatHold, error)
	ExpireSeatHolds(ctx context.Context, tripID uint64, seat int, now time.Time) (int64, error)
	InsertHold(ctx context.Context, h *model.SeatHold) error
	GetHold(ctx context.Context, id uint64) (model.SeatHold, error)
	SetHoldStatus(ctx context.Context, id uint64, from, to model.HoldStatus) (bool, error)
	ExpireHolds(ctx context.Context, now time.Time) (int64, error)
	ListActiveHoldsByTrip(ctx context.Context, tripID uint64, now time.Time) ([]model.SeatHold, error)
	ListActiveHoldsByUser(ctx context.Context, userID uint64, now time.Time) ([]model.SeatHold, error)

	// Tickets.
	SoldSegments(ctx context.Context, tripID uint64, seat int) ([]model.Segment, error)
	SoldSegmentsByTrip(ctx context.Context, tripID uint64) (map[int][]model.Segment, error)
	CountSoldSeats(ctx context.Context, tripID uint64) (int, error)
	InsertTicket(ctx context.Context, t *model.Ticket) error
	InsertBaggage(ctx context.Context, b *model.Baggage) error
	GetTicket(ctx context.Context, id uint64) (model.Ticket, error)
	ListTicketsByPassenger(ctx context.Context, passengerID uint64) ([]model.Ticket, error)
	CancelTicket(ctx context.Context, id uint64, at time.Time, refund decimal.Decimal, percent int) (bool, error)
	BoardTicket(ctx context.Context, id uint64, at time.Time) (bool, error)
	// MarkNoShows flips SOLD, unboarded tickets of SCHEDULED or BOARDING
	// trips departing in (after, until] to NO_SHOW.
	MarkNoShows(ctx context.Context, after, until time.Time) (int64, error)
}

