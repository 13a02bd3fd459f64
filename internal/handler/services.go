package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

// The handler depends on these narrow views of the engine so tests can
// substitute mocks. *reservation.Holds, *reservation.Workflow,
// *reservation.Availability, *reservation.Pricing, *reservation.TripLifecycle
// and *reservation.NoShowSweeper satisfy them.

type HoldService interface {
	CreateHold(ctx context.Context, tripID uint64, seat int, userID uint64) (model.SeatHold, error)
	CancelHold(ctx context.Context, holdID, userID uint64) error
	ListActiveHoldsForTrip(ctx context.Context, tripID uint64) ([]model.SeatHold, error)
	ListActiveHoldsForUser(ctx context.Context, userID uint64) ([]model.SeatHold, error)
	ExpireSweep(ctx context.Context, now time.Time) (int64, error)
}

type TicketService interface {
	Purchase(ctx context.Context, req reservation.PurchaseRequest) (model.Ticket, error)
	Cancel(ctx context.Context, ticketID uint64) (reservation.CancelResult, error)
	Board(ctx context.Context, ticketID uint64) (model.Ticket, error)
	GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error)
	ListPassengerTickets(ctx context.Context, passengerID uint64) ([]model.Ticket, error)
}

type SeatMapService interface {
	SeatMap(ctx context.Context, tripID, fromStopID, toStopID uint64) ([]model.SeatStatus, error)
}

type QuoteService interface {
	Quote(ctx context.Context, tripID, fromStopID, toStopID uint64) (decimal.Decimal, error)
}

type TripService interface {
	Transition(ctx context.Context, tripID uint64, next model.TripStatus) (model.Trip, error)
}

type NoShowService interface {
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ HoldService    = (*reservation.Holds)(nil)
	_ TicketService  = (*reservation.Workflow)(nil)
	_ SeatMapService = (*reservation.Availability)(nil)
	_ QuoteService   = (*reservation.Pricing)(nil)
	_ TripService    = (*reservation.TripLifecycle)(nil)
	_ NoShowService  = (*reservation.NoShowSweeper)(nil)
)
