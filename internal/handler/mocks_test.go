package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

type mockHolds struct{ mock.Mock }

func (m *mockHolds) CreateHold(ctx context.Context, tripID uint64, seat int, userID uint64) (model.SeatHold, error) {
	a := m.Called(tripID, seat, userID)
	return a.Get(0).(model.SeatHold), a.Error(1)
}

func (m *mockHolds) CancelHold(ctx context.Context, holdID, userID uint64) error {
	return m.Called(holdID, userID).Error(0)
}

func (m *mockHolds) ListActiveHoldsForTrip(ctx context.Context, tripID uint64) ([]model.SeatHold, error) {
	a := m.Called(tripID)
	hs, _ := a.Get(0).([]model.SeatHold)
	return hs, a.Error(1)
}

func (m *mockHolds) ListActiveHoldsForUser(ctx context.Context, userID uint64) ([]model.SeatHold, error) {
	a := m.Called(userID)
	hs, _ := a.Get(0).([]model.SeatHold)
	return hs, a.Error(1)
}

func (m *mockHolds) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	a := m.Called(now)
	return a.Get(0).(int64), a.Error(1)
}

type mockTickets struct{ mock.Mock }

func (m *mockTickets) Purchase(ctx context.Context, req reservation.PurchaseRequest) (model.Ticket, error) {
	a := m.Called(req)
	return a.Get(0).(model.Ticket), a.Error(1)
}

func (m *mockTickets) Cancel(ctx context.Context, ticketID uint64) (reservation.CancelResult, error) {
	a := m.Called(ticketID)
	return a.Get(0).(reservation.CancelResult), a.Error(1)
}

func (m *mockTickets) Board(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	a := m.Called(ticketID)
	return a.Get(0).(model.Ticket), a.Error(1)
}

func (m *mockTickets) GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	a := m.Called(ticketID)
	return a.Get(0).(model.Ticket), a.Error(1)
}

func (m *mockTickets) ListPassengerTickets(ctx context.Context, passengerID uint64) ([]model.Ticket, error) {
	a := m.Called(passengerID)
	ts, _ := a.Get(0).([]model.Ticket)
	return ts, a.Error(1)
}

type mockSeats struct{ mock.Mock }

func (m *mockSeats) SeatMap(ctx context.Context, tripID, fromStopID, toStopID uint64) ([]model.SeatStatus, error) {
	a := m.Called(tripID, fromStopID, toStopID)
	ss, _ := a.Get(0).([]model.SeatStatus)
	return ss, a.Error(1)
}

type mockQuotes struct{ mock.Mock }

func (m *mockQuotes) Quote(ctx context.Context, tripID, fromStopID, toStopID uint64) (decimal.Decimal, error) {
	a := m.Called(tripID, fromStopID, toStopID)
	return a.Get(0).(decimal.Decimal), a.Error(1)
}

type mockTrips struct{ mock.Mock }

func (m *mockTrips) Transition(ctx context.Context, tripID uint64, next model.TripStatus) (model.Trip, error) {
	a := m.Called(tripID, next)
	return a.Get(0).(model.Trip), a.Error(1)
}

type mockNoShows struct{ mock.Mock }

func (m *mockNoShows) Sweep(ctx context.Context, now time.Time) (int64, error) {
	a := m.Called(now)
	return a.Get(0).(int64), a.Error(1)
}
