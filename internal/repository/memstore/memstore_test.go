package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

var _ repository.Store = (*Store)(nil)

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		h := &model.SeatHold{TripID: 1, SeatNumber: 4, UserID: 9, Status: model.HoldActive, ExpiresAt: now.Add(time.Minute)}
		require.NoError(t, tx.InsertHold(ctx, h))
		return boom
	})
	require.ErrorIs(t, err, boom)

	hold, err := s.ActiveSeatHold(ctx, 1, 4, now)
	require.NoError(t, err)
	assert.Nil(t, hold)
}

func TestInsertHoldRejectsSecondActiveRow(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := &model.SeatHold{TripID: 1, SeatNumber: 4, UserID: 9, Status: model.HoldActive, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.InsertHold(ctx, first))
	second := &model.SeatHold{TripID: 1, SeatNumber: 4, UserID: 8, Status: model.HoldActive, ExpiresAt: now.Add(time.Minute)}
	assert.ErrorIs(t, s.InsertHold(ctx, second), repository.ErrDuplicate)

	n, err := s.ExpireSeatHolds(ctx, 1, 4, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, s.InsertHold(ctx, second))
}

func TestMarkNoShowsWindow(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	s.PutTrip(model.Trip{ID: 1, Capacity: 10, DepartureTime: now.Add(3 * time.Minute), Status: model.TripBoarding})
	s.PutTrip(model.Trip{ID: 2, Capacity: 10, DepartureTime: now.Add(time.Hour), Status: model.TripScheduled})
	s.PutTrip(model.Trip{ID: 3, Capacity: 10, DepartureTime: now.Add(time.Minute), Status: model.TripCancelled})

	sell := func(trip uint64, seat int) *model.Ticket {
		tk := &model.Ticket{Code: fmt.Sprintf("T%d-S%d", trip, seat), TripID: trip, SeatNumber: seat, FromOrder: 1, ToOrder: 2, Price: decimal.NewFromInt(1), Status: model.TicketSold}
		require.NoError(t, s.InsertTicket(ctx, tk))
		return tk
	}
	due := sell(1, 1)
	boarded := sell(1, 2)
	later := sell(2, 1)
	cancelledTrip := sell(3, 1)
	ok, err := s.BoardTicket(ctx, boarded.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := s.MarkNoShows(ctx, now, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	for id, want := range map[uint64]model.TicketStatus{
		due.ID:           model.TicketNoShow,
		boarded.ID:       model.TicketSold,
		later.ID:         model.TicketSold,
		cancelledTrip.ID: model.TicketSold,
	} {
		got, err := s.GetTicket(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "ticket %d", id)
	}

	n, err = s.MarkNoShows(ctx, now, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)
}
