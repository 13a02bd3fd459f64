package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

var _ Store = (*MySQLStore)(nil)

func newMock(t *testing.T) (*MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewMySQLStore(db), mock
}

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestWithinTxCommits(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(uint64(1), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithinTx(ctx, func(tx Store) error {
		return tx.LockSeat(ctx, 1, 10)
	})
	require.NoError(t, err)
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithinTx(ctx, func(tx Store) error {
		return tx.WithinTx(ctx, func(Store) error { return boom })
	})
	assert.ErrorIs(t, err, boom)
}

func TestTransactionsReadCommitted(t *testing.T) {
	assert.Equal(t, sql.LevelReadCommitted, txOptions.Isolation)
	assert.False(t, txOptions.ReadOnly)
}

func TestSeatReadsLockRowsInsideTx(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	holdCols := []string{"id", "trip_id", "seat_number", "user_id", "hold_token", "status", "created_at", "expires_at"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(uint64(1), 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM seat_holds\\s+WHERE .+\\s+LIMIT 1 FOR UPDATE$").
		WithArgs(uint64(1), 10, now).
		WillReturnRows(sqlmock.NewRows(holdCols))
	mock.ExpectQuery("SELECT from_order, to_order FROM tickets WHERE .+ FOR UPDATE$").
		WithArgs(uint64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"from_order", "to_order"}).AddRow(1, 3))
	mock.ExpectCommit()

	err := s.WithinTx(ctx, func(tx Store) error {
		if err := tx.LockSeat(ctx, 1, 10); err != nil {
			return err
		}
		h, err := tx.ActiveSeatHold(ctx, 1, 10, now)
		if err != nil {
			return err
		}
		assert.Nil(t, h)
		segs, err := tx.SoldSegments(ctx, 1, 10)
		assert.Equal(t, []model.Segment{{From: 1, To: 3}}, segs)
		return err
	})
	require.NoError(t, err)
}

func TestSeatReadsPlainOutsideTx(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT from_order, to_order FROM tickets WHERE trip_id = \\? AND seat_number = \\? AND status = 'SOLD'$").
		WithArgs(uint64(1), 10).
		WillReturnRows(sqlmock.NewRows([]string{"from_order", "to_order"}))

	segs, err := s.SoldSegments(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, segs)
	assert.NotContains(t, s.locking("SELECT 1"), "FOR UPDATE")
}

func TestGetTrip(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	cols := []string{"id", "route_id", "bus_id", "capacity", "departure_time", "arrival_time", "status"}
	mock.ExpectQuery("FROM trips t\\s+JOIN buses b").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 7, 3, 40, now, now.Add(4*time.Hour), "SCHEDULED"))
	mock.ExpectQuery("FROM trips t").
		WithArgs(uint64(2)).
		WillReturnError(sql.ErrNoRows)

	trip, err := s.GetTrip(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, trip.Capacity)
	assert.Equal(t, model.TripScheduled, trip.Status)

	_, err = s.GetTrip(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertHoldDuplicateActiveKey(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_holds")).
		WithArgs(uint64(1), 10, uint64(5), "tok-1", model.HoldActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_holds")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1:10' for key 'uq_seat_holds_active'"})

	h := &model.SeatHold{TripID: 1, SeatNumber: 10, UserID: 5, HoldToken: "tok-1", Status: model.HoldActive, CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	require.NoError(t, s.InsertHold(ctx, h))
	assert.EqualValues(t, 42, h.ID)

	dup := &model.SeatHold{TripID: 1, SeatNumber: 10, UserID: 6, HoldToken: "tok-2", Status: model.HoldActive, CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
	assert.ErrorIs(t, s.InsertHold(ctx, dup), ErrDuplicate)
}

func TestInsertHoldTruncatesToMicroseconds(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	at := now.Add(600000700 * time.Nanosecond)
	stored := now.Add(600000 * time.Microsecond)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_holds")).
		WithArgs(uint64(1), 10, uint64(5), "tok-1", model.HoldActive, stored, stored.Add(10*time.Minute)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	h := &model.SeatHold{TripID: 1, SeatNumber: 10, UserID: 5, HoldToken: "tok-1", Status: model.HoldActive, CreatedAt: at, ExpiresAt: at.Add(10 * time.Minute)}
	require.NoError(t, s.InsertHold(ctx, h))
}

func TestActiveSeatHold(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	cols := []string{"id", "trip_id", "seat_number", "user_id", "hold_token", "status", "created_at", "expires_at"}
	mock.ExpectQuery("FROM seat_holds\\s+WHERE trip_id = \\? AND seat_number = \\? AND status = 'HOLD' AND expires_at > \\?").
		WithArgs(uint64(1), 10, now).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, 10, 5, "tok", "HOLD", now, now.Add(time.Minute)))
	mock.ExpectQuery("FROM seat_holds").
		WithArgs(uint64(1), 11, now).
		WillReturnRows(sqlmock.NewRows(cols))

	h, err := s.ActiveSeatHold(ctx, 1, 10, now)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.EqualValues(t, 5, h.UserID)

	h, err = s.ActiveSeatHold(ctx, 1, 11, now)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestSetHoldStatusIsConditional(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE seat_holds SET status = ? WHERE id = ? AND status = ?")).
		WithArgs(model.HoldSold, uint64(3), model.HoldActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.SetHoldStatus(ctx, 3, model.HoldActive, model.HoldSold)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetTicketWithBaggage(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	cols := []string{"id", "code", "trip_id", "passenger_id", "seat_number", "from_stop_id", "to_stop_id", "from_order", "to_order",
		"price", "payment_method", "status", "purchased_at", "boarded_at", "cancelled_at", "refund_amount", "refund_percent",
		"bag_id", "tag_code", "weight_kg", "excess_fee"}
	mock.ExpectQuery("LEFT JOIN baggage b ON b.ticket_id = t.id\\s+WHERE t.id = \\?").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			9, "TK-1", 1, 5, 10, 101, 103, 1, 3,
			"57500.00", "CARD", "CANCELLED", now, nil, now.Add(time.Hour), "40250.00", 70,
			4, "BG-1", "30.00", "35000.00",
		))

	tk, err := s.GetTicket(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, tk.Status)
	assert.True(t, tk.Price.Equal(decimal.RequireFromString("57500")))
	assert.Nil(t, tk.BoardedAt)
	require.NotNil(t, tk.RefundPercent)
	assert.Equal(t, 70, *tk.RefundPercent)
	require.NotNil(t, tk.Baggage)
	assert.Equal(t, "35000.00", tk.Baggage.ExcessFee.StringFixed(2))
	assert.Equal(t, model.Segment{From: 1, To: 3}, tk.Segment())
}

func TestSoldSegmentsAndCount(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT from_order, to_order FROM tickets").
		WithArgs(uint64(1), 5).
		WillReturnRows(sqlmock.NewRows([]string{"from_order", "to_order"}).AddRow(1, 3).AddRow(3, 5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT seat_number) FROM tickets")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(17))

	segs, err := s.SoldSegments(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []model.Segment{{From: 1, To: 3}, {From: 3, To: 5}}, segs)

	n, err := s.CountSoldSeats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 17, n)
}

func TestMarkNoShows(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE tickets t\\s+JOIN trips tr").
		WithArgs(now, now.Add(5*time.Minute)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.MarkNoShows(ctx, now, now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestFindFareRule(t *testing.T) {
	s, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT base_price FROM fare_rules").
		WithArgs(uint64(7), uint64(101), uint64(103)).
		WillReturnRows(sqlmock.NewRows([]string{"base_price"}).AddRow("42000.00"))
	mock.ExpectQuery("SELECT base_price FROM fare_rules").
		WithArgs(uint64(7), uint64(101), uint64(102)).
		WillReturnError(sql.ErrNoRows)

	r, err := s.FindFareRule(ctx, 7, 101, 103)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "42000.00", r.BasePrice.StringFixed(2))

	r, err = s.FindFareRule(ctx, 7, 101, 102)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestLoadSettings(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery("SELECT setting_key, setting_value FROM settings").
		WillReturnRows(sqlmock.NewRows([]string{"setting_key", "setting_value"}).
			AddRow("hold_duration_min", "15").
			AddRow("refund_tiers", "90,70,50,30,0"))

	kv, err := s.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hold_duration_min": "15", "refund_tiers": "90,70,50,30,0"}, kv)
}
