package repository

import (
	"context"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

const holdColumns = `id, trip_id, seat_number, user_id, hold_token, status, created_at, expires_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHold(r rowScanner) (model.SeatHold, error) {
	var h model.SeatHold
	err := r.Scan(&h.ID, &h.TripID, &h.SeatNumber, &h.UserID, &h.HoldToken, &h.Status, &h.CreatedAt, &h.ExpiresAt)
	return h, err
}

// LockSeat upserts the (trip, seat) row of seat_locks. InnoDB keeps the row
// exclusively locked until the surrounding transaction ends, so concurrent
// holds and purchases of the same seat queue behind each other while other
// seats proceed. Outside a transaction the lock is released immediately.
func (s *MySQLStore) LockSeat(ctx context.Context, tripID uint64, seat int) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO seat_locks (trip_id, seat_number, locked_at) VALUES (?, ?, UTC_TIMESTAMP())
         ON DUPLICATE KEY UPDATE locked_at = UTC_TIMESTAMP()`,
		tripID, seat)
	return err
}

// ActiveSeatHold returns the HOLD row of the seat that is still unexpired at
// now, or nil.
func (s *MySQLStore) ActiveSeatHold(ctx context.Context, tripID uint64, seat int, now time.Time) (*model.SeatHold, error) {
	row := s.q.QueryRowContext(ctx,
		s.locking(`SELECT `+holdColumns+` FROM seat_holds
         WHERE trip_id = ? AND seat_number = ? AND status = 'HOLD' AND expires_at > ?
         LIMIT 1`),
		tripID, seat, model.StorageTime(now))
	h, err := scanHold(row)
	if err != nil {
		if err = translate(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

// ExpireSeatHolds tombstones the seat's HOLD rows that expired at or before
// now, freeing the active_key slot for a new hold.
func (s *MySQLStore) ExpireSeatHolds(ctx context.Context, tripID uint64, seat int, now time.Time) (int64, error) {
	return count(s.q.ExecContext(ctx,
		`UPDATE seat_holds SET status = 'EXPIRED'
         WHERE trip_id = ? AND seat_number = ? AND status = 'HOLD' AND expires_at <= ?`,
		tripID, seat, model.StorageTime(now)))
}

// InsertHold stores a new hold and sets its ID. A second HOLD row for the
// same seat violates uq_seat_holds_active and yields ErrDuplicate.
func (s *MySQLStore) InsertHold(ctx context.Context, h *model.SeatHold) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO seat_holds (trip_id, seat_number, user_id, hold_token, status, created_at, expires_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.TripID, h.SeatNumber, h.UserID, h.HoldToken, h.Status, model.StorageTime(h.CreatedAt), model.StorageTime(h.ExpiresAt))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetHold loads a hold in any status.
func (s *MySQLStore) GetHold(ctx context.Context, id uint64) (model.SeatHold, error) {
	h, err := scanHold(s.q.QueryRowContext(ctx, `SELECT `+holdColumns+` FROM seat_holds WHERE id = ?`, id))
	if err != nil {
		return model.SeatHold{}, translate(err)
	}
	return h, nil
}

// SetHoldStatus moves a hold from one status to another only if it is still
// in from.
func (s *MySQLStore) SetHoldStatus(ctx context.Context, id uint64, from, to model.HoldStatus) (bool, error) {
	return rowsAffected(s.q.ExecContext(ctx,
		`UPDATE seat_holds SET status = ? WHERE id = ? AND status = ?`, to, id, from))
}

// ExpireHolds tombstones every HOLD row that expired at or before now.
func (s *MySQLStore) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
	return count(s.q.ExecContext(ctx,
		`UPDATE seat_holds SET status = 'EXPIRED' WHERE status = 'HOLD' AND expires_at <= ?`, model.StorageTime(now)))
}

// ListActiveHoldsByTrip returns the trip's unexpired HOLD rows.
func (s *MySQLStore) ListActiveHoldsByTrip(ctx context.Context, tripID uint64, now time.Time) ([]model.SeatHold, error) {
	return s.listHolds(ctx,
		`SELECT `+holdColumns+` FROM seat_holds
         WHERE trip_id = ? AND status = 'HOLD' AND expires_at > ? ORDER BY id`,
		tripID, model.StorageTime(now))
}

// ListActiveHoldsByUser returns the user's unexpired HOLD rows.
func (s *MySQLStore) ListActiveHoldsByUser(ctx context.Context, userID uint64, now time.Time) ([]model.SeatHold, error) {
	return s.listHolds(ctx,
		`SELECT `+holdColumns+` FROM seat_holds
         WHERE user_id = ? AND status = 'HOLD' AND expires_at > ? ORDER BY id`,
		userID, model.StorageTime(now))
}

func (s *MySQLStore) listHolds(ctx context.Context, q string, args ...any) ([]model.SeatHold, error) {
	rows, err := s.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	holds := []model.SeatHold{}
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}
