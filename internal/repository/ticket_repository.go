package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

const ticketSelect = `SELECT t.id, t.code, t.trip_id, t.passenger_id, t.seat_number,
                      t.from_stop_id, t.to_stop_id, t.from_order, t.to_order,
                      t.price, t.payment_method, t.status, t.purchased_at,
                      t.boarded_at, t.cancelled_at, t.refund_amount, t.refund_percent,
                      b.id, b.tag_code, b.weight_kg, b.excess_fee
               FROM tickets t
               LEFT JOIN baggage b ON b.ticket_id = t.id`

func scanTicket(r rowScanner) (model.Ticket, error) {
	var (
		t                       model.Ticket
		boardedAt, cancelledAt  sql.NullTime
		refundAmount            decimal.NullDecimal
		refundPercent           sql.NullInt64
		bagID                   sql.NullInt64
		bagTag                  sql.NullString
		bagWeight, bagExcessFee decimal.NullDecimal
	)
	err := r.Scan(
		&t.ID, &t.Code, &t.TripID, &t.PassengerID, &t.SeatNumber,
		&t.FromStopID, &t.ToStopID, &t.FromOrder, &t.ToOrder,
		&t.Price, &t.PaymentMethod, &t.Status, &t.PurchasedAt,
		&boardedAt, &cancelledAt, &refundAmount, &refundPercent,
		&bagID, &bagTag, &bagWeight, &bagExcessFee,
	)
	if err != nil {
		return model.Ticket{}, err
	}
	if boardedAt.Valid {
		v := boardedAt.Time
		t.BoardedAt = &v
	}
	if cancelledAt.Valid {
		v := cancelledAt.Time
		t.CancelledAt = &v
	}
	if refundAmount.Valid {
		v := refundAmount.Decimal
		t.RefundAmount = &v
	}
	if refundPercent.Valid {
		v := int(refundPercent.Int64)
		t.RefundPercent = &v
	}
	if bagID.Valid {
		t.Baggage = &model.Baggage{
			ID:        uint64(bagID.Int64),
			TicketID:  t.ID,
			TagCode:   bagTag.String,
			WeightKg:  bagWeight.Decimal,
			ExcessFee: bagExcessFee.Decimal,
		}
	}
	return t, nil
}

// SoldSegments returns the [from, to) ranges of the seat's SOLD tickets.
func (s *MySQLStore) SoldSegments(ctx context.Context, tripID uint64, seat int) ([]model.Segment, error) {
	rows, err := s.q.QueryContext(ctx,
		s.locking(`SELECT from_order, to_order FROM tickets WHERE trip_id = ? AND seat_number = ? AND status = 'SOLD'`),
		tripID, seat)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var segs []model.Segment
	for rows.Next() {
		var seg model.Segment
		if err := rows.Scan(&seg.From, &seg.To); err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

// SoldSegmentsByTrip groups the trip's SOLD segments by seat.
func (s *MySQLStore) SoldSegmentsByTrip(ctx context.Context, tripID uint64) (map[int][]model.Segment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT seat_number, from_order, to_order FROM tickets WHERE trip_id = ? AND status = 'SOLD'`,
		tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int][]model.Segment{}
	for rows.Next() {
		var seat int
		var seg model.Segment
		if err := rows.Scan(&seat, &seg.From, &seg.To); err != nil {
			return nil, err
		}
		out[seat] = append(out[seat], seg)
	}
	return out, rows.Err()
}

// CountSoldSeats counts seats with at least one SOLD ticket on the trip.
func (s *MySQLStore) CountSoldSeats(ctx context.Context, tripID uint64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT seat_number) FROM tickets WHERE trip_id = ? AND status = 'SOLD'`,
		tripID).Scan(&n)
	return n, err
}

// InsertTicket stores a ticket and sets its ID. Baggage is stored
// separately with InsertBaggage.
func (s *MySQLStore) InsertTicket(ctx context.Context, t *model.Ticket) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO tickets (code, trip_id, passenger_id, seat_number, from_stop_id, to_stop_id,
                              from_order, to_order, price, payment_method, status, purchased_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Code, t.TripID, t.PassengerID, t.SeatNumber, t.FromStopID, t.ToStopID,
		t.FromOrder, t.ToOrder, t.Price, t.PaymentMethod, t.Status, model.StorageTime(t.PurchasedAt))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// InsertBaggage stores the ticket's baggage and sets its ID.
func (s *MySQLStore) InsertBaggage(ctx context.Context, b *model.Baggage) error {
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO baggage (ticket_id, tag_code, weight_kg, excess_fee) VALUES (?, ?, ?, ?)`,
		b.TicketID, b.TagCode, b.WeightKg, b.ExcessFee)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetTicket loads a ticket with its baggage.
func (s *MySQLStore) GetTicket(ctx context.Context, id uint64) (model.Ticket, error) {
	t, err := scanTicket(s.q.QueryRowContext(ctx, ticketSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return model.Ticket{}, translate(err)
	}
	return t, nil
}

// ListTicketsByPassenger returns the passenger's tickets, newest first.
func (s *MySQLStore) ListTicketsByPassenger(ctx context.Context, passengerID uint64) ([]model.Ticket, error) {
	rows, err := s.q.QueryContext(ctx, ticketSelect+` WHERE t.passenger_id = ? ORDER BY t.id DESC`, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := []model.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// CancelTicket moves a SOLD ticket to CANCELLED and records the refund.
func (s *MySQLStore) CancelTicket(ctx context.Context, id uint64, at time.Time, refund decimal.Decimal, percent int) (bool, error) {
	return rowsAffected(s.q.ExecContext(ctx,
		`UPDATE tickets SET status = 'CANCELLED', cancelled_at = ?, refund_amount = ?, refund_percent = ?
         WHERE id = ? AND status = 'SOLD'`,
		model.StorageTime(at), refund, percent, id))
}

// BoardTicket records check-in on a SOLD ticket.
func (s *MySQLStore) BoardTicket(ctx context.Context, id uint64, at time.Time) (bool, error) {
	return rowsAffected(s.q.ExecContext(ctx,
		`UPDATE tickets SET boarded_at = ? WHERE id = ? AND status = 'SOLD'`, model.StorageTime(at), id))
}

// MarkNoShows flips SOLD, unboarded tickets of SCHEDULED or BOARDING trips
// departing in (after, until] to NO_SHOW in one statement.
func (s *MySQLStore) MarkNoShows(ctx context.Context, after, until time.Time) (int64, error) {
	return count(s.q.ExecContext(ctx,
		`UPDATE tickets t
         JOIN trips tr ON tr.id = t.trip_id
         SET t.status = 'NO_SHOW'
         WHERE t.status = 'SOLD' AND t.boarded_at IS NULL
           AND tr.status IN ('SCHEDULED', 'BOARDING')
           AND tr.departure_time > ? AND tr.departure_time <= ?`,
		model.StorageTime(after), model.StorageTime(until)))
}
