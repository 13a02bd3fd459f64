package repository

import (
	"context"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// GetTrip loads a trip with the capacity of its bus.
func (s *MySQLStore) GetTrip(ctx context.Context, id uint64) (model.Trip, error) {
	const q = `SELECT t.id, t.route_id, t.bus_id, b.capacity, t.departure_time, t.arrival_time, t.status
               FROM trips t
               JOIN buses b ON b.id = t.bus_id
               WHERE t.id = ?`
	var t model.Trip
	err := s.q.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.RouteID, &t.BusID, &t.Capacity, &t.DepartureTime, &t.ArrivalTime, &t.Status,
	)
	if err != nil {
		return model.Trip{}, translate(err)
	}
	return t, nil
}

// SetTripStatus moves the trip from one status to another only if it is
// still in from.
func (s *MySQLStore) SetTripStatus(ctx context.Context, id uint64, from, to model.TripStatus) (bool, error) {
	return rowsAffected(s.q.ExecContext(ctx,
		`UPDATE trips SET status = ? WHERE id = ? AND status = ?`, to, id, from))
}

// GetStop loads a stop.
func (s *MySQLStore) GetStop(ctx context.Context, id uint64) (model.Stop, error) {
	var st model.Stop
	err := s.q.QueryRowContext(ctx,
		`SELECT id, route_id, name, stop_order FROM stops WHERE id = ?`, id,
	).Scan(&st.ID, &st.RouteID, &st.Name, &st.Order)
	if err != nil {
		return model.Stop{}, translate(err)
	}
	return st, nil
}

// GetUser loads a user from the directory.
func (s *MySQLStore) GetUser(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := s.q.QueryRowContext(ctx,
		`SELECT id, name, role, is_active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Role, &u.IsActive)
	if err != nil {
		return model.User{}, translate(err)
	}
	return u, nil
}

// FindFareRule returns the fare override for the segment, or nil.
func (s *MySQLStore) FindFareRule(ctx context.Context, routeID, fromStopID, toStopID uint64) (*model.FareRule, error) {
	r := model.FareRule{RouteID: routeID, FromStopID: fromStopID, ToStopID: toStopID}
	err := s.q.QueryRowContext(ctx,
		`SELECT base_price FROM fare_rules WHERE route_id = ? AND from_stop_id = ? AND to_stop_id = ?`,
		routeID, fromStopID, toStopID,
	).Scan(&r.BasePrice)
	if err != nil {
		if err = translate(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
