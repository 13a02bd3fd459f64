// Package memstore is an in-memory repository.Store. It backs the "memory"
// storage driver for local runs and the engine's tests. Transactions work on
// a copy of the data that replaces the original on commit; one transaction
// runs at a time, which gives the same per-seat exclusivity as the MySQL
// row lock.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

type fareKey struct {
	route, from, to uint64
}

type data struct {
	trips    map[uint64]model.Trip
	stops    map[uint64]model.Stop
	users    map[uint64]model.User
	fares    map[fareKey]model.FareRule
	holds    map[uint64]model.SeatHold
	tickets  map[uint64]model.Ticket
	baggage  map[uint64]model.Baggage // keyed by ticket id
	settings map[string]string

	nextHold, nextTicket, nextBaggage uint64
}

func newData() *data {
	return &data{
		trips:    map[uint64]model.Trip{},
		stops:    map[uint64]model.Stop{},
		users:    map[uint64]model.User{},
		fares:    map[fareKey]model.FareRule{},
		holds:    map[uint64]model.SeatHold{},
		tickets:  map[uint64]model.Ticket{},
		baggage:  map[uint64]model.Baggage{},
		settings: map[string]string{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *data) clone() *data {
	c := *d
	c.trips = cloneMap(d.trips)
	c.stops = cloneMap(d.stops)
	c.users = cloneMap(d.users)
	c.fares = cloneMap(d.fares)
	c.holds = cloneMap(d.holds)
	c.tickets = cloneMap(d.tickets)
	c.baggage = cloneMap(d.baggage)
	c.settings = cloneMap(d.settings)
	return &c
}

// Store is safe for concurrent use.
type Store struct {
	mu   *sync.Mutex
	d    *data
	inTx bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{mu: &sync.Mutex{}, d: newData()}
}

// lock serialises access outside transactions. Inside a transaction the
// mutex is already held by WithinTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx runs fn against a private copy and publishes it if fn succeeds.
// Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &Store{mu: s.mu, d: s.d.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.d = tx.d
	return nil
}

// Seeding helpers. They overwrite existing rows with the same id.

// PutTrip stores a trip.
func (s *Store) PutTrip(t model.Trip) {
	defer s.lock()()
	s.d.trips[t.ID] = t
}

// PutStop stores a stop.
func (s *Store) PutStop(st model.Stop) {
	defer s.lock()()
	s.d.stops[st.ID] = st
}

// PutUser stores a user.
func (s *Store) PutUser(u model.User) {
	defer s.lock()()
	s.d.users[u.ID] = u
}

// PutFareRule stores a fare override.
func (s *Store) PutFareRule(r model.FareRule) {
	defer s.lock()()
	s.d.fares[fareKey{r.RouteID, r.FromStopID, r.ToStopID}] = r
}

// PutSetting stores one settings-table row.
func (s *Store) PutSetting(key, value string) {
	defer s.lock()()
	s.d.settings[key] = value
}

// LoadSettings returns a copy of the settings rows.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	defer s.lock()()
	return cloneMap(s.d.settings), nil
}

func (s *Store) GetTrip(ctx context.Context, id uint64) (model.Trip, error) {
	defer s.lock()()
	t, ok := s.d.trips[id]
	if !ok {
		return model.Trip{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *Store) SetTripStatus(ctx context.Context, id uint64, from, to model.TripStatus) (bool, error) {
	defer s.lock()()
	t, ok := s.d.trips[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	s.d.trips[id] = t
	return true, nil
}

func (s *Store) GetStop(ctx context.Context, id uint64) (model.Stop, error) {
	defer s.lock()()
	st, ok := s.d.stops[id]
	if !ok {
		return model.Stop{}, repository.ErrNotFound
	}
	return st, nil
}

func (s *Store) GetUser(ctx context.Context, id uint64) (model.User, error) {
	defer s.lock()()
	u, ok := s.d.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *Store) FindFareRule(ctx context.Context, routeID, fromStopID, toStopID uint64) (*model.FareRule, error) {
	defer s.lock()()
	r, ok := s.d.fares[fareKey{routeID, fromStopID, toStopID}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// LockSeat is a no-op: transactions are already serialised.
func (s *Store) LockSeat(ctx context.Context, tripID uint64, seat int) error {
	return nil
}

func (s *Store) ActiveSeatHold(ctx context.Context, tripID uint64, seat int, now time.Time) (*model.SeatHold, error) {
	defer s.lock()()
	for _, h := range s.d.holds {
		if h.TripID == tripID && h.SeatNumber == seat && h.ActiveAt(now) {
			return &h, nil
		}
	}
	return nil, nil
}

func (s *Store) ExpireSeatHolds(ctx context.Context, tripID uint64, seat int, now time.Time) (int64, error) {
	defer s.lock()()
	return s.expire(func(h model.SeatHold) bool {
		return h.TripID == tripID && h.SeatNumber == seat && !h.ExpiresAt.After(now)
	}), nil
}

func (s *Store) ExpireHolds(ctx context.Context, now time.Time) (int64, error) {
	defer s.lock()()
	return s.expire(func(h model.SeatHold) bool { return !h.ExpiresAt.After(now) }), nil
}

func (s *Store) expire(match func(model.SeatHold) bool) int64 {
	var n int64
	for id, h := range s.d.holds {
		if h.Status == model.HoldActive && match(h) {
			h.Status = model.HoldExpired
			s.d.holds[id] = h
			n++
		}
	}
	return n
}

// InsertHold enforces one HOLD row per (trip, seat), like the active_key
// unique index.
func (s *Store) InsertHold(ctx context.Context, h *model.SeatHold) error {
	defer s.lock()()
	for _, other := range s.d.holds {
		if other.Status == model.HoldActive && other.TripID == h.TripID && other.SeatNumber == h.SeatNumber {
			return repository.ErrDuplicate
		}
	}
	s.d.nextHold++
	h.ID = s.d.nextHold
	s.d.holds[h.ID] = *h
	return nil
}

func (s *Store) GetHold(ctx context.Context, id uint64) (model.SeatHold, error) {
	defer s.lock()()
	h, ok := s.d.holds[id]
	if !ok {
		return model.SeatHold{}, repository.ErrNotFound
	}
	return h, nil
}

func (s *Store) SetHoldStatus(ctx context.Context, id uint64, from, to model.HoldStatus) (bool, error) {
	defer s.lock()()
	h, ok := s.d.holds[id]
	if !ok || h.Status != from {
		return false, nil
	}
	h.Status = to
	s.d.holds[id] = h
	return true, nil
}

func (s *Store) ListActiveHoldsByTrip(ctx context.Context, tripID uint64, now time.Time) ([]model.SeatHold, error) {
	defer s.lock()()
	return s.activeHolds(now, func(h model.SeatHold) bool { return h.TripID == tripID }), nil
}

func (s *Store) ListActiveHoldsByUser(ctx context.Context, userID uint64, now time.Time) ([]model.SeatHold, error) {
	defer s.lock()()
	return s.activeHolds(now, func(h model.SeatHold) bool { return h.UserID == userID }), nil
}

func (s *Store) activeHolds(now time.Time, match func(model.SeatHold) bool) []model.SeatHold {
	out := []model.SeatHold{}
	for _, h := range s.d.holds {
		if h.ActiveAt(now) && match(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) SoldSegments(ctx context.Context, tripID uint64, seat int) ([]model.Segment, error) {
	defer s.lock()()
	var out []model.Segment
	for _, t := range s.d.tickets {
		if t.TripID == tripID && t.SeatNumber == seat && t.Status == model.TicketSold {
			out = append(out, t.Segment())
		}
	}
	return out, nil
}

func (s *Store) SoldSegmentsByTrip(ctx context.Context, tripID uint64) (map[int][]model.Segment, error) {
	defer s.lock()()
	out := map[int][]model.Segment{}
	for _, t := range s.d.tickets {
		if t.TripID == tripID && t.Status == model.TicketSold {
			out[t.SeatNumber] = append(out[t.SeatNumber], t.Segment())
		}
	}
	return out, nil
}

func (s *Store) CountSoldSeats(ctx context.Context, tripID uint64) (int, error) {
	defer s.lock()()
	seats := map[int]bool{}
	for _, t := range s.d.tickets {
		if t.TripID == tripID && t.Status == model.TicketSold {
			seats[t.SeatNumber] = true
		}
	}
	return len(seats), nil
}

func (s *Store) InsertTicket(ctx context.Context, t *model.Ticket) error {
	defer s.lock()()
	for _, other := range s.d.tickets {
		if other.Code == t.Code {
			return repository.ErrDuplicate
		}
	}
	s.d.nextTicket++
	t.ID = s.d.nextTicket
	row := *t
	row.Baggage = nil
	s.d.tickets[t.ID] = row
	return nil
}

func (s *Store) InsertBaggage(ctx context.Context, b *model.Baggage) error {
	defer s.lock()()
	if _, ok := s.d.tickets[b.TicketID]; !ok {
		return repository.ErrNotFound
	}
	for _, other := range s.d.baggage {
		if other.TagCode == b.TagCode {
			return repository.ErrDuplicate
		}
	}
	s.d.nextBaggage++
	b.ID = s.d.nextBaggage
	s.d.baggage[b.TicketID] = *b
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id uint64) (model.Ticket, error) {
	defer s.lock()()
	t, ok := s.d.tickets[id]
	if !ok {
		return model.Ticket{}, repository.ErrNotFound
	}
	return s.withBaggage(t), nil
}

func (s *Store) withBaggage(t model.Ticket) model.Ticket {
	if b, ok := s.d.baggage[t.ID]; ok {
		t.Baggage = &b
	}
	return t
}

func (s *Store) ListTicketsByPassenger(ctx context.Context, passengerID uint64) ([]model.Ticket, error) {
	defer s.lock()()
	out := []model.Ticket{}
	for _, t := range s.d.tickets {
		if t.PassengerID == passengerID {
			out = append(out, s.withBaggage(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CancelTicket(ctx context.Context, id uint64, at time.Time, refund decimal.Decimal, percent int) (bool, error) {
	defer s.lock()()
	t, ok := s.d.tickets[id]
	if !ok || t.Status != model.TicketSold {
		return false, nil
	}
	t.Status = model.TicketCancelled
	t.CancelledAt = &at
	t.RefundAmount = &refund
	t.RefundPercent = &percent
	s.d.tickets[id] = t
	return true, nil
}

func (s *Store) BoardTicket(ctx context.Context, id uint64, at time.Time) (bool, error) {
	defer s.lock()()
	t, ok := s.d.tickets[id]
	if !ok || t.Status != model.TicketSold {
		return false, nil
	}
	t.BoardedAt = &at
	s.d.tickets[id] = t
	return true, nil
}

func (s *Store) MarkNoShows(ctx context.Context, after, until time.Time) (int64, error) {
	defer s.lock()()
	var n int64
	for id, t := range s.d.tickets {
		if t.Status != model.TicketSold || t.BoardedAt != nil {
			continue
		}
		trip, ok := s.d.trips[t.TripID]
		if !ok || (trip.Status != model.TripScheduled && trip.Status != model.TripBoarding) {
			continue
		}
		if trip.DepartureTime.After(after) && !trip.DepartureTime.After(until) {
			t.Status = model.TicketNoShow
			s.d.tickets[id] = t
			n++
		}
	}
	return n, nil
}
