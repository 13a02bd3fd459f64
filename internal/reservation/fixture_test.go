package reservation_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/repository/memstore"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

var _ repository.Store = (*memstore.Store)(nil)

// Catalog used by every test: route 7 with stops 101..105 at orders 1..5,
// a stop 201 on another route, and trip 1 on a 40-seat bus departing
// 2026-03-03 11:00 UTC (off-peak).
const (
	tripID     uint64 = 1
	routeID    uint64 = 7
	userA      uint64 = 1
	userB      uint64 = 2
	inactive   uint64 = 3
	otherStop  uint64 = 201
	capacity          = 40
	basePrice         = 50000
	stopOffset uint64 = 100
)

var start = time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

func stop(order int) uint64 { return stopOffset + uint64(order) }

type recorder struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recorder) Publish(_ context.Context, ev queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) queues() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.QueueName())
	}
	return out
}

type fixture struct {
	ctx      context.Context
	store    *memstore.Store
	clock    *clock.FakeClock
	settings *config.Provider
	events   *recorder
	engine   *reservation.Engine
}

type seqCodes struct {
	mu sync.Mutex
	n  int
}

func (s *seqCodes) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%04d", prefix, s.n)
}

func (s *seqCodes) TicketCode() string { return s.next("TK") }
func (s *seqCodes) BaggageTag() string { return s.next("BG") }
func (s *seqCodes) HoldToken() string  { return s.next("HT") }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	st.PutTrip(model.Trip{
		ID:            tripID,
		RouteID:       routeID,
		BusID:         3,
		Capacity:      capacity,
		DepartureTime: start.Add(48 * time.Hour),
		ArrivalTime:   start.Add(52 * time.Hour),
		Status:        model.TripScheduled,
	})
	for order := 1; order <= 5; order++ {
		st.PutStop(model.Stop{ID: stop(order), RouteID: routeID, Name: fmt.Sprintf("Stop %d", order), Order: order})
	}
	st.PutStop(model.Stop{ID: otherStop, RouteID: routeID + 1, Name: "Elsewhere", Order: 3})
	st.PutUser(model.User{ID: userA, Name: "A", Role: "passenger", IsActive: true})
	st.PutUser(model.User{ID: userB, Name: "B", Role: "passenger", IsActive: true})
	st.PutUser(model.User{ID: inactive, Name: "Gone", Role: "passenger", IsActive: false})

	f := &fixture{
		ctx:      context.Background(),
		store:    st,
		clock:    clock.Fake(start),
		settings: config.NewProvider(config.DefaultEngine()),
		events:   &recorder{},
	}
	f.engine = reservation.New(reservation.Deps{
		Store:    st,
		Settings: f.settings,
		Clock:    f.clock,
		Codes:    &seqCodes{},
		Events:   f.events,
	})
	return f
}

// addTrip stores another trip on route 7 and returns its id.
func (f *fixture) addTrip(id uint64, seats int, departure time.Time, status model.TripStatus) uint64 {
	f.store.PutTrip(model.Trip{ID: id, RouteID: routeID, BusID: id, Capacity: seats, DepartureTime: departure, ArrivalTime: departure.Add(4 * time.Hour), Status: status})
	return id
}

func (f *fixture) purchase(passenger uint64, seat, from, to int) (model.Ticket, error) {
	return f.engine.Workflow.Purchase(f.ctx, reservation.PurchaseRequest{
		TripID:      tripID,
		PassengerID: passenger,
		SeatNumber:  seat,
		FromStopID:  stop(from),
		ToStopID:    stop(to),
	})
}

func (f *fixture) mustPurchase(t *testing.T, passenger uint64, seat, from, to int) model.Ticket {
	t.Helper()
	tk, err := f.purchase(passenger, seat, from, to)
	require.NoError(t, err)
	return tk
}

// sellDirect writes a SOLD ticket without going through the workflow.
func (f *fixture) sellDirect(t *testing.T, trip uint64, seat int) {
	t.Helper()
	tk := &model.Ticket{
		Code:       fmt.Sprintf("SEED-%d-%d", trip, seat),
		TripID:     trip,
		SeatNumber: seat,
		FromOrder:  1,
		ToOrder:    5,
		Price:      decimal.NewFromInt(basePrice),
		Status:     model.TicketSold,
	}
	require.NoError(t, f.store.InsertTicket(f.ctx, tk))
}
