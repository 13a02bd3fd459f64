package reservation

import (
	"context"
	"errors"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// Availability answers whether a seat can be sold for a segment. Only SOLD
// tickets occupy a segment; cancelled and no-show tickets are ignored.
type Availability struct {
	store repository.Store
	clock clock.Clock
}

// NewAvailability returns an Availability reading from store.
func NewAvailability(store repository.Store, clk clock.Clock) *Availability {
	return &Availability{store: store, clock: clk}
}

// in returns a copy bound to the transaction store tx.
func (a *Availability) in(tx repository.Store) *Availability {
	return &Availability{store: tx, clock: a.clock}
}

// IsSeatFreeForSegment reports whether no SOLD ticket for (trip, seat)
// overlaps [fromOrder, toOrder).
func (a *Availability) IsSeatFreeForSegment(ctx context.Context, tripID uint64, seat, fromOrder, toOrder int) (bool, error) {
	return a.isFree(ctx, tripID, seat, model.Segment{From: fromOrder, To: toOrder})
}

// IsSeatFreeForWholeTrip reports whether the seat has no SOLD ticket at all.
func (a *Availability) IsSeatFreeForWholeTrip(ctx context.Context, tripID uint64, seat int) (bool, error) {
	return a.isFree(ctx, tripID, seat, model.WholeTrip)
}

func (a *Availability) isFree(ctx context.Context, tripID uint64, seat int, seg model.Segment) (bool, error) {
	sold, err := a.store.SoldSegments(ctx, tripID, seat)
	if err != nil {
		return false, domain.Internal(err)
	}
	return !overlapsAny(seg, sold), nil
}

func overlapsAny(seg model.Segment, sold []model.Segment) bool {
	for _, s := range sold {
		if seg.Overlaps(s) {
			return true
		}
	}
	return false
}

// SeatMap lists every seat of the trip with its state on the segment between
// the two stops. Zero stop ids select the whole trip. A seat sold on an
// overlapping segment is SOLD even if also held; otherwise an active hold
// makes it HELD.
func (a *Availability) SeatMap(ctx context.Context, tripID, fromStopID, toStopID uint64) ([]model.SeatStatus, error) {
	trip, err := a.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, notFoundOr(err, "trip")
	}
	seg := model.WholeTrip
	if fromStopID != 0 || toStopID != 0 {
		from, to, err := resolveSegment(ctx, a.store, trip, fromStopID, toStopID)
		if err != nil {
			return nil, err
		}
		seg = model.Segment{From: from.Order, To: to.Order}
	}

	sold, err := a.store.SoldSegmentsByTrip(ctx, tripID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	holds, err := a.store.ListActiveHoldsByTrip(ctx, tripID, a.clock.Now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	held := make(map[int]bool, len(holds))
	for _, h := range holds {
		held[h.SeatNumber] = true
	}

	out := make([]model.SeatStatus, 0, trip.Capacity)
	for seat := 1; seat <= trip.Capacity; seat++ {
		state := model.SeatAvailable
		switch {
		case overlapsAny(seg, sold[seat]):
			state = model.SeatSold
		case held[seat]:
			state = model.SeatHeld
		}
		out = append(out, model.SeatStatus{SeatNumber: seat, State: state})
	}
	return out, nil
}

// resolveSegment loads both stops and checks they lie on the trip's route
// in travel order.
func resolveSegment(ctx context.Context, s repository.Store, trip model.Trip, fromStopID, toStopID uint64) (model.Stop, model.Stop, error) {
	from, err := s.GetStop(ctx, fromStopID)
	if err != nil {
		return model.Stop{}, model.Stop{}, notFoundOr(err, "from stop")
	}
	to, err := s.GetStop(ctx, toStopID)
	if err != nil {
		return model.Stop{}, model.Stop{}, notFoundOr(err, "to stop")
	}
	if from.RouteID != trip.RouteID || to.RouteID != trip.RouteID {
		return model.Stop{}, model.Stop{}, domain.InvalidSegment("stops are not on the trip's route")
	}
	if from.Order >= to.Order {
		return model.Stop{}, model.Stop{}, domain.InvalidSegment("from stop must come before to stop")
	}
	return from, to, nil
}

// notFoundOr turns repository.ErrNotFound into a NOT_FOUND failure for
// resource and anything else into INTERNAL.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFound(resource)
	}
	return domain.Internal(err)
}
