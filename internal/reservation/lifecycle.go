package reservation

import (
	"context"
	"fmt"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// TripLifecycle moves trips through the status table in model.
type TripLifecycle struct {
	store repository.Store
}

// NewTripLifecycle returns a TripLifecycle writing through store.
func NewTripLifecycle(store repository.Store) *TripLifecycle {
	return &TripLifecycle{store: store}
}

// Transition moves the trip to next if the table allows it. The write is
// conditional on the status read, so two racing transitions cannot both
// succeed.
func (l *TripLifecycle) Transition(ctx context.Context, tripID uint64, next model.TripStatus) (model.Trip, error) {
	if !next.Valid() {
		return model.Trip{}, domain.InvalidState(fmt.Sprintf("unknown trip status %q", next))
	}
	trip, err := l.store.GetTrip(ctx, tripID)
	if err != nil {
		return model.Trip{}, notFoundOr(err, "trip")
	}
	if !trip.Status.CanTransitionTo(next) {
		return model.Trip{}, domain.InvalidState(fmt.Sprintf("trip cannot go from %s to %s", trip.Status, next))
	}
	ok, err := l.store.SetTripStatus(ctx, tripID, trip.Status, next)
	if err != nil {
		return model.Trip{}, domain.Internal(err)
	}
	if !ok {
		return model.Trip{}, domain.InvalidState("trip status changed concurrently")
	}
	trip.Status = next
	return trip, nil
}
