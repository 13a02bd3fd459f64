package reservation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

func TestTripTransitions(t *testing.T) {
	f := newFixture(t)

	trip, err := f.engine.Trips.Transition(f.ctx, tripID, model.TripBoarding)
	require.NoError(t, err)
	assert.Equal(t, model.TripBoarding, trip.Status)

	_, err = f.engine.Trips.Transition(f.ctx, tripID, model.TripScheduled)
	assert.True(t, domain.Is(err, domain.KindInvalidStateTransition), "no backward moves")

	_, err = f.engine.Trips.Transition(f.ctx, tripID, model.TripDeparted)
	require.NoError(t, err)
	_, err = f.engine.Trips.Transition(f.ctx, tripID, model.TripCancelled)
	assert.True(t, domain.Is(err, domain.KindInvalidStateTransition))
	_, err = f.engine.Trips.Transition(f.ctx, tripID, model.TripArrived)
	require.NoError(t, err)

	_, err = f.engine.Trips.Transition(f.ctx, tripID, model.TripStatus("LATE"))
	assert.True(t, domain.Is(err, domain.KindInvalidStateTransition))
	_, err = f.engine.Trips.Transition(f.ctx, 99, model.TripBoarding)
	assert.True(t, domain.Is(err, domain.KindNotFound))

	stored, err := f.store.GetTrip(f.ctx, tripID)
	require.NoError(t, err)
	assert.Equal(t, model.TripArrived, stored.Status)
}

func TestPurchaseRequiresScheduledTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Trips.Transition(f.ctx, tripID, model.TripCancelled)
	require.NoError(t, err)

	_, err = f.purchase(userA, 1, 1, 2)
	assert.True(t, domain.Is(err, domain.KindInvalidStateTransition))
}
