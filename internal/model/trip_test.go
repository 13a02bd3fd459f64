package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripTransitions(t *testing.T) {
	cases := []struct {
		from, to TripStatus
		ok       bool
	}{
		{TripScheduled, TripBoarding, true},
		{TripScheduled, TripCancelled, true},
		{TripScheduled, TripDeparted, false},
		{TripBoarding, TripDeparted, true},
		{TripBoarding, TripCancelled, true},
		{TripBoarding, TripScheduled, false},
		{TripDeparted, TripArrived, true},
		{TripDeparted, TripCancelled, false},
		{TripArrived, TripScheduled, false},
		{TripCancelled, TripScheduled, false},
		{TripStatus("DELAYED"), TripBoarding, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEveryStatusListed(t *testing.T) {
	for _, s := range []TripStatus{TripScheduled, TripBoarding, TripDeparted, TripArrived, TripCancelled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, TripStatus("").Valid())
}

func TestSegmentOverlap(t *testing.T) {
	a := Segment{From: 1, To: 3}
	assert.True(t, a.Overlaps(Segment{From: 2, To: 4}))
	assert.True(t, a.Overlaps(Segment{From: 0, To: 10}))
	assert.False(t, a.Overlaps(Segment{From: 3, To: 5}), "abutting segments are disjoint")
	assert.False(t, Segment{From: 3, To: 5}.Overlaps(a))
	assert.True(t, WholeTrip.Overlaps(a))
	assert.False(t, Segment{From: 2, To: 2}.Valid())
}
