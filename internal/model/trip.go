package model

import "time"

// TripStatus is the lifecycle state of a scheduled trip.
type TripStatus string

const (
	TripScheduled TripStatus = "SCHEDULED"
	TripBoarding  TripStatus = "BOARDING"
	TripDeparted  TripStatus = "DEPARTED"
	TripArrived   TripStatus = "ARRIVED"
	TripCancelled TripStatus = "CANCELLED"
)

// tripTransitions is the only place where legal trip status changes are
// listed. A status missing from the map has no outgoing transitions.
var tripTransitions = map[TripStatus][]TripStatus{
	TripScheduled: {TripBoarding, TripCancelled},
	TripBoarding:  {TripDeparted, TripCancelled},
	TripDeparted:  {TripArrived},
	TripArrived:   nil,
	TripCancelled: nil,
}

// Valid reports whether s is a known status.
func (s TripStatus) Valid() bool {
	_, ok := tripTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is permitted.
func (s TripStatus) CanTransitionTo(next TripStatus) bool {
	for _, allowed := range tripTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Trip is one bus running one route on one date. The reservation engine
// reads trips and only writes their status.
//
// Fields:
//  ID            – trips.id
//  RouteID       – route the trip runs on; stops of other routes are rejected.
//  BusID         – physical bus; fixes Capacity.
//  Capacity      – buses.capacity, seats are numbered 1..Capacity.
//  DepartureTime – scheduled departure (UTC).
//  ArrivalTime   – arrival estimate (UTC).
//  Status        – lifecycle state.
type Trip struct {
	ID            uint64     `json:"id"`
	RouteID       uint64     `json:"route_id"`
	BusID         uint64     `json:"bus_id"`
	Capacity      int        `json:"capacity"`
	DepartureTime time.Time  `json:"departure_time"`
	ArrivalTime   time.Time  `json:"arrival_time"`
	Status        TripStatus `json:"status"`
}

// Departed reports whether the scheduled departure lies strictly before now.
func (t Trip) Departed(now time.Time) bool {
	return t.DepartureTime.Before(now)
}

// SeatInRange reports whether seat is a valid seat number on this bus.
func (t Trip) SeatInRange(seat int) bool {
	return seat >= 1 && seat <= t.Capacity
}
