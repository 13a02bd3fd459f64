package model

import "time"

// HoldStatus is the state of a seat hold. EXPIRED and SOLD rows are kept
// as tombstones.
type HoldStatus string

const (
	HoldActive  HoldStatus = "HOLD"
	HoldExpired HoldStatus = "EXPIRED"
	HoldSold    HoldStatus = "SOLD"
)

// SeatHold is a time-boxed lock on a whole seat of a trip, taken by a user
// before paying.
//
// Fields:
//  ID         – seat_holds.id
//  TripID     – trip the seat belongs to.
//  SeatNumber – 1..bus capacity.
//  UserID     – holding user.
//  HoldToken  – opaque token returned to the client for correlation.
//  Status     – HOLD, EXPIRED or SOLD.
//  CreatedAt  – creation time.
//  ExpiresAt  – the hold stops blocking other users at this instant.
type SeatHold struct {
	ID         uint64     `json:"id"`
	TripID     uint64     `json:"trip_id"`
	SeatNumber int        `json:"seat_number"`
	UserID     uint64     `json:"user_id"`
	HoldToken  string     `json:"hold_token"`
	Status     HoldStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
}

// ActiveAt reports whether the hold still blocks the seat at now. Expiry is
// checked at read time, so a HOLD row past its expiry is inactive even if the
// sweep has not tombstoned it yet.
func (h SeatHold) ActiveAt(now time.Time) bool {
	return h.Status == HoldActive && h.ExpiresAt.After(now)
}
