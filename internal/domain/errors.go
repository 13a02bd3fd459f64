// Package domain defines the typed failures returned by the reservation
// engine. Every failure carries a stable machine-readable Kind that the
// HTTP layer translates into a status code. Storage errors never leak
// through Error(); they are kept only as the unwrap target of an
// INTERNAL failure so that logs can still show them.
package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable code of a failure.
type Kind string

const (
	KindNotFound               Kind = "NOT_FOUND"
	KindInvalidSegment         Kind = "INVALID_SEGMENT"
	KindSeatUnavailable        Kind = "SEAT_UNAVAILABLE"
	KindInvalidStateTransition Kind = "INVALID_STATE_TRANSITION"
	KindInternal               Kind = "INTERNAL"
)

// Error is a business failure local to one operation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Kind == KindInternal {
		return "internal error"
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing trip, stop, user, hold or ticket.
func NotFound(resource string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s not found", resource)}
}

// InvalidSegment reports stops off the trip's route or an empty/reversed range.
func InvalidSegment(msg string) error {
	return &Error{Kind: KindInvalidSegment, Msg: msg}
}

// SeatUnavailable reports a seat out of range, a departed trip, a seat held
// by somebody else or sold on an overlapping segment.
func SeatUnavailable(msg string) error {
	return &Error{Kind: KindSeatUnavailable, Msg: msg}
}

// InvalidState reports an operation against a ticket, hold or trip whose
// current status does not permit it.
func InvalidState(msg string) error {
	return &Error{Kind: KindInvalidStateTransition, Msg: msg}
}

// Internal wraps an unexpected failure. The wrapped error is reachable via
// errors.Unwrap but is not part of the message.
func Internal(err error) error {
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Is reports whether err is a domain failure of the given kind.
func Is(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
