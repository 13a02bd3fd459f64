package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// errHoldRace signals that the active-hold unique index rejected an insert
// that passed the in-transaction checks.
var errHoldRace = errors.New("concurrent hold on seat")

// Holds manages seat holds. Per (trip, seat) a hold moves
// HOLD -> SOLD or HOLD -> EXPIRED and never back.
type Holds struct {
	store    repository.Store
	settings Settings
	clock    clock.Clock
	codes    utils.CodeGenerator
	avail    *Availability
}

// NewHolds wires a hold manager.
func NewHolds(store repository.Store, settings Settings, clk clock.Clock, codes utils.CodeGenerator) *Holds {
	return &Holds{
		store:    store,
		settings: settings,
		clock:    clk,
		codes:    codes,
		avail:    NewAvailability(store, clk),
	}
}

func (h *Holds) in(tx repository.Store) *Holds {
	c := *h
	c.store = tx
	c.avail = h.avail.in(tx)
	return &c
}

// CreateHold locks a whole seat of a trip for userID until now plus the
// configured hold duration. A repeated call by the same user while the hold
// is active returns the existing hold.
func (h *Holds) CreateHold(ctx context.Context, tripID uint64, seat int, userID uint64) (model.SeatHold, error) {
	now := model.StorageTime(h.clock.Now())
	var out model.SeatHold
	err := h.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.GetTrip(ctx, tripID)
		if err != nil {
			return notFoundOr(err, "trip")
		}
		if err := requireUser(ctx, tx, userID); err != nil {
			return err
		}
		if trip.Departed(now) {
			return domain.SeatUnavailable("trip has already departed")
		}
		if trip.Status != model.TripScheduled && trip.Status != model.TripBoarding {
			return domain.SeatUnavailable(fmt.Sprintf("trip is %s", trip.Status))
		}
		if !trip.SeatInRange(seat) {
			return domain.SeatUnavailable(fmt.Sprintf("seat %d is outside 1..%d", seat, trip.Capacity))
		}

		// Serialises every hold and purchase on this seat until commit.
		if err := tx.LockSeat(ctx, tripID, seat); err != nil {
			return domain.Internal(err)
		}
		existing, err := tx.ActiveSeatHold(ctx, tripID, seat, now)
		if err != nil {
			return domain.Internal(err)
		}
		if existing != nil {
			if existing.UserID != userID {
				return domain.SeatUnavailable("seat is held by another user")
			}
			out = *existing
			return nil
		}
		free, err := h.avail.in(tx).IsSeatFreeForWholeTrip(ctx, tripID, seat)
		if err != nil {
			return err
		}
		if !free {
			return domain.SeatUnavailable("seat is already sold on this trip")
		}

		// Stale HOLD rows still own the seat's active_key; retire them first.
		if _, err := tx.ExpireSeatHolds(ctx, tripID, seat, now); err != nil {
			return domain.Internal(err)
		}
		hold := model.SeatHold{
			TripID:     tripID,
			SeatNumber: seat,
			UserID:     userID,
			HoldToken:  h.codes.HoldToken(),
			Status:     model.HoldActive,
			CreatedAt:  now,
			ExpiresAt:  now.Add(h.settings.Current().HoldDuration),
		}
		if err := tx.InsertHold(ctx, &hold); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return errHoldRace
			}
			return domain.Internal(err)
		}
		out = hold
		return nil
	})
	if errors.Is(err, errHoldRace) {
		return h.resolveRace(ctx, tripID, seat, userID, now)
	}
	if err != nil {
		return model.SeatHold{}, domain.Internal(err)
	}
	return out, nil
}

// resolveRace re-reads the winner of a lost insert race.
func (h *Holds) resolveRace(ctx context.Context, tripID uint64, seat int, userID uint64, now time.Time) (model.SeatHold, error) {
	log.Printf("holds: active hold insert collided trip_id=%d seat=%d", tripID, seat)
	existing, err := h.store.ActiveSeatHold(ctx, tripID, seat, now)
	if err != nil {
		return model.SeatHold{}, domain.Internal(err)
	}
	if existing != nil && existing.UserID == userID {
		return *existing, nil
	}
	return model.SeatHold{}, domain.SeatUnavailable("seat is held by another user")
}

// HasActiveHold reports whether anyone holds the seat right now.
func (h *Holds) HasActiveHold(ctx context.Context, tripID uint64, seat int) (bool, error) {
	hold, err := h.store.ActiveSeatHold(ctx, tripID, seat, h.clock.Now())
	if err != nil {
		return false, domain.Internal(err)
	}
	return hold != nil, nil
}

// FindUserActiveHold returns userID's active hold on the seat, or nil.
func (h *Holds) FindUserActiveHold(ctx context.Context, tripID uint64, seat int, userID uint64) (*model.SeatHold, error) {
	hold, err := h.store.ActiveSeatHold(ctx, tripID, seat, h.clock.Now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	if hold == nil || hold.UserID != userID {
		return nil, nil
	}
	return hold, nil
}

// ListActiveHoldsForTrip returns every active hold on the trip.
func (h *Holds) ListActiveHoldsForTrip(ctx context.Context, tripID uint64) ([]model.SeatHold, error) {
	holds, err := h.store.ListActiveHoldsByTrip(ctx, tripID, h.clock.Now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	return holds, nil
}

// ListActiveHoldsForUser returns every active hold owned by userID.
func (h *Holds) ListActiveHoldsForUser(ctx context.Context, userID uint64) ([]model.SeatHold, error) {
	holds, err := h.store.ListActiveHoldsByUser(ctx, userID, h.clock.Now())
	if err != nil {
		return nil, domain.Internal(err)
	}
	return holds, nil
}

// ReleaseHold consumes a hold after its seat was purchased (HOLD -> SOLD).
// Releasing a hold that is already SOLD is a no-op.
func (h *Holds) ReleaseHold(ctx context.Context, holdID uint64) error {
	return h.release(ctx, holdID, h.clock.Now())
}

func (h *Holds) release(ctx context.Context, holdID uint64, now time.Time) error {
	hold, err := h.store.GetHold(ctx, holdID)
	if err != nil {
		return notFoundOr(err, "hold")
	}
	switch {
	case hold.Status == model.HoldSold:
		return nil
	case !hold.ActiveAt(now):
		return domain.InvalidState("hold has expired")
	}
	ok, err := h.store.SetHoldStatus(ctx, holdID, model.HoldActive, model.HoldSold)
	if err != nil {
		return domain.Internal(err)
	}
	if !ok {
		return domain.InvalidState("hold is no longer active")
	}
	return nil
}

// CancelHold lets the holding user drop an active hold early
// (HOLD -> EXPIRED). Holds owned by someone else are reported as missing.
func (h *Holds) CancelHold(ctx context.Context, holdID, userID uint64) error {
	now := h.clock.Now()
	hold, err := h.store.GetHold(ctx, holdID)
	if err != nil {
		return notFoundOr(err, "hold")
	}
	if hold.UserID != userID {
		return domain.NotFound("hold")
	}
	if !hold.ActiveAt(now) {
		return domain.InvalidState(fmt.Sprintf("hold is %s", displayHoldStatus(hold, now)))
	}
	ok, err := h.store.SetHoldStatus(ctx, holdID, model.HoldActive, model.HoldExpired)
	if err != nil {
		return domain.Internal(err)
	}
	if !ok {
		return domain.InvalidState("hold is no longer active")
	}
	return nil
}

// ExpireSweep tombstones every HOLD whose expiry is at or before now and
// returns how many rows changed. Expiry is already enforced at read time;
// the sweep only cleans up.
func (h *Holds) ExpireSweep(ctx context.Context, now time.Time) (int64, error) {
	n, err := h.store.ExpireHolds(ctx, now)
	if err != nil {
		return 0, domain.Internal(err)
	}
	if n > 0 {
		log.Printf("holds: expired %d holds at %s", n, now.UTC().Format(time.RFC3339))
	}
	return n, nil
}

func displayHoldStatus(h model.SeatHold, now time.Time) model.HoldStatus {
	if h.Status == model.HoldActive && !h.ActiveAt(now) {
		return model.HoldExpired
	}
	return h.Status
}

// requireUser fails with NOT_FOUND for unknown or deactivated users.
func requireUser(ctx context.Context, s repository.Store, userID uint64) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return notFoundOr(err, "user")
	}
	if !u.IsActive {
		return domain.NotFound("user")
	}
	return nil
}
