package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
	"github.com/iliyamo/bus-seat-reservation/internal/utils"
)

// DefaultPaymentMethod is recorded when a purchase names none.
const DefaultPaymentMethod = "CASH"

// PurchaseRequest describes one seat sale. BaggageWeightKg is nil when the
// passenger checks no luggage.
type PurchaseRequest struct {
	TripID          uint64
	PassengerID     uint64
	SeatNumber      int
	FromStopID      uint64
	ToStopID        uint64
	PaymentMethod   string
	BaggageWeightKg *decimal.Decimal
}

// CancelResult is the outcome of a cancellation.
type CancelResult struct {
	Ticket        model.Ticket    `json:"ticket"`
	RefundAmount  decimal.Decimal `json:"refund_amount"`
	RefundPercent int             `json:"refund_percent"`
}

// Workflow sells, cancels and boards tickets.
type Workflow struct {
	store    repository.Store
	settings Settings
	clock    clock.Clock
	codes    utils.CodeGenerator
	events   Publisher

	avail   *Availability
	holds   *Holds
	pricing *Pricing
	policy  CancellationPolicy
}

// NewWorkflow wires the purchase workflow and the components it drives.
// events may be nil.
func NewWorkflow(store repository.Store, settings Settings, clk clock.Clock, codes utils.CodeGenerator, events Publisher) *Workflow {
	return &Workflow{
		store:    store,
		settings: settings,
		clock:    clk,
		codes:    codes,
		events:   events,
		avail:    NewAvailability(store, clk),
		holds:    NewHolds(store, settings, clk, codes),
		pricing:  NewPricing(store, settings),
		policy:   NewCancellationPolicy(settings),
	}
}

// Purchase validates and sells one seat for a segment in a single
// transaction. A hold on the seat by the buyer is consumed; a hold by
// anyone else blocks the sale.
func (w *Workflow) Purchase(ctx context.Context, req PurchaseRequest) (model.Ticket, error) {
	now := model.StorageTime(w.clock.Now())
	cfg := w.settings.Current()
	var t model.Ticket

	err := w.store.WithinTx(ctx, func(tx repository.Store) error {
		trip, err := tx.GetTrip(ctx, req.TripID)
		if err != nil {
			return notFoundOr(err, "trip")
		}
		if trip.Status != model.TripScheduled {
			return domain.InvalidState(fmt.Sprintf("trip is %s", trip.Status))
		}
		if err := requireUser(ctx, tx, req.PassengerID); err != nil {
			return err
		}
		from, to, err := resolveSegment(ctx, tx, trip, req.FromStopID, req.ToStopID)
		if err != nil {
			return err
		}
		if trip.Departed(now) {
			return domain.SeatUnavailable("trip has already departed")
		}
		if !trip.SeatInRange(req.SeatNumber) {
			return domain.SeatUnavailable(fmt.Sprintf("seat %d is outside 1..%d", req.SeatNumber, trip.Capacity))
		}

		if err := tx.LockSeat(ctx, trip.ID, req.SeatNumber); err != nil {
			return domain.Internal(err)
		}
		hold, err := tx.ActiveSeatHold(ctx, trip.ID, req.SeatNumber, now)
		if err != nil {
			return domain.Internal(err)
		}
		if hold != nil && hold.UserID != req.PassengerID {
			return domain.SeatUnavailable("seat is held by another user")
		}
		free, err := w.avail.in(tx).IsSeatFreeForSegment(ctx, trip.ID, req.SeatNumber, from.Order, to.Order)
		if err != nil {
			return err
		}
		if !free {
			return domain.SeatUnavailable("seat is already sold on an overlapping segment")
		}

		price, err := w.pricing.in(tx).Price(ctx, trip, from, to)
		if err != nil {
			return err
		}
		method := req.PaymentMethod
		if method == "" {
			method = DefaultPaymentMethod
		}
		t = model.Ticket{
			Code:          w.codes.TicketCode(),
			TripID:        trip.ID,
			PassengerID:   req.PassengerID,
			SeatNumber:    req.SeatNumber,
			FromStopID:    from.ID,
			ToStopID:      to.ID,
			FromOrder:     from.Order,
			ToOrder:       to.Order,
			Price:         price,
			PaymentMethod: method,
			Status:        model.TicketSold,
			PurchasedAt:   now,
		}
		if err := tx.InsertTicket(ctx, &t); err != nil {
			return domain.Internal(err)
		}

		if req.BaggageWeightKg != nil {
			// Weights are stored with two decimals; the fee is charged on
			// the stored weight.
			weight := req.BaggageWeightKg.Round(2)
			bag := model.Baggage{
				TicketID:  t.ID,
				TagCode:   w.codes.BaggageTag(),
				WeightKg:  weight,
				ExcessFee: BaggageFee(cfg, weight),
			}
			if err := tx.InsertBaggage(ctx, &bag); err != nil {
				return domain.Internal(err)
			}
			t.Baggage = &bag
		}

		if hold != nil {
			return w.holds.in(tx).release(ctx, hold.ID, now)
		}
		return nil
	})
	if err != nil {
		return model.Ticket{}, domain.Internal(err)
	}

	ev := queue.TicketSoldEvent{
		TicketID:      t.ID,
		Code:          t.Code,
		TripID:        t.TripID,
		PassengerID:   t.PassengerID,
		SeatNumber:    t.SeatNumber,
		FromStopID:    t.FromStopID,
		ToStopID:      t.ToStopID,
		Price:         t.Price.StringFixed(2),
		PaymentMethod: t.PaymentMethod,
		SoldAt:        now.UTC().Format(time.RFC3339),
	}
	if t.Baggage != nil {
		ev.BaggageFee = t.Baggage.ExcessFee.StringFixed(2)
	}
	publish(ctx, w.events, ev)
	return t, nil
}

// BaggageFee charges feePerKg for every kilogram above the free threshold,
// rounded half-up to two places.
func BaggageFee(cfg config.Engine, weightKg decimal.Decimal) decimal.Decimal {
	excess := weightKg.Sub(cfg.BaggageFreeKg)
	if !excess.IsPositive() {
		return decimal.Zero
	}
	return roundMoney(excess.Mul(cfg.BaggageFeePerKg))
}

// Cancel refunds a SOLD ticket according to the time left before departure
// and marks it CANCELLED. The ticket row is kept.
func (w *Workflow) Cancel(ctx context.Context, ticketID uint64) (CancelResult, error) {
	now := model.StorageTime(w.clock.Now())
	var res CancelResult

	err := w.store.WithinTx(ctx, func(tx repository.Store) error {
		t, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket")
		}
		trip, err := tx.GetTrip(ctx, t.TripID)
		if err != nil {
			return notFoundOr(err, "trip")
		}
		amount, pct, err := w.policy.RefundFor(t, now, trip.DepartureTime)
		if err != nil {
			return err
		}
		ok, err := tx.CancelTicket(ctx, t.ID, now, amount, pct)
		if err != nil {
			return domain.Internal(err)
		}
		if !ok {
			return domain.InvalidState("ticket is no longer SOLD")
		}
		t.Status = model.TicketCancelled
		t.CancelledAt = &now
		t.RefundAmount = &amount
		t.RefundPercent = &pct
		res = CancelResult{Ticket: t, RefundAmount: amount, RefundPercent: pct}
		return nil
	})
	if err != nil {
		return CancelResult{}, domain.Internal(err)
	}

	publish(ctx, w.events, queue.TicketCancelledEvent{
		TicketID:      res.Ticket.ID,
		Code:          res.Ticket.Code,
		TripID:        res.Ticket.TripID,
		PassengerID:   res.Ticket.PassengerID,
		SeatNumber:    res.Ticket.SeatNumber,
		RefundAmount:  res.RefundAmount.StringFixed(2),
		RefundPercent: res.RefundPercent,
		CancelledAt:   now.UTC().Format(time.RFC3339),
	})
	return res, nil
}

// Board checks a passenger in. Boarded tickets are never swept as no-shows.
// Boarding an already boarded ticket returns it unchanged.
func (w *Workflow) Board(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	now := model.StorageTime(w.clock.Now())
	var t model.Ticket
	err := w.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		t, err = tx.GetTicket(ctx, ticketID)
		if err != nil {
			return notFoundOr(err, "ticket")
		}
		if t.Status != model.TicketSold {
			return domain.InvalidState("ticket is " + string(t.Status))
		}
		if t.BoardedAt != nil {
			return nil
		}
		ok, err := tx.BoardTicket(ctx, t.ID, now)
		if err != nil {
			return domain.Internal(err)
		}
		if !ok {
			return domain.InvalidState("ticket is no longer SOLD")
		}
		t.BoardedAt = &now
		return nil
	})
	if err != nil {
		return model.Ticket{}, domain.Internal(err)
	}
	return t, nil
}

// GetTicket returns a ticket with its baggage.
func (w *Workflow) GetTicket(ctx context.Context, ticketID uint64) (model.Ticket, error) {
	t, err := w.store.GetTicket(ctx, ticketID)
	if err != nil {
		return model.Ticket{}, notFoundOr(err, "ticket")
	}
	return t, nil
}

// ListPassengerTickets returns the passenger's tickets, newest first.
func (w *Workflow) ListPassengerTickets(ctx context.Context, passengerID uint64) ([]model.Ticket, error) {
	ts, err := w.store.ListTicketsByPassenger(ctx, passengerID)
	if err != nil {
		return nil, domain.Internal(err)
	}
	return ts, nil
}

// publish sends ev if a publisher is configured. Failures are logged only;
// the transaction that produced the event has already committed.
func publish(ctx context.Context, p Publisher, ev queue.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("events: publish %s failed: %v", ev.QueueName(), err)
	}
}
