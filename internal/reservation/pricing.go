package reservation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// Pricing computes ticket prices. It has no side effects; for a fixed
// number of sold seats the same inputs always give the same price.
type Pricing struct {
	store    repository.Store
	settings Settings
}

// NewPricing returns a Pricing reading fares and occupancy from store.
func NewPricing(store repository.Store, settings Settings) *Pricing {
	return &Pricing{store: store, settings: settings}
}

func (p *Pricing) in(tx repository.Store) *Pricing {
	return &Pricing{store: tx, settings: p.settings}
}

// Price returns base fare x demand multiplier x peak multiplier for the
// segment between from and to, rounded half-up to two places.
func (p *Pricing) Price(ctx context.Context, trip model.Trip, from, to model.Stop) (decimal.Decimal, error) {
	cfg := p.settings.Current()

	base := cfg.TicketBasePrice
	rule, err := p.store.FindFareRule(ctx, trip.RouteID, from.ID, to.ID)
	if err != nil {
		return decimal.Zero, domain.Internal(err)
	}
	if rule != nil {
		base = rule.BasePrice
	}

	sold, err := p.store.CountSoldSeats(ctx, trip.ID)
	if err != nil {
		return decimal.Zero, domain.Internal(err)
	}

	price := base.Mul(DemandMultiplier(cfg, sold, trip.Capacity))
	if IsPeakHour(trip.DepartureTime, cfg.Location) {
		price = price.Mul(cfg.PeakHourMultiplier)
	}
	return roundMoney(price), nil
}

// Quote prices a segment given by ids, validating it the same way a
// purchase does.
func (p *Pricing) Quote(ctx context.Context, tripID, fromStopID, toStopID uint64) (decimal.Decimal, error) {
	trip, err := p.store.GetTrip(ctx, tripID)
	if err != nil {
		return decimal.Zero, notFoundOr(err, "trip")
	}
	from, to, err := resolveSegment(ctx, p.store, trip, fromStopID, toStopID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price(ctx, trip, from, to)
}

// DemandMultiplier picks the high multiplier when occupancy exceeds 0.8,
// the medium one when it exceeds 0.6, and 1 otherwise.
func DemandMultiplier(cfg config.Engine, soldSeats, capacity int) decimal.Decimal {
	if capacity <= 0 {
		return decimal.NewFromInt(1)
	}
	// sold/capacity > 4/5 and > 3/5 in integer arithmetic.
	switch {
	case soldSeats*5 > capacity*4:
		return cfg.HighDemandMultiplier
	case soldSeats*5 > capacity*3:
		return cfg.MediumDemandMultiplier
	default:
		return decimal.NewFromInt(1)
	}
}

// IsPeakHour reports whether t, seen in loc, falls in 06:00-09:59 or
// 17:00-20:59.
func IsPeakHour(t time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()
	return (h >= 6 && h <= 9) || (h >= 17 && h <= 20)
}

// roundMoney rounds half-up to two decimal places. Amounts are never
// negative, so decimal's half-away-from-zero is half-up here.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
