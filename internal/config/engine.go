package config

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

// Engine holds the tunables consumed by the reservation engine.  Values come
// from the environment at start-up and may be overridden by rows of the
// settings table; anything unset or unparsable keeps its fallback.
type Engine struct {
	HoldDuration           time.Duration
	BaggageFreeKg          decimal.Decimal
	BaggageFeePerKg        decimal.Decimal
	MediumDemandMultiplier decimal.Decimal
	HighDemandMultiplier   decimal.Decimal
	PeakHourMultiplier     decimal.Decimal
	// RefundTiers are the percentages for >=48h, [24h,48h), [12h,24h),
	// [6h,12h) and <6h before departure, in that order.
	RefundTiers     [5]int
	TicketBasePrice decimal.Decimal
	// Location is the local time zone of trip departures, used for the
	// peak-hour windows.
	Location     *time.Location
	NoShowWindow time.Duration
}

// Settings table keys.
const (
	KeyHoldDurationMin        = "hold_duration_min"
	KeyBaggageFreeKg          = "baggage_free_kg"
	KeyBaggageFeePerKg        = "baggage_fee_per_kg"
	KeyDemandMediumMultiplier = "demand_medium_multiplier"
	KeyDemandHighMultiplier   = "demand_high_multiplier"
	KeyPeakHourMultiplier     = "peak_hour_multiplier"
	KeyRefundTiers            = "refund_tiers"
	KeyTicketBasePrice        = "ticket_base_price"
	KeyTripTimezone           = "trip_timezone"
	KeyNoShowWindowMin        = "no_show_window_min"
)

// DefaultEngine returns the built-in fallbacks.
func DefaultEngine() Engine {
	return Engine{
		HoldDuration:           10 * time.Minute,
		BaggageFreeKg:          decimal.NewFromInt(23),
		BaggageFeePerKg:        decimal.NewFromInt(5000),
		MediumDemandMultiplier: decimal.RequireFromString("1.15"),
		HighDemandMultiplier:   decimal.RequireFromString("1.30"),
		PeakHourMultiplier:     decimal.RequireFromString("1.10"),
		RefundTiers:            [5]int{90, 70, 50, 30, 0},
		TicketBasePrice:        decimal.NewFromInt(50000),
		Location:               time.UTC,
		NoShowWindow:           5 * time.Minute,
	}
}

// LoadEngine builds the engine settings from environment variables on top
// of DefaultEngine.
func LoadEngine() Engine {
	e := DefaultEngine()
	env := map[string]string{
		KeyHoldDurationMin:        envStr("HOLD_DURATION_MIN", ""),
		KeyBaggageFreeKg:          envStr("BAGGAGE_FREE_KG", ""),
		KeyBaggageFeePerKg:        envStr("BAGGAGE_FEE_PER_KG", ""),
		KeyDemandMediumMultiplier: envStr("DEMAND_MEDIUM_MULTIPLIER", ""),
		KeyDemandHighMultiplier:   envStr("DEMAND_HIGH_MULTIPLIER", ""),
		KeyPeakHourMultiplier:     envStr("PEAK_HOUR_MULTIPLIER", ""),
		KeyRefundTiers:            envStr("REFUND_TIERS", ""),
		KeyTicketBasePrice:        envStr("TICKET_BASE_PRICE", ""),
		KeyTripTimezone:           envStr("TRIP_TIMEZONE", ""),
		KeyNoShowWindowMin:        envStr("NO_SHOW_WINDOW_MIN", ""),
	}
	for _, err := range e.apply(env) {
		log.Printf("config: %v; keeping default", err)
	}
	return e
}

// apply overlays kv on e.  Empty values are ignored; invalid values are
// reported and leave the field unchanged.
func (e *Engine) apply(kv map[string]string) []error {
	var errs []error
	bad := func(key, val string) {
		errs = append(errs, fmt.Errorf("invalid value for %s: %q", key, val))
	}
	for key, raw := range kv {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		switch key {
		case KeyHoldDurationMin:
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				bad(key, val)
				continue
			}
			e.HoldDuration = time.Duration(n) * time.Minute
		case KeyNoShowWindowMin:
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				bad(key, val)
				continue
			}
			e.NoShowWindow = time.Duration(n) * time.Minute
		case KeyBaggageFreeKg, KeyBaggageFeePerKg, KeyTicketBasePrice:
			d, err := decimal.NewFromString(val)
			if err != nil || d.IsNegative() {
				bad(key, val)
				continue
			}
			switch key {
			case KeyBaggageFreeKg:
				e.BaggageFreeKg = d
			case KeyBaggageFeePerKg:
				e.BaggageFeePerKg = d
			default:
				e.TicketBasePrice = d
			}
		case KeyDemandMediumMultiplier, KeyDemandHighMultiplier, KeyPeakHourMultiplier:
			d, err := decimal.NewFromString(val)
			if err != nil || !d.IsPositive() {
				bad(key, val)
				continue
			}
			switch key {
			case KeyDemandMediumMultiplier:
				e.MediumDemandMultiplier = d
			case KeyDemandHighMultiplier:
				e.HighDemandMultiplier = d
			default:
				e.PeakHourMultiplier = d
			}
		case KeyRefundTiers:
			tiers, ok := parseRefundTiers(val)
			if !ok {
				bad(key, val)
				continue
			}
			e.RefundTiers = tiers
		case KeyTripTimezone:
			loc, err := time.LoadLocation(val)
			if err != nil {
				bad(key, val)
				continue
			}
			e.Location = loc
		}
	}
	return errs
}

// parseRefundTiers accepts exactly five comma-separated percentages in
// 0..100.
func parseRefundTiers(s string) ([5]int, bool) {
	var out [5]int
	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 100 {
			return out, false
		}
		out[i] = n
	}
	return out, true
}

// SettingsSource yields key/value overrides, typically the settings table.
type SettingsSource interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// Provider serves the current Engine snapshot.  Readers never block; Reload
// swaps in a new snapshot built from the defaults plus the source's rows.
type Provider struct {
	defaults Engine
	current  atomic.Pointer[Engine]
}

// NewProvider returns a Provider serving defaults until the first Reload.
func NewProvider(defaults Engine) *Provider {
	p := &Provider{defaults: defaults}
	e := defaults
	p.current.Store(&e)
	return p
}

// Current returns the active settings.
func (p *Provider) Current() Engine {
	return *p.current.Load()
}

// Reload rebuilds the snapshot from the defaults and src.  On a source error
// the previous snapshot stays active.
func (p *Provider) Reload(ctx context.Context, src SettingsSource) error {
	kv, err := src.LoadSettings(ctx)
	if err != nil {
		return err
	}
	next := p.defaults
	for _, err := range next.apply(kv) {
		log.Printf("config: settings table: %v; keeping fallback", err)
	}
	p.current.Store(&next)
	return nil
}
