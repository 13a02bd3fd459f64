package reservation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// CancellationPolicy maps the time left before departure to a refund
// percentage. Each tier includes its lower bound.
type CancellationPolicy struct {
	settings Settings
}

// NewCancellationPolicy returns a policy using the configured refund tiers.
func NewCancellationPolicy(settings Settings) CancellationPolicy {
	return CancellationPolicy{settings: settings}
}

// RefundPercentage returns the tier for departure - now:
// >=48h, [24h,48h), [12h,24h), [6h,12h), <6h. After departure it is 0.
func (p CancellationPolicy) RefundPercentage(now, departure time.Time) int {
	tiers := p.settings.Current().RefundTiers
	left := departure.Sub(now)
	switch {
	case left < 0:
		return 0
	case left >= 48*time.Hour:
		return tiers[0]
	case left >= 24*time.Hour:
		return tiers[1]
	case left >= 12*time.Hour:
		return tiers[2]
	case left >= 6*time.Hour:
		return tiers[3]
	default:
		return tiers[4]
	}
}

// Refund returns price x percentage / 100 rounded half-up and the
// percentage applied.
func (p CancellationPolicy) Refund(price decimal.Decimal, now, departure time.Time) (decimal.Decimal, int) {
	pct := p.RefundPercentage(now, departure)
	amount := price.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	return roundMoney(amount), pct
}

// RefundFor is Refund for a ticket; only SOLD tickets are eligible.
func (p CancellationPolicy) RefundFor(t model.Ticket, now, departure time.Time) (decimal.Decimal, int, error) {
	if t.Status != model.TicketSold {
		return decimal.Zero, 0, domain.InvalidState("ticket is " + string(t.Status))
	}
	amount, pct := p.Refund(t.Price, now, departure)
	return amount, pct, nil
}
