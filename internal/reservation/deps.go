// Package reservation is the trip seat inventory and reservation engine:
// segment availability, seat holds, pricing, cancellation refunds, the
// purchase workflow and the no-show sweep.
//
// Every mutation runs inside repository.Store.WithinTx. Storage errors other
// than repository.ErrNotFound surface to callers as domain INTERNAL
// failures.
package reservation

import (
	"context"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

// Publisher delivers events after the transaction that produced them has
// committed. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// Settings yields the current engine tunables.
type Settings interface {
	Current() config.Engine
}
