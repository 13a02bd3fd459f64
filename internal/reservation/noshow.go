package reservation

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/domain"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// NoShowSweeper marks unboarded tickets as NO_SHOW shortly before
// departure.
type NoShowSweeper struct {
	store    repository.Store
	settings Settings
	events   Publisher
}

// NewNoShowSweeper returns a sweeper. events may be nil.
func NewNoShowSweeper(store repository.Store, settings Settings, events Publisher) *NoShowSweeper {
	return &NoShowSweeper{store: store, settings: settings, events: events}
}

// Sweep flips every SOLD, unboarded ticket whose SCHEDULED or BOARDING trip
// departs in (now, now+window] to NO_SHOW. Only SOLD rows change, so running
// it twice for the same instant is harmless.
func (s *NoShowSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	until := now.Add(s.settings.Current().NoShowWindow)
	n, err := s.store.MarkNoShows(ctx, now, until)
	if err != nil {
		return 0, domain.Internal(err)
	}
	if n == 0 {
		return 0, nil
	}
	log.Printf("noshow: marked %d tickets window=(%s, %s]", n, now.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))
	publish(ctx, s.events, queue.NoShowSweptEvent{
		Count:       n,
		WindowStart: now.UTC().Format(time.RFC3339),
		WindowEnd:   until.UTC().Format(time.RFC3339),
		SweptAt:     now.UTC().Format(time.RFC3339),
	})
	return n, nil
}
