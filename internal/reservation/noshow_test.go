package reservation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/queue"
)

func TestNoShowSweepMarksUnboardedTicketsInWindow(t *testing.T) {
	f := newFixture(t)
	absent := f.mustPurchase(t, userA, 1, 1, 3)
	present := f.mustPurchase(t, userB, 2, 1, 3)
	cancelled := f.mustPurchase(t, userB, 3, 1, 3)
	_, err := f.engine.Workflow.Cancel(f.ctx, cancelled.ID)
	require.NoError(t, err)

	departure := start.Add(48 * time.Hour)
	f.clock.Set(departure.Add(-10 * time.Minute))
	_, err = f.engine.Workflow.Board(f.ctx, present.ID)
	require.NoError(t, err)

	// Ten minutes out: outside the five-minute window.
	n, err := f.engine.NoShows.Sweep(f.ctx, f.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, n)

	// Departure exactly at the window's end is included.
	n, err = f.engine.NoShows.Sweep(f.ctx, departure.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = f.engine.NoShows.Sweep(f.ctx, departure.Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n, "sweep is idempotent")

	for id, want := range map[uint64]model.TicketStatus{
		absent.ID:    model.TicketNoShow,
		present.ID:   model.TicketSold,
		cancelled.ID: model.TicketCancelled,
	} {
		got, err := f.engine.Workflow.GetTicket(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}
	assert.Contains(t, f.events.queues(), queue.TicketNoShowQueue)
}

func TestNoShowSweepIgnoresDepartedTrips(t *testing.T) {
	f := newFixture(t)
	f.mustPurchase(t, userA, 1, 1, 3)
	departure := start.Add(48 * time.Hour)

	// Departure equal to now is outside (now, now+window].
	n, err := f.engine.NoShows.Sweep(f.ctx, departure)
	require.NoError(t, err)
	assert.Zero(t, n)
}
