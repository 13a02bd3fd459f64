package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/clock"
	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository/memstore"
	"github.com/iliyamo/bus-seat-reservation/internal/reservation"
)

type mockLease struct {
	mock.Mock
}

func (m *mockLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	a := m.Called(key, ttl)
	return a.Bool(0), a.Error(1)
}

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func TestRunOnceHonoursLease(t *testing.T) {
	lease := &mockLease{}
	lease.On("Acquire", "sweep:hold-expiry", 30*time.Second).Return(true, nil).Once()
	lease.On("Acquire", "sweep:hold-expiry", 30*time.Second).Return(false, nil).Once()
	lease.On("Acquire", "sweep:hold-expiry", 30*time.Second).Return(false, errors.New("redis down")).Once()

	var runs int
	job := Job{Name: "hold-expiry", Interval: time.Minute, Leased: true, Run: func(context.Context, time.Time) error {
		runs++
		return nil
	}}
	s := New(clock.Fake(t0), lease, "sweep", job)

	s.RunOnce(context.Background(), job, t0)
	s.RunOnce(context.Background(), job, t0)
	s.RunOnce(context.Background(), job, t0)

	assert.Equal(t, 2, runs, "held by another replica skips; lease errors run anyway")
	lease.AssertExpectations(t)
}

func TestRunTicksOnFakeClock(t *testing.T) {
	clk := clock.Fake(t0)
	var mu sync.Mutex
	var ticks []time.Time
	job := Job{Name: "tick", Interval: time.Minute, Run: func(_ context.Context, now time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		ticks = append(ticks, now)
		return nil
	}}
	s := New(clk, nil, "", job)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Wait for the ticker to be registered before moving time.
	require.Eventually(t, func() bool {
		clk.Advance(time.Minute)
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) > 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestEngineJobs(t *testing.T) {
	st := memstore.New()
	now := t0
	st.PutTrip(model.Trip{ID: 1, RouteID: 7, Capacity: 10, DepartureTime: now.Add(3 * time.Minute), Status: model.TripScheduled})
	st.PutUser(model.User{ID: 1, IsActive: true})
	st.PutSetting(config.KeyHoldDurationMin, "2")

	clk := clock.Fake(now)
	provider := config.NewProvider(config.DefaultEngine())
	eng := reservation.New(reservation.Deps{Store: st, Settings: provider, Clock: clk})
	jobs := EngineJobs(eng, provider, st, config.SweepConfig{HoldInterval: time.Minute, NoShowInterval: 5 * time.Minute, SettingsInterval: time.Minute})
	require.Len(t, jobs, 3)
	byName := map[string]Job{}
	for _, j := range jobs {
		byName[j.Name] = j
	}

	s := New(clk, nil, "sweep")
	s.RunOnce(context.Background(), byName["settings-refresh"], now)
	assert.Equal(t, 2*time.Minute, provider.Current().HoldDuration)

	_, err := eng.Holds.CreateHold(context.Background(), 1, 4, 1)
	require.NoError(t, err)
	s.RunOnce(context.Background(), byName["hold-expiry"], now.Add(2*time.Minute))
	has, err := eng.Holds.HasActiveHold(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.False(t, has)

	assert.True(t, byName["hold-expiry"].Leased)
	assert.True(t, byName["no-show"].Leased)
	assert.False(t, byName["settings-refresh"].Leased)
}
