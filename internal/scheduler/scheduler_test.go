package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryportal/internal/availability"
)

type fakeRefresher struct {
	mu    sync.Mutex
	dates []string
	fail  map[string]bool
}

func (f *fakeRefresher) RefreshSlots(_ context.Context, date string) ([]availability.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dates = append(f.dates, date)
	if f.fail[date] {
		return nil, errors.New("backend down")
	}
	return nil, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type staticHours availability.BusinessHours

func (h staticHours) Get() availability.BusinessHours { return availability.BusinessHours(h) }

func newTestScheduler(t *testing.T, r SlotRefresher, h HealthChecker) *Scheduler {
	t.Helper()
	s, err := New(Config{WarmupCron: "0 6 * * *", WarmupDays: 7, HealthCron: "@every 1m", Location: time.UTC},
		r, h, staticHours(availability.DefaultBusinessHours()), zerolog.Nop())
	require.NoError(t, err)
	// Thursday.
	s.now = func() time.Time { return time.Date(2025, 7, 3, 5, 0, 0, 0, time.UTC) }
	return s
}

func TestWarmSlots_SkipsClosedDays(t *testing.T) {
	r := &fakeRefresher{}
	s := newTestScheduler(t, r, fakeHealth{})

	require.NoError(t, s.WarmSlots(context.Background()))
	assert.Equal(t, []string{
		"2025-07-03", "2025-07-04", "2025-07-06", "2025-07-07", "2025-07-08", "2025-07-09",
	}, r.dates)
}

func TestWarmSlots_PartialFailureIsTolerated(t *testing.T) {
	r := &fakeRefresher{fail: map[string]bool{"2025-07-04": true}}
	s := newTestScheduler(t, r, fakeHealth{})

	assert.NoError(t, s.WarmSlots(context.Background()))
	assert.Len(t, r.dates, 6)
}

func TestWarmSlots_AllFailed(t *testing.T) {
	fail := map[string]bool{}
	for d := 3; d <= 9; d++ {
		fail[time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")] = true
	}
	s := newTestScheduler(t, &fakeRefresher{fail: fail}, fakeHealth{})
	assert.Error(t, s.WarmSlots(context.Background()))
}

func TestWarmSlots_StopsOnCancel(t *testing.T) {
	r := &fakeRefresher{}
	s := newTestScheduler(t, r, fakeHealth{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.WarmSlots(ctx), context.Canceled)
	assert.Empty(t, r.dates)
}

func TestProbeHealth(t *testing.T) {
	ok := newTestScheduler(t, &fakeRefresher{}, fakeHealth{})
	assert.NoError(t, ok.ProbeHealth(context.Background()))

	down := newTestScheduler(t, &fakeRefresher{}, fakeHealth{err: errors.New("503")})
	assert.Error(t, down.ProbeHealth(context.Background()))
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(Config{WarmupCron: "not a cron"}, &fakeRefresher{}, nil, staticHours{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t, &fakeRefresher{}, fakeHealth{})
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	s.Start(ctx)
	cancel()
	s.Stop()
	s.Stop()
}
