package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedarr/feedarr/internal/config"
	"github.com/feedarr/feedarr/internal/models"
)

func newTestScheduler(now time.Time) *Scheduler {
	s := New(nil, nil, config.SchedulerConfig{
		MaxConcurrentCycles: 2,
		CycleTimeout:        time.Minute,
	})
	s.now = func() time.Time { return now }
	return s
}

func tenantWithSchedule(cronExpr, timezone string) *models.Tenant {
	return &models.Tenant{
		BaseModel:    models.BaseModel{ID: models.NewULID()},
		CronSchedule: cronExpr,
		Timezone:     timezone,
	}
}

func TestScheduler_IsDue(t *testing.T) {
	tests := []struct {
		name     string
		cron     string
		timezone string
		now      time.Time
		expected bool
	}{
		{
			name:     "fires within sync window",
			cron:     "0 6 * * *",
			timezone: "UTC",
			now:      time.Date(2026, 8, 24, 6, 0, 30, 0, time.UTC),
			expected: true,
		},
		{
			name:     "not due an hour early",
			cron:     "0 6 * * *",
			timezone: "UTC",
			now:      time.Date(2026, 8, 24, 5, 0, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "evaluated in tenant timezone",
			cron:     "0 6 * * *",
			timezone: "Asia/Tokyo",
			// 06:00 in Tokyo is 21:00 UTC the previous day.
			now:      time.Date(2026, 8, 23, 21, 0, 30, 0, time.UTC),
			expected: true,
		},
		{
			name:     "utc clock does not fire tokyo schedule",
			cron:     "0 6 * * *",
			timezone: "Asia/Tokyo",
			now:      time.Date(2026, 8, 24, 6, 0, 30, 0, time.UTC),
			expected: false,
		},
		{
			name:     "local time holds across dst transition",
			cron:     "0 6 * * *",
			timezone: "Europe/Berlin",
			// The morning clocks spring forward in Berlin: 06:00 CEST
			// is 04:00 UTC rather than the winter 05:00 UTC.
			now:      time.Date(2026, 3, 29, 4, 0, 30, 0, time.UTC),
			expected: true,
		},
		{
			name:     "invalid cron never fires",
			cron:     "not a cron",
			timezone: "UTC",
			now:      time.Date(2026, 8, 24, 6, 0, 30, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(tt.now)
			tenant := tenantWithSchedule(tt.cron, tt.timezone)
			assert.Equal(t, tt.expected, s.isDue(tenant))
		})
	}
}

func TestScheduler_IsDue_DefaultSchedule(t *testing.T) {
	// An empty schedule falls back to the every-six-hours default.
	s := newTestScheduler(time.Date(2026, 8, 24, 12, 0, 30, 0, time.UTC))
	tenant := tenantWithSchedule("", "UTC")
	assert.True(t, s.isDue(tenant))

	s = newTestScheduler(time.Date(2026, 8, 24, 13, 0, 30, 0, time.UTC))
	assert.False(t, s.isDue(tenant))
}

func TestScheduler_NextRun(t *testing.T) {
	s := newTestScheduler(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC))

	tenant := tenantWithSchedule("0 6 * * *", "UTC")
	next, err := s.NextRun(tenant)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC), next.UTC())

	_, err = s.NextRun(tenantWithSchedule("bogus", "UTC"))
	assert.Error(t, err)
}

func TestScheduler_ValidateCron(t *testing.T) {
	s := newTestScheduler(time.Now())

	assert.NoError(t, s.ValidateCron("*/15 * * * *"))
	assert.Error(t, s.ValidateCron("61 * * * *"))
	assert.Error(t, s.ValidateCron(""))
}

func TestCycleLocks_ExclusivePerTenant(t *testing.T) {
	locks := NewCycleLocks()
	tenantID := models.NewULID()

	lease, err := locks.Acquire(tenantID, TriggerSchedule)
	require.NoError(t, err)
	require.NotNil(t, lease)
	assert.NotEmpty(t, lease.Token)
	assert.True(t, locks.IsRunning(tenantID))

	// A second acquisition is rejected, not queued.
	_, err = locks.Acquire(tenantID, TriggerManual)
	assert.ErrorIs(t, err, models.ErrAlreadyRunning)

	// Another tenant is unaffected.
	other, err := locks.Acquire(models.NewULID(), TriggerSchedule)
	require.NoError(t, err)
	require.NotNil(t, other)

	locks.Release(lease)
	assert.False(t, locks.IsRunning(tenantID))

	_, err = locks.Acquire(tenantID, TriggerManual)
	assert.NoError(t, err)
}

func TestCycleLocks_ConcurrentAcquireExactlyOne(t *testing.T) {
	locks := NewCycleLocks()
	tenantID := models.NewULID()

	const attempts = 32
	var wg sync.WaitGroup
	acquired := make(chan *CycleLease, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lease, err := locks.Acquire(tenantID, TriggerManual); err == nil {
				acquired <- lease
			}
		}()
	}
	wg.Wait()
	close(acquired)

	var leases []*CycleLease
	for lease := range acquired {
		leases = append(leases, lease)
	}
	require.Len(t, leases, 1)
}

func TestCycleLocks_StaleReleaseIgnored(t *testing.T) {
	locks := NewCycleLocks()
	tenantID := models.NewULID()

	first, err := locks.Acquire(tenantID, TriggerSchedule)
	require.NoError(t, err)
	locks.Release(first)

	second, err := locks.Acquire(tenantID, TriggerSchedule)
	require.NoError(t, err)

	// Releasing the old lease again must not free the new holder.
	locks.Release(first)
	assert.True(t, locks.IsRunning(tenantID))

	locks.Release(second)
	assert.False(t, locks.IsRunning(tenantID))
}

func TestCycleLocks_Running(t *testing.T) {
	locks := NewCycleLocks()

	lease, err := locks.Acquire(models.NewULID(), TriggerManual)
	require.NoError(t, err)

	running := locks.Running()
	require.Len(t, running, 1)
	assert.Equal(t, lease.TenantID, running[0].TenantID)
	assert.Equal(t, TriggerManual, running[0].Trigger)

	locks.Release(lease)
	assert.Empty(t, locks.Running())
}
