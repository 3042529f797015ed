package backup

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

// fakeClock lets tests advance scheduler time without sleeping. Access is
// locked because the scheduler loop reads the clock from its own goroutine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func setupScheduler(t *testing.T, start time.Time) (*gorm.DB, *Scheduler, *fakeClock) {
	db, store := setupStore(t)
	codec := snapshot.NewCodec(db, snapshot.DefaultRegistry())
	sched := NewScheduler(db, store, codec, zap.NewNop())
	clk := &fakeClock{now: start}
	sched.clock = clk.Now

	require.NoError(t, sched.Start(context.Background()))
	t.Cleanup(sched.Stop)

	return db, sched, clk
}

func TestSchedulerUpdateSettings(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	db, sched, _ := setupScheduler(t, start)

	t.Run("rejects bad interval", func(t *testing.T) {
		_, err := sched.UpdateSettings(true, 0, models.IntervalUnitHours)
		assert.ErrorIs(t, err, ErrInvalidSettings)
		_, err = sched.UpdateSettings(true, -3, models.IntervalUnitDays)
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("rejects bad unit", func(t *testing.T) {
		_, err := sched.UpdateSettings(true, 1, "fortnights")
		assert.ErrorIs(t, err, ErrInvalidSettings)
	})

	t.Run("enable schedules next run", func(t *testing.T) {
		setting, err := sched.UpdateSettings(true, 24, models.IntervalUnitHours)
		require.NoError(t, err)
		assert.True(t, setting.Enabled)
		require.NotNil(t, setting.NextRunAt)
		assert.Equal(t, start.Add(24*time.Hour), *setting.NextRunAt)

		// Persisted, so the schedule survives a restart.
		stored, err := models.LoadAutoBackupSetting(db)
		require.NoError(t, err)
		assert.True(t, stored.Enabled)
		require.NotNil(t, stored.NextRunAt)
		assert.True(t, stored.NextRunAt.Equal(start.Add(24*time.Hour)))
	})

	t.Run("disable cancels future runs", func(t *testing.T) {
		setting, err := sched.UpdateSettings(false, 24, models.IntervalUnitHours)
		require.NoError(t, err)
		assert.False(t, setting.Enabled)
		assert.Nil(t, setting.NextRunAt)
	})
}

func TestSchedulerRunArithmetic(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, sched, clk := setupScheduler(t, start)

	_, err := sched.UpdateSettings(true, 24, models.IntervalUnitHours)
	require.NoError(t, err)

	// First scheduled fire, one interval in.
	clk.Set(start.Add(24 * time.Hour))
	sched.runScheduled(context.Background())

	setting := sched.Settings()
	require.NotNil(t, setting.LastRunAt)
	require.NotNil(t, setting.NextRunAt)
	assert.Equal(t, start.Add(24*time.Hour), *setting.LastRunAt)
	assert.Equal(t, start.Add(48*time.Hour), *setting.NextRunAt)

	// Second fire: computed from the scheduled target, no drift.
	clk.Set(start.Add(48 * time.Hour))
	sched.runScheduled(context.Background())

	setting = sched.Settings()
	assert.Equal(t, start.Add(48*time.Hour), *setting.LastRunAt)
	assert.Equal(t, start.Add(72*time.Hour), *setting.NextRunAt)

	// Each fire recorded a scheduled backup.
	backups, total, err := sched.store.List(1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, b := range backups {
		assert.Equal(t, models.BackupSourceAuto, b.Source)
		assert.Equal(t, "system", b.CreatedBy)
	}
}

func TestSchedulerDisablePreservesHistory(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, sched, clk := setupScheduler(t, start)

	_, err := sched.UpdateSettings(true, 1, models.IntervalUnitDays)
	require.NoError(t, err)

	clk.Set(start.Add(24 * time.Hour))
	sched.runScheduled(context.Background())
	lastRun := *sched.Settings().LastRunAt

	setting, err := sched.UpdateSettings(false, 1, models.IntervalUnitDays)
	require.NoError(t, err)
	assert.Nil(t, setting.NextRunAt)
	require.NotNil(t, setting.LastRunAt)
	assert.Equal(t, lastRun, *setting.LastRunAt)
}

func TestSchedulerTriggerNowKeepsSchedule(t *testing.T) {
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, sched, _ := setupScheduler(t, start)

	_, err := sched.UpdateSettings(true, 24, models.IntervalUnitHours)
	require.NoError(t, err)
	before := *sched.Settings().NextRunAt

	record, err := sched.TriggerNow(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.BackupSourceManual, record.Source)
	assert.Equal(t, "alice", record.CreatedBy)

	setting := sched.Settings()
	require.NotNil(t, setting.NextRunAt)
	assert.Equal(t, before, *setting.NextRunAt)
	assert.Nil(t, setting.LastRunAt)
}

func TestSchedulerIntervalUnits(t *testing.T) {
	s := models.AutoBackupSetting{IntervalValue: 2, IntervalUnit: models.IntervalUnitHours}
	assert.Equal(t, 2*time.Hour, s.Interval())

	s.IntervalUnit = models.IntervalUnitDays
	assert.Equal(t, 48*time.Hour, s.Interval())

	s.IntervalUnit = models.IntervalUnitWeeks
	assert.Equal(t, 2*7*24*time.Hour, s.Interval())
}
