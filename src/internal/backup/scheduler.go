package backup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/casapps/cassupply/src/internal/database/models"
	"github.com/casapps/cassupply/src/internal/snapshot"
)

// Scheduler runs periodic automatic backups on its own timeline,
// independently of request handling. It owns the AutoBackupSetting
// singleton and the timer that reads it.
type Scheduler struct {
	db    *gorm.DB
	store *Store
	codec *snapshot.Codec
	log   *zap.Logger
	clock func() time.Time

	mu      sync.Mutex
	setting models.AutoBackupSetting

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	started bool
}

// NewScheduler creates a scheduler over the given store and codec.
func NewScheduler(db *gorm.DB, store *Store, codec *snapshot.Codec, log *zap.Logger) *Scheduler {
	return &Scheduler{
		db:      db,
		store:   store,
		codec:   codec,
		log:     log,
		clock:   time.Now,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}, 1),
		stopped: make(chan struct{}, 1),
	}
}

// Start loads the persisted settings and begins the timer loop. The
// schedule resumes where it left off across process restarts.
func (s *Scheduler) Start(ctx context.Context) error {
	setting, err := models.LoadAutoBackupSetting(s.db)
	if err != nil {
		return fmt.Errorf("load auto-backup settings: %w", err)
	}

	s.mu.Lock()
	s.setting = *setting
	if s.setting.Enabled && s.setting.NextRunAt == nil {
		next := s.clock().Add(s.setting.Interval())
		s.setting.NextRunAt = &next
		if err := s.persistLocked(); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.started = true
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop halts the timer loop. An in-flight scheduled run finishes first.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return
	}

	select {
	case s.stop <- struct{}{}:
	default:
	}

	select {
	case <-s.stopped:
	case <-time.After(10 * time.Second):
		s.log.Warn("scheduler stop timeout")
	}
}

func (s *Scheduler) run(ctx context.Context) {
	s.log.Info("auto-backup scheduler started")
	for {
		var timer *time.Timer
		var fire <-chan time.Time

		s.mu.Lock()
		if s.setting.Enabled && s.setting.NextRunAt != nil {
			delay := s.setting.NextRunAt.Sub(s.clock())
			if delay < 0 {
				delay = 0
			}
			timer = time.NewTimer(delay)
			fire = timer.C
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			stopTimer(timer)
			s.stopped <- struct{}{}
			return
		case <-s.stop:
			stopTimer(timer)
			s.stopped <- struct{}{}
			return
		case <-s.wake:
			stopTimer(timer)
		case <-fire:
			s.runScheduled(ctx)
		}
	}
}

// runScheduled executes one scheduled backup and re-arms the timer. A
// failed run is logged and does not disarm the scheduler.
func (s *Scheduler) runScheduled(ctx context.Context) {
	s.mu.Lock()
	if !s.setting.Enabled || s.setting.NextRunAt == nil {
		s.mu.Unlock()
		return
	}
	target := *s.setting.NextRunAt
	s.mu.Unlock()

	doc, err := s.codec.Encode(ctx)
	if err == nil {
		_, err = s.store.Create(ctx, doc, models.BackupSourceAuto, "system")
	}
	if err != nil {
		s.log.Error("scheduled backup failed", zap.Error(err))
	} else {
		s.log.Info("scheduled backup completed", zap.Time("scheduled_for", target))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setting.LastRunAt = &target
	if s.setting.Enabled {
		// Next run is computed from the scheduled time, not from
		// completion, so the schedule does not accumulate drift.
		next := target.Add(s.setting.Interval())
		if now := s.clock(); !next.After(now) {
			next = now.Add(s.setting.Interval())
		}
		s.setting.NextRunAt = &next
	} else {
		s.setting.NextRunAt = nil
	}
	if err := s.persistLocked(); err != nil {
		s.log.Error("persist auto-backup settings failed", zap.Error(err))
	}
}

// Settings returns a copy of the current auto-backup configuration.
func (s *Scheduler) Settings() models.AutoBackupSetting {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setting
}

// UpdateSettings validates and persists a configuration change and re-arms
// the timer. Enabling schedules the next run at now + interval; disabling
// cancels any pending run without touching the recorded history.
func (s *Scheduler) UpdateSettings(enabled bool, intervalValue int, intervalUnit string) (models.AutoBackupSetting, error) {
	if intervalValue < 1 {
		return models.AutoBackupSetting{}, fmt.Errorf("%w: interval value must be >= 1", ErrInvalidSettings)
	}
	switch intervalUnit {
	case models.IntervalUnitHours, models.IntervalUnitDays, models.IntervalUnitWeeks:
	default:
		return models.AutoBackupSetting{}, fmt.Errorf("%w: unknown interval unit %q", ErrInvalidSettings, intervalUnit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.setting.Enabled = enabled
	s.setting.IntervalValue = intervalValue
	s.setting.IntervalUnit = intervalUnit
	if enabled {
		next := s.clock().Add(s.setting.Interval())
		s.setting.NextRunAt = &next
	} else {
		s.setting.NextRunAt = nil
	}
	if err := s.persistLocked(); err != nil {
		return models.AutoBackupSetting{}, err
	}

	select {
	case s.wake <- struct{}{}:
	default:
	}

	return s.setting, nil
}

// TriggerNow performs an immediate backup without altering the schedule.
func (s *Scheduler) TriggerNow(ctx context.Context, createdBy string) (*models.Backup, error) {
	doc, err := s.codec.Encode(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.Create(ctx, doc, models.BackupSourceManual, createdBy)
}

func (s *Scheduler) persistLocked() error {
	if err := s.db.Save(&s.setting).Error; err != nil {
		return fmt.Errorf("%w: save auto-backup settings: %v", ErrStorageFailure, err)
	}
	return nil
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
