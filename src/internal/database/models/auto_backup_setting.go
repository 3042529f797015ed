package models

import (
	"time"

	"gorm.io/gorm"
)

// Auto-backup interval units
const (
	IntervalUnitHours = "hours"
	IntervalUnitDays  = "days"
	IntervalUnitWeeks = "weeks"
)

// AutoBackupSetting is the process-wide scheduled backup configuration.
// Exactly one row exists; it survives restarts so the schedule resumes.
type AutoBackupSetting struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	Enabled       bool       `gorm:"default:false;not null" json:"enabled"`
	IntervalValue int        `gorm:"default:24;not null" json:"interval_value"`
	IntervalUnit  string     `gorm:"size:10;default:'hours';not null" json:"interval_unit"`
	LastRunAt     *time.Time `json:"last_run_at,omitempty"`
	NextRunAt     *time.Time `json:"next_run_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Interval returns the configured run interval as a duration.
func (s *AutoBackupSetting) Interval() time.Duration {
	d := time.Duration(s.IntervalValue)
	switch s.IntervalUnit {
	case IntervalUnitDays:
		return d * 24 * time.Hour
	case IntervalUnitWeeks:
		return d * 7 * 24 * time.Hour
	default:
		return d * time.Hour
	}
}

// LoadAutoBackupSetting returns the singleton row, creating the disabled
// default on first use.
func LoadAutoBackupSetting(db *gorm.DB) (*AutoBackupSetting, error) {
	setting := AutoBackupSetting{ID: 1}
	err := db.Where("id = ?", 1).
		Attrs(AutoBackupSetting{IntervalValue: 24, IntervalUnit: IntervalUnitHours}).
		FirstOrCreate(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}
