package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Backup sources
const (
	BackupSourceManual = "manual"
	BackupSourceAuto   = "auto"
)

// Backup is the history record for one stored snapshot artifact.
// Records are immutable after creation; only retention may delete them.
type Backup struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	SizeBytes int64     `gorm:"not null" json:"size_bytes"`
	Source    string    `gorm:"size:20;not null" json:"source"`
	CreatedBy string    `gorm:"size:100;not null" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate hook
func (b *Backup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// HumanReadableSize returns size in human readable format
func (b *Backup) HumanReadableSize() string {
	const unit = 1024
	if b.SizeBytes < unit {
		return fmt.Sprintf("%d B", b.SizeBytes)
	}
	div, exp := int64(unit), 0
	for n := b.SizeBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b.SizeBytes)/float64(div), "KMGTPE"[exp])
}
