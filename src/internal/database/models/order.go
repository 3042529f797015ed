package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses
const (
	OrderStatusDraft     = "draft"
	OrderStatusPlaced    = "placed"
	OrderStatusReceived  = "received"
	OrderStatusCancelled = "cancelled"
)

// Order represents a purchase order against a supplier
type Order struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SupplierID *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	Reference  string     `gorm:"uniqueIndex;size:64;not null" json:"reference"`
	Status     string     `gorm:"size:20;default:'draft'" json:"status"`
	TotalCents int64      `gorm:"default:0" json:"total_cents"`
	PlacedAt   *time.Time `json:"placed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BeforeCreate hook
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
