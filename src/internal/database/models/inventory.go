package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem represents one stocked product
type InventoryItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SupplierID     *uuid.UUID `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	SKU            string     `gorm:"uniqueIndex;size:64;not null" json:"sku"`
	Name           string     `gorm:"size:200;not null" json:"name"`
	Quantity       int        `gorm:"default:0" json:"quantity"`
	UnitPriceCents int64      `gorm:"default:0" json:"unit_price_cents"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BeforeCreate hook
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
