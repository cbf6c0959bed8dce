package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks the recorded on-hand stock per SKU. The database check
// constraint keeps on_hand_qty from ever going negative under concurrent writers.
type InventoryItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKUCode   string    `gorm:"column:sku_code;not null;uniqueIndex:ux_inventory_items_sku"`
	OnHandQty int       `gorm:"column:on_hand_qty;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
