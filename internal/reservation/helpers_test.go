package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reservation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	inventoryItems := `
CREATE TABLE IF NOT EXISTS inventory_items (
  id TEXT PRIMARY KEY,
  sku_code TEXT NOT NULL UNIQUE,
  on_hand_qty INTEGER NOT NULL DEFAULT 0 CHECK (on_hand_qty >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`
	reservations := `
CREATE TABLE IF NOT EXISTS reservations (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  sku_code TEXT NOT NULL,
  reserved_qty INTEGER NOT NULL CHECK (reserved_qty >= 0),
  reserved_at DATETIME NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (order_number, sku_code)
);`
	for _, schema := range []string{inventoryItems, reservations} {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func seedInventory(t *testing.T, db *gorm.DB, sku string, qty int) {
	t.Helper()
	item := models.InventoryItem{ID: uuid.New(), SKUCode: sku, OnHandQty: qty}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory %s: %v", sku, err)
	}
}

func seedReservation(t *testing.T, db *gorm.DB, orderNumber, sku string, qty int, status enums.ReservationStatus) models.Reservation {
	t.Helper()
	row := models.Reservation{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		SKUCode:     sku,
		ReservedQty: qty,
		ReservedAt:  testTime(),
		Status:      status,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed reservation %s/%s: %v", orderNumber, sku, err)
	}
	return row
}

// gormTxRunner adapts a raw *gorm.DB to the service's transaction surface.
type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
