package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Reservation holds stock for one (order, sku) pair. The composite unique index
// is the backstop against duplicate rows under concurrent re-reservation.
type Reservation struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string                  `gorm:"column:order_number;not null;uniqueIndex:ux_reservations_order_sku"`
	SKUCode     string                  `gorm:"column:sku_code;not null;uniqueIndex:ux_reservations_order_sku"`
	ReservedQty int                     `gorm:"column:reserved_qty;not null;default:0"`
	ReservedAt  time.Time               `gorm:"column:reserved_at;not null"`
	Status      enums.ReservationStatus `gorm:"column:status;type:reservation_status_enum;not null;default:'PENDING'"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
