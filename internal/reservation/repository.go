package reservation

import (
	"context"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// Repository exposes persistence for reservation rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByOrder(ctx context.Context, orderNumber string, skus ...string) ([]models.Reservation, error)
	SaveBatch(ctx context.Context, rows []models.Reservation) error
	DeleteByOrderAndSKUs(ctx context.Context, orderNumber string, skus []string) error
	PendingBySKU(ctx context.Context, skus []string, excludeOrder string) (map[string]int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservation repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByOrder(ctx context.Context, orderNumber string, skus ...string) ([]models.Reservation, error) {
	query := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at ASC").
		Order("id ASC")
	if len(skus) > 0 {
		query = query.Where("sku_code IN ?", skus)
	}
	var rows []models.Reservation
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) SaveBatch(ctx context.Context, rows []models.Reservation) error {
	for i := range rows {
		if err := r.db.WithContext(ctx).Save(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) DeleteByOrderAndSKUs(ctx context.Context, orderNumber string, skus []string) error {
	if len(skus) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("order_number = ? AND sku_code IN ?", orderNumber, skus).
		Delete(&models.Reservation{}).Error
}

// PendingBySKU sums PENDING reserved quantities per SKU. When excludeOrder is
// set, that order's own rows are left out; re-reserving replaces them, so they
// must not count against the same order's availability.
func (r *repository) PendingBySKU(ctx context.Context, skus []string, excludeOrder string) (map[string]int, error) {
	if len(skus) == 0 {
		return map[string]int{}, nil
	}

	type skuSum struct {
		SKUCode string `gorm:"column:sku_code"`
		Total   int    `gorm:"column:total"`
	}

	query := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Select("sku_code, SUM(reserved_qty) AS total").
		Where("status = ?", enums.ReservationPending).
		Where("sku_code IN ?", skus).
		Group("sku_code")
	if excludeOrder != "" {
		query = query.Where("order_number <> ?", excludeOrder)
	}

	var sums []skuSum
	if err := query.Find(&sums).Error; err != nil {
		return nil, err
	}
	pending := make(map[string]int, len(sums))
	for _, row := range sums {
		pending[row.SKUCode] = row.Total
	}
	return pending, nil
}
