package inventory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// Repository exposes persistence for inventory items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, item *models.InventoryItem) error
	FindBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	FindBySKUs(ctx context.Context, skus []string) ([]models.InventoryItem, error)
	List(ctx context.Context, limit, offset int) ([]models.InventoryItem, error)
	SetOnHand(ctx context.Context, sku string, qty int) error
	DecrementOnHand(ctx context.Context, sku string, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) FindBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db.WithContext(ctx).Where("sku_code = ?", sku).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindBySKUs(ctx context.Context, skus []string) ([]models.InventoryItem, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).Where("sku_code IN ?", skus).Find(&items).Error
	return items, err
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]models.InventoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Order("sku_code ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *repository) SetOnHand(ctx context.Context, sku string, qty int) error {
	result := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("sku_code = ?", sku).
		UpdateColumn("on_hand_qty", qty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("inventory item %s not found", sku))
	}
	return nil
}

// DecrementOnHand lowers the stored quantity. The ck_inventory_items_on_hand_qty
// check constraint rejects decrements that would go negative; that rejection
// comes back as the driver error untouched.
func (r *repository) DecrementOnHand(ctx context.Context, sku string, qty int) error {
	result := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("sku_code = ?", sku).
		UpdateColumn("on_hand_qty", gorm.Expr("on_hand_qty - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("inventory item %s not found", sku))
	}
	return nil
}
