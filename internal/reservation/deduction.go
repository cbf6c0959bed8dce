package reservation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// DeductionEngine lowers on-hand stock for fulfilled reservations.
type DeductionEngine struct {
	inventory inventory.Repository
	logg      *logger.Logger
}

// NewDeductionEngine validates dependencies and builds the engine.
func NewDeductionEngine(inventoryRepo inventory.Repository, logg *logger.Logger) (*DeductionEngine, error) {
	if inventoryRepo == nil {
		return nil, errors.New("inventory repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &DeductionEngine{inventory: inventoryRepo, logg: logg}, nil
}

// Deduct decrements on-hand stock once per fulfilled reservation, inside the
// caller's transaction. A vanished SKU is logged and skipped; any other
// failure aborts immediately so the transaction rolls back every decrement
// made so far.
func (e *DeductionEngine) Deduct(ctx context.Context, tx *gorm.DB, fulfilled []models.Reservation) error {
	if len(fulfilled) == 0 {
		return nil
	}
	if tx == nil {
		return apperrors.New(apperrors.CodeInternal, "transaction required for deduction")
	}

	repo := e.inventory.WithTx(tx)
	for _, row := range fulfilled {
		err := repo.DecrementOnHand(ctx, row.SKUCode, row.ReservedQty)
		if err == nil {
			continue
		}
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			logCtx := e.logg.WithSKU(e.logg.WithOrderNumber(ctx, row.OrderNumber), row.SKUCode)
			e.logg.Warn(logCtx, "inventory item missing during deduction, skipping")
			continue
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, fmt.Sprintf("deducting %d of sku %s", row.ReservedQty, row.SKUCode))
	}
	return nil
}
