package reservation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// StateManager applies status transitions to an order's reservation rows.
type StateManager struct {
	repo      Repository
	deduction *DeductionEngine
	logg      *logger.Logger
}

// NewStateManager validates dependencies and builds the manager.
func NewStateManager(repo Repository, deduction *DeductionEngine, logg *logger.Logger) (*StateManager, error) {
	if repo == nil {
		return nil, errors.New("reservation repository is required")
	}
	if deduction == nil {
		return nil, errors.New("deduction engine is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &StateManager{repo: repo, deduction: deduction, logg: logg}, nil
}

// Transition loads the order's reservation rows (optionally filtered by SKU),
// persists them with the target status, and for FULFILLED also runs the stock
// deduction inside the same transaction. No matching rows is a no-op success.
func (m *StateManager) Transition(ctx context.Context, tx *gorm.DB, orderNumber string, target enums.ReservationStatus, skus ...string) ([]models.Reservation, error) {
	if tx == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "transaction required for transition")
	}
	if !target.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid reservation status %q", target))
	}

	repo := m.repo.WithTx(tx)
	rows, err := repo.FindByOrder(ctx, orderNumber, skus...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading reservations for transition")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	updated := make([]models.Reservation, len(rows))
	for i, row := range rows {
		next := row
		next.Status = target
		updated[i] = next
	}
	if err := repo.SaveBatch(ctx, updated); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "persisting reservation transition")
	}

	if target == enums.ReservationFulfilled {
		if err := m.deduction.Deduct(ctx, tx, updated); err != nil {
			return nil, err
		}
	}

	logCtx := m.logg.WithFields(ctx, map[string]any{
		"order_number": orderNumber,
		"status":       target,
		"rows":         len(updated),
	})
	m.logg.Info(logCtx, "reservations transitioned")
	return updated, nil
}
