package reservation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

// Plan is the reconciliation outcome for one order's reservations: rows to
// upsert and SKUs whose rows must go away because the caller dropped them
// from the request.
type Plan struct {
	ToSave   []models.Reservation
	ToDelete []string
}

// BuildPlan reconciles the requested line items against the order's existing
// reservation rows. It is pure computation: no I/O, no mutation of inputs.
//
// An order is only re-reservable while every existing row is still PENDING;
// any terminal row makes the whole order immutable.
func BuildPlan(orderNumber string, requested []types.LineItem, existing []models.Reservation, now time.Time) (Plan, error) {
	for _, row := range existing {
		if row.Status != enums.ReservationPending {
			return Plan{}, apperrors.New(
				apperrors.CodeReservationNotAllowed,
				fmt.Sprintf("order %s has a %s reservation and can no longer be modified", orderNumber, row.Status),
			).WithDetails(map[string]string{"orderNumber": orderNumber})
		}
	}

	existingBySKU := make(map[string]models.Reservation, len(existing))
	for _, row := range existing {
		if _, dup := existingBySKU[row.SKUCode]; dup {
			return Plan{}, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("duplicate reservation row for sku %s", row.SKUCode))
		}
		existingBySKU[row.SKUCode] = row
	}

	requestedSKUs := make(map[string]struct{}, len(requested))
	plan := Plan{}
	for _, item := range requested {
		if _, dup := requestedSKUs[item.SKUCode]; dup {
			return Plan{}, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("duplicate requested sku %s", item.SKUCode))
		}
		requestedSKUs[item.SKUCode] = struct{}{}

		if prev, ok := existingBySKU[item.SKUCode]; ok {
			updated := prev
			updated.ReservedQty = item.Qty
			updated.ReservedAt = now
			updated.Status = enums.ReservationPending
			plan.ToSave = append(plan.ToSave, updated)
			continue
		}
		plan.ToSave = append(plan.ToSave, models.Reservation{
			ID:          uuid.New(),
			OrderNumber: orderNumber,
			SKUCode:     item.SKUCode,
			ReservedQty: item.Qty,
			ReservedAt:  now,
			Status:      enums.ReservationPending,
		})
	}

	for _, row := range existing {
		if _, keep := requestedSKUs[row.SKUCode]; !keep {
			plan.ToDelete = append(plan.ToDelete, row.SKUCode)
		}
	}

	return plan, nil
}
