package inventory

import (
	"fmt"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// Available returns the derived availability for a SKU: on-hand stock minus
// pending reservations, floored at zero. Nil maps count as empty, so unknown
// SKUs yield zero.
func Available(sku string, onHandBySKU, pendingBySKU map[string]int) int {
	available := onHandBySKU[sku] - pendingBySKU[sku]
	if available < 0 {
		return 0
	}
	return available
}

// OnHandIndex builds a SKU to on-hand quantity lookup. The sku_code unique
// index guarantees at most one row per SKU; a duplicate here means the rows
// were assembled incorrectly and surfaces as an internal error.
func OnHandIndex(items []models.InventoryItem) (map[string]int, error) {
	index := make(map[string]int, len(items))
	for _, item := range items {
		if _, exists := index[item.SKUCode]; exists {
			return nil, apperrors.New(apperrors.CodeInternal, fmt.Sprintf("duplicate inventory row for sku %s", item.SKUCode))
		}
		index[item.SKUCode] = item.OnHandQty
	}
	return index, nil
}
