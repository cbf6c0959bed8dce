package orders

import (
	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

// LineItemInput is one requested SKU on the place-order path.
type LineItemInput struct {
	SKUCode   string
	Qty       int
	UnitPrice decimal.Decimal
}

// PlaceOrderInput carries the buyer's requested line items.
type PlaceOrderInput struct {
	Items []LineItemInput
}

// PlaceOrderResult bundles the persisted order with the post-reservation
// availability reported by the inventory service.
type PlaceOrderResult struct {
	Order        models.Order
	Availability []types.SKUAvailability
}

// OrderList is one keyset page of orders.
type OrderList struct {
	Orders     []models.Order
	NextCursor string
}
