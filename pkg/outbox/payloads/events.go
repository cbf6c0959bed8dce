package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockroomhq/stockroom-backend/pkg/enums"
)

// OrderPlacedEvent is emitted once the order, its line items, and the remote
// reservation have all succeeded.
type OrderPlacedEvent struct {
	OrderNumber string          `json:"orderNumber"`
	Items       []OrderLineItem `json:"items"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// OrderLineItem mirrors a persisted line item inside an event payload.
type OrderLineItem struct {
	SKUCode   string          `json:"skuCode"`
	Qty       int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderStatusChangedEvent carries an order lifecycle transition. The
// inventory-side consumer keys off OrderNumber and Status only.
type OrderStatusChangedEvent struct {
	OrderNumber string            `json:"orderNumber"`
	Status      enums.OrderStatus `json:"status"`
	ChangedAt   time.Time         `json:"changedAt"`
}
