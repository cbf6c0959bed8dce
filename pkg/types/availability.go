package types

// SKUAvailability is the read-side view returned by availability queries and
// by a successful reservation call (post-reservation numbers).
type SKUAvailability struct {
	SKUCode      string `json:"skuCode"`
	AvailableQty int    `json:"availableQuantity"`
}

// SKUShortfall details one SKU that could not be reserved in full.
type SKUShortfall struct {
	SKUCode      string `json:"skuCode"`
	RequestedQty int    `json:"requestedQuantity"`
	AvailableQty int    `json:"availableQuantity"`
}

// LineItem is a requested (sku, quantity) pair on the reservation path.
type LineItem struct {
	SKUCode string `json:"skuCode"`
	Qty     int    `json:"quantity"`
}
