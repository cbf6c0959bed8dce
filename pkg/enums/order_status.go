package enums

import "fmt"

// OrderStatus maps to the order_status_enum type in Postgres.
type OrderStatus string

const (
	OrderPlaced    OrderStatus = "PLACED"
	OrderFulfilled OrderStatus = "FULFILLED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var validOrderStatuses = []OrderStatus{
	OrderPlaced,
	OrderFulfilled,
	OrderCancelled,
}

// IsValid reports whether the value matches the canonical order_status_enum values.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
