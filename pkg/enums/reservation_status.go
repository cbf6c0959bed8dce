package enums

import "fmt"

// ReservationStatus maps to the reservation_status_enum type in Postgres.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationFulfilled ReservationStatus = "FULFILLED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

var validReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationFulfilled,
	ReservationCancelled,
	ReservationExpired,
}

// IsValid reports whether the value matches the canonical reservation_status_enum values.
func (s ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether reservations in this status can no longer change.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationFulfilled || s == ReservationCancelled || s == ReservationExpired
}

// ParseReservationStatus converts raw input into ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
