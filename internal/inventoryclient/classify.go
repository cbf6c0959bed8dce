package inventoryclient

import (
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
)

// Reasons carried in ErrorInfo by the inventory service.
const (
	reasonNotEnoughItem         = "NOT_ENOUGH_ITEM"
	reasonReservationNotAllowed = "ORDER_RESERVATION_NOT_ALLOWED"
)

// classifyErrorBody maps a google.rpc.Status error body to a domain error.
// The mapping is total: every combination of code and reason lands on a
// stable domain code, and bodies that cannot be decoded at all classify as
// an invalid inventory response.
func classifyErrorBody(body []byte) *apperrors.Error {
	var proto spb.Status
	if err := protojson.Unmarshal(body, &proto); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInventoryResult, err, "undecodable error response from inventory service")
	}
	return classifyStatus(status.FromProto(&proto))
}

func classifyStatus(st *status.Status) *apperrors.Error {
	reason, unavailable := errorDetails(st)

	switch st.Code() {
	case codes.ResourceExhausted:
		if reason == reasonNotEnoughItem {
			return apperrors.New(apperrors.CodeNotEnoughItem, st.Message()).WithDetails(unavailable)
		}
		return apperrors.New(apperrors.CodeInvalidInventoryResult, st.Message())
	case codes.FailedPrecondition:
		if reason == reasonReservationNotAllowed {
			return apperrors.New(apperrors.CodeReservationNotAllowed, st.Message())
		}
		return apperrors.New(apperrors.CodeInvalidInventoryResult, st.Message())
	case codes.Internal:
		return apperrors.New(apperrors.CodeInternal, st.Message())
	default:
		return apperrors.New(apperrors.CodeInvalidInventoryResult, st.Message())
	}
}

// errorDetails pulls the ErrorInfo reason and the QuotaFailure SKU list out
// of the status details, tolerating their absence.
func errorDetails(st *status.Status) (string, []string) {
	var reason string
	var unavailable []string
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		case *errdetails.QuotaFailure:
			for _, violation := range d.GetViolations() {
				unavailable = append(unavailable, violation.GetSubject())
			}
		}
	}
	return reason, unavailable
}
