package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

type Code string

const (
	CodeValidation             Code = "VALIDATION_ERROR"
	CodeNotFound               Code = "NOT_FOUND"
	CodeDuplicateReservation   Code = "DUPLICATE_RESERVATION"
	CodeNotEnoughItem          Code = "NOT_ENOUGH_ITEM"
	CodeReservationNotAllowed  Code = "ORDER_RESERVATION_NOT_ALLOWED"
	CodeInvalidInventoryResult Code = "INVALID_INVENTORY_RESPONSE"
	CodeDependency             Code = "DEPENDENCY_ERROR"
	CodeInternal               Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	RPCCode        codes.Code
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		RPCCode:        codes.InvalidArgument,
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		HTTPStatus:     http.StatusNotFound,
		RPCCode:        codes.NotFound,
		Retryable:      false,
		PublicMessage:  "resource not found",
		DetailsAllowed: false,
	},
	CodeDuplicateReservation: {
		HTTPStatus:     http.StatusConflict,
		RPCCode:        codes.AlreadyExists,
		Retryable:      false,
		PublicMessage:  "reservation already exists for this order and sku",
		DetailsAllowed: true,
	},
	CodeNotEnoughItem: {
		HTTPStatus:     http.StatusTooManyRequests,
		RPCCode:        codes.ResourceExhausted,
		Retryable:      false,
		PublicMessage:  "not enough stock to reserve the requested quantity",
		DetailsAllowed: true,
	},
	CodeReservationNotAllowed: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		RPCCode:        codes.FailedPrecondition,
		Retryable:      false,
		PublicMessage:  "order reservations are no longer modifiable",
		DetailsAllowed: true,
	},
	CodeInvalidInventoryResult: {
		HTTPStatus:     http.StatusBadGateway,
		RPCCode:        codes.Internal,
		Retryable:      false,
		PublicMessage:  "inventory service returned an unrecognized response",
		DetailsAllowed: false,
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		RPCCode:        codes.Internal,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:     http.StatusInternalServerError,
		RPCCode:        codes.Internal,
		Retryable:      true,
		PublicMessage:  "internal server error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the domain code for err, defaulting to CodeInternal for
// anything that is not a typed *Error.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}
