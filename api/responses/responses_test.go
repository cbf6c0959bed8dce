package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "skuCode"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("expected typed message, got %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatal("expected details in public payload")
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: connection refused"), "db down").
		WithDetails(map[string]string{"dsn": "secret"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("internal message leaked: %q", body.Error.Message)
	}
	if body.Error.Details != nil {
		t.Fatal("internal details must not be exposed")
	}
}

func TestWriteErrorWrapsUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func decodeRPCStatus(t *testing.T, body []byte) *status.Status {
	t.Helper()
	var pb spb.Status
	if err := protojson.Unmarshal(body, &pb); err != nil {
		t.Fatalf("decode rpc status: %v", err)
	}
	return status.FromProto(&pb)
}

func TestWriteRPCErrorNotEnoughItem(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeNotEnoughItem, "not enough stock for requested items").
		WithDetails([]types.SKUShortfall{
			{SKUCode: "iphone_12", RequestedQty: 5, AvailableQty: 4},
		})
	WriteRPCError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 but got %d", got)
	}

	st := decodeRPCStatus(t, w.Body.Bytes())
	if st.Code() != codes.ResourceExhausted {
		t.Fatalf("unexpected rpc code %s", st.Code())
	}

	var reason string
	var subjects []string
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
			if d.GetDomain() != ErrorDomain {
				t.Fatalf("unexpected domain %s", d.GetDomain())
			}
		case *errdetails.QuotaFailure:
			for _, v := range d.GetViolations() {
				subjects = append(subjects, v.GetSubject())
			}
		}
	}
	if reason != string(pkgerrors.CodeNotEnoughItem) {
		t.Fatalf("unexpected reason %q", reason)
	}
	if len(subjects) != 1 || subjects[0] != "iphone_12" {
		t.Fatalf("unexpected quota subjects %v", subjects)
	}
}

func TestWriteRPCErrorReservationNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeReservationNotAllowed, "order ORD-1001 reservations are final")
	WriteRPCError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 but got %d", got)
	}

	st := decodeRPCStatus(t, w.Body.Bytes())
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("unexpected rpc code %s", st.Code())
	}
	found := false
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok {
			found = info.GetReason() == string(pkgerrors.CodeReservationNotAllowed)
		}
	}
	if !found {
		t.Fatal("ErrorInfo reason missing")
	}
}

func TestWriteRPCErrorInternalHidesMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("pq: deadlock"), "tx failed")
	WriteRPCError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	st := decodeRPCStatus(t, w.Body.Bytes())
	if st.Code() != codes.Internal {
		t.Fatalf("unexpected rpc code %s", st.Code())
	}
	if st.Message() != "internal server error" {
		t.Fatalf("internal message leaked: %q", st.Message())
	}
}
