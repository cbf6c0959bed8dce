package controllers

import (
	"net/http"
	"strings"

	"github.com/stockroomhq/stockroom-backend/api/responses"
	"github.com/stockroomhq/stockroom-backend/api/validators"
	"github.com/stockroomhq/stockroom-backend/internal/reservation"
	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

type reserveRequest struct {
	OrderNumber string           `json:"orderNumber" validate:"required"`
	Items       []types.LineItem `json:"items" validate:"required,min=1,dive"`
}

// ReserveOrder is the RPC endpoint the order service calls. Errors go out
// as protojson google.rpc.Status so the remote client can classify them.
func ReserveOrder(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reserveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteRPCError(r.Context(), logg, w, err)
			return
		}

		availability, err := svc.ReserveOrder(r.Context(), reservation.ReserveOrderInput{
			OrderNumber: req.OrderNumber,
			Items:       req.Items,
		})
		if err != nil {
			responses.WriteRPCError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}

// Availability answers read-side availability queries, e.g.
// GET /v1/availability?sku=iphone_12&sku=pixel_9.
func Availability(svc reservation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skus := make([]string, 0)
		for _, raw := range r.URL.Query()["sku"] {
			if sku := strings.TrimSpace(raw); sku != "" {
				skus = append(skus, sku)
			}
		}
		if len(skus) == 0 {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "at least one sku query parameter is required"))
			return
		}

		availability, err := svc.Availability(r.Context(), skus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}
