package responses

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	pkgerrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

// ErrorDomain identifies this service in ErrorInfo details.
const ErrorDomain = "inventory.stockroom.dev"

// WriteRPCError renders err as a protojson-encoded google.rpc.Status. The
// reservation endpoint uses this contract so remote callers can classify
// rejections by canonical code plus ErrorInfo reason.
func WriteRPCError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed, meta := classify(err)

	msg := meta.PublicMessage
	if m := typed.Message(); m != "" && meta.DetailsAllowed {
		msg = m
	}

	st := status.New(meta.RPCCode, msg)
	info := &errdetails.ErrorInfo{
		Reason: string(typed.Code()),
		Domain: ErrorDomain,
	}
	withInfo, derr := st.WithDetails(info)
	if derr == nil {
		st = withInfo
	}

	if typed.Code() == pkgerrors.CodeNotEnoughItem {
		if quota := quotaFailureFor(typed.Details()); quota != nil {
			withQuota, qerr := st.WithDetails(quota)
			if qerr == nil {
				st = withQuota
			}
		}
	}

	logError(ctx, logg, err, typed)

	body, merr := protojson.Marshal(st.Proto())
	if merr != nil {
		http.Error(w, `{"code":13,"message":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(meta.HTTPStatus)
	if _, werr := w.Write(body); werr != nil {
		log.Printf(`{"level":"error","msg":"failed to write rpc status","err":"%v"}`, werr)
	}
}

func quotaFailureFor(details any) *errdetails.QuotaFailure {
	shortfalls, ok := details.([]types.SKUShortfall)
	if !ok || len(shortfalls) == 0 {
		return nil
	}
	violations := make([]*errdetails.QuotaFailure_Violation, 0, len(shortfalls))
	for _, sf := range shortfalls {
		violations = append(violations, &errdetails.QuotaFailure_Violation{
			Subject: sf.SKUCode,
			Description: fmt.Sprintf("requested %d, available %d",
				sf.RequestedQty, sf.AvailableQty),
		})
	}
	return &errdetails.QuotaFailure{Violations: violations}
}
