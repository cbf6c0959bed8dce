package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

const maxErrorBodyBytes = 64 << 10

// Client reserves stock on the remote inventory service.
type Client interface {
	Reserve(ctx context.Context, orderNumber string, items []types.LineItem) ([]types.SKUAvailability, error)
	ReserveAsync(ctx context.Context, orderNumber string, items []types.LineItem) <-chan ReserveOutcome
}

// ReserveOutcome is the result delivered on the ReserveAsync channel.
type ReserveOutcome struct {
	Availability []types.SKUAvailability
	Err          error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Params wires the client dependencies.
type Params struct {
	Config config.InventoryClientConfig
	HTTP   httpDoer
	Logg   *logger.Logger
}

type client struct {
	baseURL string
	http    httpDoer
	policy  *policy
	logg    *logger.Logger
}

// New validates params and builds the remote reservation client.
func New(p Params) (Client, error) {
	if strings.TrimSpace(p.Config.BaseURL) == "" {
		return nil, errors.New("inventory base url is required")
	}
	if p.Logg == nil {
		return nil, errors.New("logger is required")
	}
	if p.HTTP == nil {
		p.HTTP = &http.Client{}
	}
	return &client{
		baseURL: strings.TrimRight(p.Config.BaseURL, "/"),
		http:    p.HTTP,
		policy:  newPolicy(p.Config),
		logg:    p.Logg,
	}, nil
}

type reserveRequest struct {
	OrderNumber string           `json:"orderNumber"`
	Items       []types.LineItem `json:"items"`
}

type reserveResponse struct {
	Data []types.SKUAvailability `json:"data"`
}

// Reserve dispatches the reservation under the "inventory" resilience policy.
// An empty item list never leaves the process.
func (c *client) Reserve(ctx context.Context, orderNumber string, items []types.LineItem) ([]types.SKUAvailability, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	if len(items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one line item is required")
	}

	return c.policy.execute(ctx, func(ctx context.Context) ([]types.SKUAvailability, error) {
		return c.doReserve(ctx, orderNumber, items)
	})
}

// ReserveAsync runs Reserve in its own goroutine and delivers the single
// outcome on the returned channel.
func (c *client) ReserveAsync(ctx context.Context, orderNumber string, items []types.LineItem) <-chan ReserveOutcome {
	out := make(chan ReserveOutcome, 1)
	go func() {
		defer close(out)
		availability, err := c.Reserve(ctx, orderNumber, items)
		out <- ReserveOutcome{Availability: availability, Err: err}
	}()
	return out
}

func (c *client) doReserve(ctx context.Context, orderNumber string, items []types.LineItem) ([]types.SKUAvailability, error) {
	payload, err := json.Marshal(reserveRequest{OrderNumber: orderNumber, Items: items})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding reservation request")
	}

	url := c.baseURL + "/v1/reservations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "building reservation request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "calling inventory service")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reading inventory response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		domainErr := classifyErrorBody(body)
		logCtx := c.logg.WithFields(c.logg.WithOrderNumber(ctx, orderNumber), map[string]any{
			"http_status": resp.StatusCode,
			"code":        domainErr.Code(),
		})
		c.logg.Warn(logCtx, "inventory reservation rejected")
		return nil, domainErr
	}

	var decoded reserveResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInventoryResult, err, "decoding inventory response")
	}
	if len(decoded.Data) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInventoryResult, fmt.Sprintf("inventory service returned no availability for order %s", orderNumber))
	}
	return decoded.Data, nil
}
