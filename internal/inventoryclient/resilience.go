package inventoryclient

import (
	"context"
	"errors"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/stockroomhq/stockroom-backend/pkg/config"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

// policy is the "inventory" resilience guard: retry wraps the breaker, and the
// breaker wraps each attempt with its own timeout, so every retry is a fresh
// breaker-counted attempt. The breaker sees domain outcomes (insufficient
// stock, immutable order) as successes so only real infrastructure failures
// open it.
type policy struct {
	breaker *gobreaker.CircuitBreaker[[]types.SKUAvailability]
	cfg     config.InventoryClientConfig
}

func newPolicy(cfg config.InventoryClientConfig) *policy {
	settings := gobreaker.Settings{
		Name:     "inventory",
		Interval: cfg.BreakerInterval,
		Timeout:  cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.BreakerMinRequests) {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch apperrors.CodeOf(err) {
			case apperrors.CodeNotEnoughItem,
				apperrors.CodeReservationNotAllowed,
				apperrors.CodeDuplicateReservation,
				apperrors.CodeValidation,
				apperrors.CodeInvalidInventoryResult:
				return true
			}
			return false
		},
	}
	return &policy{
		breaker: gobreaker.NewCircuitBreaker[[]types.SKUAvailability](settings),
		cfg:     cfg,
	}
}

type reserveCall func(ctx context.Context) ([]types.SKUAvailability, error)

// execute runs the call under the breaker with a per-attempt timeout and a
// bounded exponential retry on transient failures.
func (p *policy) execute(ctx context.Context, call reserveCall) ([]types.SKUAvailability, error) {
	attempt := func(ctx context.Context) ([]types.SKUAvailability, error) {
		return p.breaker.Execute(func() ([]types.SKUAvailability, error) {
			callCtx := ctx
			if p.cfg.CallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
				defer cancel()
			}
			return call(callCtx)
		})
	}

	backoff := retry.WithMaxRetries(uint64(p.cfg.MaxRetries), retry.NewExponential(p.cfg.RetryBaseDelay))

	var result []types.SKUAvailability
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		res, err := attempt(ctx)
		if err != nil {
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "inventory circuit breaker open")
		}
		if typed := apperrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reserving inventory")
	}
	return result, nil
}

// isTransient reports whether a failed attempt is worth retrying. Breaker
// trips fail fast, domain outcomes are final, and anything the error table
// marks retryable (plus raw transport errors) gets another attempt.
func isTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if typed := apperrors.As(err); typed != nil {
		return apperrors.MetadataFor(typed.Code()).Retryable
	}
	return true
}
