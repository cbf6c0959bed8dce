package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/internal/inventory"
	dbpkg "github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the inventory-side reservation facade used by the HTTP API and
// the order events consumer.
type Service interface {
	ReserveOrder(ctx context.Context, input ReserveOrderInput) ([]types.SKUAvailability, error)
	TransitionForOrder(ctx context.Context, orderNumber string, target enums.ReservationStatus) ([]models.Reservation, error)
	Availability(ctx context.Context, skus []string) ([]types.SKUAvailability, error)
}

// ReserveOrderInput carries one order's requested line items.
type ReserveOrderInput struct {
	OrderNumber string
	Items       []types.LineItem
}

// Params wires the service dependencies.
type Params struct {
	DB        txRunner
	Repo      Repository
	Inventory inventory.Repository
	State     *StateManager
	Logg      *logger.Logger
	Now       func() time.Time
}

type service struct {
	db        txRunner
	repo      Repository
	inventory inventory.Repository
	state     *StateManager
	logg      *logger.Logger
	now       func() time.Time
}

// NewService validates params and builds the reservation service.
func NewService(p Params) (Service, error) {
	if p.DB == nil {
		return nil, errors.New("db client is required")
	}
	if p.Repo == nil {
		return nil, errors.New("reservation repository is required")
	}
	if p.Inventory == nil {
		return nil, errors.New("inventory repository is required")
	}
	if p.State == nil {
		return nil, errors.New("state manager is required")
	}
	if p.Logg == nil {
		return nil, errors.New("logger is required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		db:        p.DB,
		repo:      p.Repo,
		inventory: p.Inventory,
		state:     p.State,
		logg:      p.Logg,
		now:       p.Now,
	}, nil
}

// ReserveOrder replaces the order's pending reservations with the requested
// items in one transaction and returns the post-reservation availability per
// requested SKU.
func (s *service) ReserveOrder(ctx context.Context, input ReserveOrderInput) ([]types.SKUAvailability, error) {
	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one line item is required")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.SKUCode) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "sku code is required on every line item")
		}
		if item.Qty < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity cannot be negative")
		}
	}

	var result []types.SKUAvailability
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invRepo := s.inventory.WithTx(tx)

		existing, err := repo.FindByOrder(ctx, orderNumber)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading existing reservations")
		}

		plan, err := BuildPlan(orderNumber, input.Items, existing, s.now())
		if err != nil {
			return err
		}

		skus := make([]string, 0, len(input.Items))
		for _, item := range input.Items {
			skus = append(skus, item.SKUCode)
		}

		items, err := invRepo.FindBySKUs(ctx, skus)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading inventory items")
		}
		onHand, err := inventory.OnHandIndex(items)
		if err != nil {
			return err
		}
		pendingOthers, err := repo.PendingBySKU(ctx, skus, orderNumber)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "aggregating pending reservations")
		}

		var shortfalls []types.SKUShortfall
		for _, item := range input.Items {
			available := inventory.Available(item.SKUCode, onHand, pendingOthers)
			if item.Qty > available {
				shortfalls = append(shortfalls, types.SKUShortfall{
					SKUCode:      item.SKUCode,
					RequestedQty: item.Qty,
					AvailableQty: available,
				})
			}
		}
		if len(shortfalls) > 0 {
			return apperrors.New(apperrors.CodeNotEnoughItem, "not enough stock for requested items").WithDetails(shortfalls)
		}

		if err := repo.DeleteByOrderAndSKUs(ctx, orderNumber, plan.ToDelete); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "removing dropped reservations")
		}
		if err := repo.SaveBatch(ctx, plan.ToSave); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_reservations_order_sku") {
				return apperrors.Wrap(apperrors.CodeDuplicateReservation, err, "reservation already exists for this order and sku")
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "persisting reservations")
		}

		result = make([]types.SKUAvailability, 0, len(input.Items))
		for _, item := range input.Items {
			remaining := inventory.Available(item.SKUCode, onHand, pendingOthers) - item.Qty
			if remaining < 0 {
				remaining = 0
			}
			result = append(result, types.SKUAvailability{
				SKUCode:      item.SKUCode,
				AvailableQty: remaining,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_number": orderNumber,
		"items":        len(input.Items),
	})
	s.logg.Info(logCtx, "order reservations persisted")
	return result, nil
}

// TransitionForOrder wraps the state manager in its own transaction.
func (s *service) TransitionForOrder(ctx context.Context, orderNumber string, target enums.ReservationStatus) ([]models.Reservation, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}

	var updated []models.Reservation
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.state.Transition(ctx, tx, orderNumber, target)
		if err != nil {
			return err
		}
		updated = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Availability is the read-side query: on-hand minus all pending
// reservations, per SKU. Unknown SKUs report zero.
func (s *service) Availability(ctx context.Context, skus []string) ([]types.SKUAvailability, error) {
	if len(skus) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one sku is required")
	}

	items, err := s.inventory.FindBySKUs(ctx, skus)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading inventory items")
	}
	onHand, err := inventory.OnHandIndex(items)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.PendingBySKU(ctx, skus, "")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "aggregating pending reservations")
	}

	result := make([]types.SKUAvailability, 0, len(skus))
	for _, sku := range skus {
		result = append(result, types.SKUAvailability{
			SKUCode:      sku,
			AvailableQty: inventory.Available(sku, onHand, pending),
		})
	}
	return result, nil
}
