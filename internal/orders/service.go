package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
	"github.com/stockroomhq/stockroom-backend/pkg/outbox"
	"github.com/stockroomhq/stockroom-backend/pkg/outbox/payloads"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
	"github.com/stockroomhq/stockroom-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// inventoryReserver is the slice of the inventory client this service needs.
type inventoryReserver interface {
	Reserve(ctx context.Context, orderNumber string, items []types.LineItem) ([]types.SKUAvailability, error)
}

// Service is the order placement and lifecycle facade.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	UpdateStatus(ctx context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error)
	GetOrder(ctx context.Context, orderNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params) (*OrderList, error)
}

// Params wires the service dependencies.
type Params struct {
	DB        txRunner
	Repo      Repository
	Inventory inventoryReserver
	Outbox    outboxEmitter
	Logg      *logger.Logger
	Now       func() time.Time
	NewNumber func() string
}

type service struct {
	db        txRunner
	repo      Repository
	inventory inventoryReserver
	outbox    outboxEmitter
	logg      *logger.Logger
	now       func() time.Time
	newNumber func() string
}

// NewService validates params and builds the orders service.
func NewService(p Params) (Service, error) {
	if p.DB == nil {
		return nil, errors.New("db client is required")
	}
	if p.Repo == nil {
		return nil, errors.New("orders repository is required")
	}
	if p.Inventory == nil {
		return nil, errors.New("inventory client is required")
	}
	if p.Outbox == nil {
		return nil, errors.New("outbox emitter is required")
	}
	if p.Logg == nil {
		return nil, errors.New("logger is required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.NewNumber == nil {
		p.NewNumber = uuid.NewString
	}
	return &service{
		db:        p.DB,
		repo:      p.Repo,
		inventory: p.Inventory,
		outbox:    p.Outbox,
		logg:      p.Logg,
		now:       p.Now,
		newNumber: p.NewNumber,
	}, nil
}

// PlaceOrder reserves stock with the inventory service first, then persists
// the order, its line items, and the ORDER_PLACED outbox row in one local
// transaction. A reservation failure leaves nothing behind.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "at least one line item is required")
	}
	for _, item := range input.Items {
		if strings.TrimSpace(item.SKUCode) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "sku code is required on every line item")
		}
		if item.Qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, apperrors.New(apperrors.CodeValidation, "unit price cannot be negative")
		}
	}

	orderNumber := s.newNumber()
	logCtx := s.logg.WithOrderNumber(ctx, orderNumber)

	reserveItems := make([]types.LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		reserveItems = append(reserveItems, types.LineItem{SKUCode: item.SKUCode, Qty: item.Qty})
	}
	availability, err := s.inventory.Reserve(ctx, orderNumber, reserveItems)
	if err != nil {
		s.logg.Warn(logCtx, "inventory reservation rejected")
		return nil, err
	}

	now := s.now()
	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		Status:      enums.OrderPlaced,
	}
	eventItems := make([]payloads.OrderLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			SKUCode:   item.SKUCode,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
		eventItems = append(eventItems, payloads.OrderLineItem{
			SKUCode:   item.SKUCode,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		})
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &order); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "persisting order")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPlacedEvent{
				OrderNumber: orderNumber,
				Items:       eventItems,
				PlacedAt:    now,
			},
			Version:    1,
			OccurredAt: now,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "queueing order placed event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(logCtx, "order placed")
	return &PlaceOrderResult{Order: order, Availability: availability}, nil
}

// UpdateStatus moves an order out of PLACED and queues the matching lifecycle
// event in the same transaction. Repeating a transition is a no-op.
func (s *service) UpdateStatus(ctx context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "order number is required")
	}
	eventType, ok := eventTypeForStatus(target)
	if !ok {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("cannot transition an order to %s", target))
	}

	var updated *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByNumber(ctx, orderNumber)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
		}
		if order == nil {
			return apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("order %s not found", orderNumber))
		}
		if order.Status == target {
			updated = order
			return nil
		}
		if order.Status != enums.OrderPlaced {
			return apperrors.New(apperrors.CodeValidation,
				fmt.Sprintf("order %s is already %s", orderNumber, order.Status))
		}

		if err := repo.UpdateStatus(ctx, orderNumber, target); err != nil {
			if typed := apperrors.As(err); typed != nil {
				return typed
			}
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating order status")
		}

		now := s.now()
		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderNumber: orderNumber,
				Status:      target,
				ChangedAt:   now,
			},
			Version:    1,
			OccurredAt: now,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "queueing order status event")
		}

		order.Status = target
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_number": orderNumber,
		"status":       target,
	})
	s.logg.Info(logCtx, "order status updated")
	return updated, nil
}

func (s *service) GetOrder(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("order %s not found", orderNumber))
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	orders, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing orders")
	}

	list := &OrderList{Orders: orders}
	if len(orders) > limit {
		list.Orders = orders[:limit]
		last := list.Orders[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func eventTypeForStatus(status enums.OrderStatus) (enums.OutboxEventType, bool) {
	switch status {
	case enums.OrderFulfilled:
		return enums.EventOrderFulfilled, true
	case enums.OrderCancelled:
		return enums.EventOrderCancelled, true
	default:
		return "", false
	}
}
