package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	dbpkg "github.com/stockroomhq/stockroom-backend/pkg/db"
	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/logger"
)

// Service exposes inventory item management for the HTTP API.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error)
	GetItem(ctx context.Context, sku string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, limit, offset int) ([]models.InventoryItem, error)
	SetOnHand(ctx context.Context, sku string, qty int) (*models.InventoryItem, error)
}

// CreateItemInput carries the fields needed to register a SKU.
type CreateItemInput struct {
	SKUCode   string
	OnHandQty int
}

// Params wires the service dependencies.
type Params struct {
	Repo Repository
	Logg *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService validates params and builds the inventory service.
func NewService(p Params) (Service, error) {
	if p.Repo == nil {
		return nil, errors.New("inventory repository is required")
	}
	if p.Logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: p.Repo, logg: p.Logg}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.InventoryItem, error) {
	sku := strings.TrimSpace(input.SKUCode)
	if sku == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "sku code is required")
	}
	if input.OnHandQty < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "on-hand quantity cannot be negative")
	}

	item := models.InventoryItem{
		ID:        uuid.New(),
		SKUCode:   sku,
		OnHandQty: input.OnHandQty,
	}
	if err := s.repo.Create(ctx, &item); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_inventory_items_sku") {
			return nil, apperrors.Wrap(apperrors.CodeValidation, err, fmt.Sprintf("sku %s already exists", sku))
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating inventory item")
	}

	s.logg.Info(s.logg.WithSKU(ctx, sku), "inventory item created")
	return &item, nil
}

func (s *service) GetItem(ctx context.Context, sku string) (*models.InventoryItem, error) {
	item, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading inventory item")
	}
	if item == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("inventory item %s not found", sku))
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context, limit, offset int) ([]models.InventoryItem, error) {
	items, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing inventory items")
	}
	return items, nil
}

func (s *service) SetOnHand(ctx context.Context, sku string, qty int) (*models.InventoryItem, error) {
	if qty < 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "on-hand quantity cannot be negative")
	}
	if err := s.repo.SetOnHand(ctx, sku, qty); err != nil {
		if typed := apperrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "updating on-hand quantity")
	}
	item, err := s.repo.FindBySKU(ctx, sku)
	if err != nil || item == nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "reloading inventory item")
	}
	s.logg.Info(s.logg.WithSKU(ctx, sku), "on-hand quantity updated")
	return item, nil
}
