package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockroomhq/stockroom-backend/pkg/db/models"
	"github.com/stockroomhq/stockroom-backend/pkg/enums"
	apperrors "github.com/stockroomhq/stockroom-backend/pkg/errors"
	"github.com/stockroomhq/stockroom-backend/pkg/pagination"
)

func TestRepositoryCreateAndFindByNumber(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1001",
		Status:      enums.OrderPlaced,
		LineItems: []models.OrderLineItem{
			{ID: uuid.New(), SKUCode: "iphone_12", Qty: 2, UnitPrice: decimal.NewFromInt(999)},
			{ID: uuid.New(), SKUCode: "pixel_9", Qty: 1, UnitPrice: decimal.NewFromInt(799)},
		},
	}
	for i := range order.LineItems {
		order.LineItems[i].OrderID = order.ID
	}
	require.NoError(t, repo.Create(ctx, &order))

	found, err := repo.FindByNumber(ctx, "ORD-1001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.LineItems, 2)

	missing, err := repo.FindByNumber(ctx, "ORD-9999")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryUpdateStatus(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := models.Order{ID: uuid.New(), OrderNumber: "ORD-2001", Status: enums.OrderPlaced}
	require.NoError(t, repo.Create(ctx, &order))

	require.NoError(t, repo.UpdateStatus(ctx, "ORD-2001", enums.OrderFulfilled))
	found, err := repo.FindByNumber(ctx, "ORD-2001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, enums.OrderFulfilled, found.Status)

	err = repo.UpdateStatus(ctx, "ORD-9999", enums.OrderCancelled)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestRepositoryListKeysetPagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		order := models.Order{
			ID:          uuid.New(),
			OrderNumber: uuid.NewString(),
			Status:      enums.OrderPlaced,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&order).Error)
	}

	page, err := repo.List(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, page, 4, "List fetches limit+1 rows to detect the next page")
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt), "newest first")

	cursor := &pagination.Cursor{CreatedAt: page[2].CreatedAt, ID: page[2].ID}
	rest, err := repo.List(ctx, cursor, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, order := range rest {
		assert.False(t, order.CreatedAt.After(cursor.CreatedAt), "row %s newer than cursor", order.OrderNumber)
	}
}
