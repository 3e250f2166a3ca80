package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRepository(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewOrderRepository(db, NewIndexGuard(db, true), nil)
	ctx := context.Background()

	order, err := repo.Create(ctx, &model.Order{
		OrderNumber: "ORD-1",
		PartyID:     1,
		Items:       []model.OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		Status:      model.OrderPending,
		Total:       decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, got.Status)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Nil(t, got.CompletedAt)

	t.Run("transition from expected status", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderCompleted, &now))
		got, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
	})

	t.Run("transition from stale status conflicts", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, order.ID, model.OrderPending, model.OrderCancelled, nil)
		assert.ErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 999)
		assert.ErrorIs(t, err, ErrOrderNotFound)
		err = db.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := repo.GetForUpdate(ctx, 999)
			return err
		})
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("list by party", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.Order{OrderNumber: "ORD-2", PartyID: 1, Status: model.OrderPending})
		require.NoError(t, err)
		_, err = repo.Create(ctx, &model.Order{OrderNumber: "ORD-3", PartyID: 2, Status: model.OrderPending})
		require.NoError(t, err)

		list, advisory, err := repo.List(ctx, ptr(1), 0)
		require.NoError(t, err)
		assert.Nil(t, advisory)
		require.Len(t, list, 2)
		assert.Equal(t, "ORD-2", list[0].OrderNumber)

		all, _, err := repo.List(ctx, nil, 1)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
