package memstore

import (
	"context"
	"testing"

	"storefront/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	price := decimal.NewFromInt(8)
	require.NoError(t, s.Products().Create(ctx, &model.Product{ID: "p1", Price: decimal.NewFromInt(10), Sale: model.Sale{SalePrice: &price}}))

	got, err := s.Products().Get(ctx, "p1")
	require.NoError(t, err)
	*got.Sale.SalePrice = decimal.NewFromInt(1)

	again, err := s.Products().Get(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, again.Sale.SalePrice.Equal(decimal.NewFromInt(8)))
}

func TestOrderIdempotencyKeyIsUniquePerUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Orders().Create(ctx, &model.Order{ID: "o1", UserID: "u1", IdempotencyKey: "k"}, false))
	assert.ErrorIs(t, s.Orders().Create(ctx, &model.Order{ID: "o2", UserID: "u1", IdempotencyKey: "k"}, false), model.ErrDuplicate)
	assert.NoError(t, s.Orders().Create(ctx, &model.Order{ID: "o3", UserID: "u2", IdempotencyKey: "k"}, false))

	orders, err := s.Orders().List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o3", orders[0].ID, "newest first")
}

func TestUsersEmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Users().Create(ctx, &model.User{ID: "u1", Email: "a@b.com"}))
	assert.ErrorIs(t, s.Users().Create(ctx, &model.User{ID: "u2", Email: "a@b.com"}), model.ErrDuplicate)
}
