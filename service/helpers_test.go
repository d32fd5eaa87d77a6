package service_test

import (
	"context"
	"testing"
	"time"

	"storefront/database/memstore"
	"storefront/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	admin = model.Principal{UserID: "admin-1", Email: "admin@example.com", IsAdmin: true}
	buyer = model.Principal{UserID: "user-1", Email: "buyer@example.com"}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedProduct(t *testing.T, store *memstore.Store, id, price string, mutate ...func(*model.Product)) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:        id,
		Name:      "Product " + id,
		Price:     dec(price),
		Stock:     10,
		Category:  model.DefaultCategory,
		Brand:     "Acme",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func requireKind(t *testing.T, err error, kind model.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, model.KindOf(err), "unexpected error: %v", err)
}
