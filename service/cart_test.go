package service_test

import (
	"context"
	"testing"

	"storefront/database/memstore"
	"storefront/model"
	"storefront/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartService(t *testing.T) (*service.CartService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return service.NewCartService(store.Carts(), store.Products()), store
}

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertTotal(t *testing.T, cart *model.Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range cart.CartItems {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, sum.Equal(cart.TotalPrice), "total %s != Σ %s", cart.TotalPrice, sum)
}

func TestCartAddSameProductMergesLine(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "25.50")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyer.UserID, "p1", intPtr(1), nil)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, buyer.UserID, "p1", intPtr(1), nil)
	require.NoError(t, err)

	require.Len(t, cart.CartItems, 1)
	assert.Equal(t, 2, cart.CartItems[0].Quantity)
	assert.Equal(t, "51.00", cart.TotalPrice.StringFixed(2))
	assertTotal(t, cart)
}

func TestCartAddDefaultsAndOverrides(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "100.00")
	seedProduct(t, store, "p2", "50.00", func(p *model.Product) {
		sale := dec("40.00")
		p.Sale = model.Sale{IsOnSale: true, DiscountPercentage: dec("20"), SalePrice: &sale}
	})
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, buyer.UserID, "p1", intPtr(2), decPtr("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "200.00", cart.TotalPrice.StringFixed(2))

	cart, err = svc.AddItem(ctx, buyer.UserID, "p2", nil, nil)
	require.NoError(t, err)
	require.Len(t, cart.CartItems, 2)
	assert.Equal(t, 1, cart.CartItems[1].Quantity)
	assert.Equal(t, "40.00", cart.CartItems[1].Price.StringFixed(2), "effective price used without override")
	assertTotal(t, cart)

	stored, err := svc.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, "240.00", stored.TotalPrice.StringFixed(2))
}

func TestCartAddRejectsBadInput(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "10.00")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyer.UserID, "missing", nil, nil)
	requireKind(t, err, model.KindNotFound)

	_, err = svc.AddItem(ctx, buyer.UserID, "p1", intPtr(0), nil)
	requireKind(t, err, model.KindValidation)

	_, err = svc.AddItem(ctx, buyer.UserID, "p1", nil, decPtr("33.333"))
	requireKind(t, err, model.KindValidation)
	_, err = svc.AddItem(ctx, buyer.UserID, "p1", nil, decPtr("-1"))
	requireKind(t, err, model.KindValidation)
}

func TestCartUpdateQuantity(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "10.00")
	ctx := context.Background()

	_, err := svc.AddItem(ctx, buyer.UserID, "p1", intPtr(3), nil)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, buyer.UserID, "p1", 0)
	requireKind(t, err, model.KindValidation)
	cart, err := svc.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.CartItems[0].Quantity, "cart unchanged after rejected update")

	_, err = svc.UpdateQuantity(ctx, buyer.UserID, "p2", 1)
	requireKind(t, err, model.KindNotFound)

	cart, err = svc.UpdateQuantity(ctx, buyer.UserID, "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, "50.00", cart.TotalPrice.StringFixed(2))
}

func TestCartTotalTracksMutations(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "9.99")
	seedProduct(t, store, "p2", "0.10")
	seedProduct(t, store, "p3", "1234.56")
	ctx := context.Background()
	user := buyer.UserID

	steps := []func() (*model.Cart, error){
		func() (*model.Cart, error) { return svc.AddItem(ctx, user, "p1", intPtr(3), nil) },
		func() (*model.Cart, error) { return svc.AddItem(ctx, user, "p2", intPtr(7), nil) },
		func() (*model.Cart, error) { return svc.AddItem(ctx, user, "p3", nil, decPtr("1000.01")) },
		func() (*model.Cart, error) { return svc.UpdateQuantity(ctx, user, "p2", 11) },
		func() (*model.Cart, error) { return svc.RemoveItem(ctx, user, "p1") },
		func() (*model.Cart, error) { return svc.RemoveItem(ctx, user, "not-there") },
		func() (*model.Cart, error) { return svc.AddItem(ctx, user, "p1", intPtr(1), nil) },
	}
	for i, step := range steps {
		cart, err := step()
		require.NoError(t, err, "step %d", i)
		assertTotal(t, cart)
	}

	cart, err := svc.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "1011.10", cart.TotalPrice.StringFixed(2))
	assertTotal(t, cart)
}

func TestCartClearAndFirstAccess(t *testing.T) {
	svc, store := newCartService(t)
	seedProduct(t, store, "p1", "10.00")
	ctx := context.Background()

	cart, err := svc.GetCart(ctx, "fresh-user")
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Empty(t, cart.CartItems)
	assert.True(t, cart.TotalPrice.IsZero())

	_, err = svc.AddItem(ctx, "fresh-user", "p1", intPtr(2), nil)
	require.NoError(t, err)
	cart, err = svc.Clear(ctx, "fresh-user")
	require.NoError(t, err)
	assert.Empty(t, cart.CartItems)
	assert.True(t, cart.TotalPrice.IsZero())
}
