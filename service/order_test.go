package service_test

import (
	"context"
	"errors"
	"testing"

	"storefront/database/memstore"
	"storefront/model"
	"storefront/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	created []string
	changed []string
	fail    bool
}

func (p *recordingPublisher) OrderCreated(_ context.Context, o *model.Order) error {
	p.created = append(p.created, o.ID)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func (p *recordingPublisher) OrderStatusChanged(_ context.Context, o *model.Order, from model.OrderStatus) error {
	p.changed = append(p.changed, string(from)+"->"+string(o.Status))
	return nil
}

type orderFixture struct {
	store     *memstore.Store
	orders    *service.OrderService
	carts     *service.CartService
	publisher *recordingPublisher
}

func newOrderFixture(t *testing.T, opts service.OrderOptions) *orderFixture {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	return &orderFixture{
		store:     store,
		orders:    service.NewOrderService(store.Orders(), store.Products(), pub, opts),
		carts:     service.NewCartService(store.Carts(), store.Products()),
		publisher: pub,
	}
}

func validCheckout(items ...model.OrderItem) model.CheckoutRequest {
	return model.CheckoutRequest{
		Items: items,
		ShippingInfo: model.ShippingInfo{
			FullName:      "Jane Buyer",
			Address:       "1 Main St",
			ContactNumber: "09171234567",
		},
	}
}

func TestCheckoutValidation(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	ctx := context.Background()

	_, _, err := f.orders.Checkout(ctx, model.Principal{}, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	requireKind(t, err, model.KindUnauthorized)

	_, _, err = f.orders.Checkout(ctx, buyer, validCheckout(), "")
	requireKind(t, err, model.KindValidation)
	assert.Equal(t, "Items are required", err.Error())

	req := validCheckout(model.OrderItem{ProductID: "p1", Quantity: 0})
	req.ShippingInfo.Address = "  "
	_, _, err = f.orders.Checkout(ctx, buyer, req, "")
	requireKind(t, err, model.KindValidation)
	var typed *model.Error
	require.True(t, errors.As(err, &typed))
	assert.Len(t, typed.Details, 2)
}

func TestCheckoutCreatesPendingOrderAndClearsCart(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{ClearCartOnCheckout: true})
	seedProduct(t, f.store, "p1", "100.00")
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, buyer.UserID, "p1", intPtr(2), nil)
	require.NoError(t, err)

	order, replayed, err := f.orders.Checkout(ctx, buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 2}), "")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Regexp(t, `^ORD-`, order.Reference)
	assert.Equal(t, []string{order.ID}, f.publisher.created)

	cart, err := f.carts.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Empty(t, cart.CartItems)
	assert.True(t, cart.TotalPrice.IsZero())
}

func TestCheckoutKeepsCartWhenConfigured(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{ClearCartOnCheckout: false})
	seedProduct(t, f.store, "p1", "100.00")
	ctx := context.Background()

	_, err := f.carts.AddItem(ctx, buyer.UserID, "p1", intPtr(1), nil)
	require.NoError(t, err)
	_, _, err = f.orders.Checkout(ctx, buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	require.NoError(t, err)

	cart, err := f.carts.GetCart(ctx, buyer.UserID)
	require.NoError(t, err)
	assert.Len(t, cart.CartItems, 1)
}

func TestCheckoutIdempotencyKeyReplays(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	ctx := context.Background()
	req := validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1})

	first, replayed, err := f.orders.Checkout(ctx, buyer, req, "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.orders.Checkout(ctx, buyer, req, "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	other := model.Principal{UserID: "user-2"}
	third, replayed, err := f.orders.Checkout(ctx, other, req, "key-1")
	require.NoError(t, err)
	assert.False(t, replayed, "keys are scoped per user")
	assert.NotEqual(t, first.ID, third.ID)
	assert.Len(t, f.publisher.created, 2)
}

func TestCheckoutSurvivesPublisherFailure(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	f.publisher.fail = true
	_, _, err := f.orders.Checkout(context.Background(), buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	assert.NoError(t, err)
}

func TestMarkReceived(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	ctx := context.Background()
	order, _, err := f.orders.Checkout(ctx, buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	require.NoError(t, err)

	_, err = f.orders.MarkReceived(ctx, buyer, order.ID)
	requireKind(t, err, model.KindInvalidState)
	stored, err := f.store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status, "status unchanged after rejected transition")

	_, err = f.orders.AdminUpdateStatus(ctx, admin, order.ID, model.OrderStatusForDelivery)
	require.NoError(t, err)

	_, err = f.orders.MarkReceived(ctx, model.Principal{UserID: "someone-else"}, order.ID)
	requireKind(t, err, model.KindNotFound)

	updated, err := f.orders.MarkReceived(ctx, buyer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
	assert.Equal(t, []string{"pending->for delivery", "for delivery->delivered"}, f.publisher.changed)

	_, err = f.orders.MarkReceived(ctx, buyer, "missing")
	requireKind(t, err, model.KindNotFound)
}

func TestAdminUpdateStatusPermissiveByDefault(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	ctx := context.Background()
	order, _, err := f.orders.Checkout(ctx, buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	require.NoError(t, err)

	_, err = f.orders.AdminUpdateStatus(ctx, buyer, order.ID, model.OrderStatusProcessing)
	requireKind(t, err, model.KindForbidden)

	_, err = f.orders.AdminUpdateStatus(ctx, admin, order.ID, "shipped")
	requireKind(t, err, model.KindValidation)

	_, err = f.orders.AdminUpdateStatus(ctx, admin, "missing", model.OrderStatusProcessing)
	requireKind(t, err, model.KindNotFound)

	for _, status := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusPending, model.OrderStatusCancelled, model.OrderStatusProcessing} {
		updated, err := f.orders.AdminUpdateStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, status, updated.Status)
	}
}

func TestAdminUpdateStatusStrict(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{StrictTransitions: true})
	ctx := context.Background()
	order, _, err := f.orders.Checkout(ctx, buyer, validCheckout(model.OrderItem{ProductID: "p1", Quantity: 1}), "")
	require.NoError(t, err)

	_, err = f.orders.AdminUpdateStatus(ctx, admin, order.ID, model.OrderStatusDelivered)
	requireKind(t, err, model.KindInvalidState)

	for _, status := range []model.OrderStatus{model.OrderStatusProcessing, model.OrderStatusForDelivery, model.OrderStatusDelivered} {
		_, err := f.orders.AdminUpdateStatus(ctx, admin, order.ID, status)
		require.NoError(t, err)
	}
	_, err = f.orders.AdminUpdateStatus(ctx, admin, order.ID, model.OrderStatusCancelled)
	requireKind(t, err, model.KindInvalidState)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, service.CanTransition(model.OrderStatusPending, model.OrderStatusProcessing))
	assert.True(t, service.CanTransition(model.OrderStatusForDelivery, model.OrderStatusCancelled))
	assert.False(t, service.CanTransition(model.OrderStatusPending, model.OrderStatusDelivered))
	assert.False(t, service.CanTransition(model.OrderStatusDelivered, model.OrderStatusCancelled))
	assert.False(t, service.CanTransition(model.OrderStatusCancelled, model.OrderStatusPending))
}

func TestOrderViewsJoinLiveCatalog(t *testing.T) {
	f := newOrderFixture(t, service.OrderOptions{})
	seedProduct(t, f.store, "p1", "100.00")
	seedProduct(t, f.store, "p2", "5.00")
	ctx := context.Background()

	_, _, err := f.orders.Checkout(ctx, buyer, validCheckout(
		model.OrderItem{ProductID: "p1", Quantity: 2},
		model.OrderItem{ProductID: "p2", Quantity: 3},
	), "")
	require.NoError(t, err)

	_, err = f.store.Products().Delete(ctx, "p2")
	require.NoError(t, err)
	p1, err := f.store.Products().Get(ctx, "p1")
	require.NoError(t, err)
	p1.Price = dec("120.00")
	require.NoError(t, f.store.Products().Update(ctx, p1))

	views, err := f.orders.MyOrders(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, views, 1)
	view := views[0]
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "240.00", view.Lines[0].Subtotal.StringFixed(2), "live price is used")
	assert.Equal(t, model.DeletedProductName, view.Lines[1].Name)
	assert.True(t, view.Lines[1].ProductDeleted)
	assert.True(t, view.Lines[1].Price.IsZero())
	assert.Equal(t, "240.00", view.Total.StringFixed(2))

	_, err = f.orders.AllOrders(ctx, buyer)
	requireKind(t, err, model.KindForbidden)
	all, err := f.orders.AllOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
