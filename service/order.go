package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/model"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
)

type OrderOptions struct {
	// StrictTransitions limits admin status changes to the documented state machine.
	StrictTransitions bool
	// ClearCartOnCheckout empties the buyer's cart in the same write as the order insert.
	ClearCartOnCheckout bool
}

type OrderService struct {
	orders    OrderRepository
	products  ProductRepository
	publisher EventPublisher
	opts      OrderOptions
	now       func() time.Time
}

func NewOrderService(orders OrderRepository, products ProductRepository, publisher EventPublisher, opts OrderOptions) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		publisher: publisher,
		opts:      opts,
		now:       time.Now,
	}
}

// legalTransitions is the documented lifecycle, consulted only in strict mode.
var legalTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:     {model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusProcessing:  {model.OrderStatusForDelivery, model.OrderStatusCancelled},
	model.OrderStatusForDelivery: {model.OrderStatusDelivered, model.OrderStatusCancelled},
}

func CanTransition(from, to model.OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Checkout creates a pending order. A non-empty idempotencyKey that was already used by
// the same user returns the earlier order and replayed=true.
func (s *OrderService) Checkout(ctx context.Context, actor model.Principal, req model.CheckoutRequest, idempotencyKey string) (order *model.Order, replayed bool, err error) {
	if err := requireUser(actor); err != nil {
		return nil, false, err
	}
	if err := validateCheckout(req); err != nil {
		return nil, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.orders.GetByIdempotencyKey(ctx, actor.UserID, idempotencyKey)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, false, storeErr(err, "Order not found")
		}
	}

	reference, err := shortid.Generate()
	if err != nil {
		return nil, false, model.Internal("Failed to generate order reference", err)
	}
	now := s.now().UTC()
	items := make([]model.OrderItem, len(req.Items))
	copy(items, req.Items)
	order = &model.Order{
		ID:        uuid.NewString(),
		Reference: "ORD-" + reference,
		UserID:    actor.UserID,
		Items:     items,
		ShippingInfo: model.ShippingInfo{
			FullName:      strings.TrimSpace(req.ShippingInfo.FullName),
			Address:       strings.TrimSpace(req.ShippingInfo.Address),
			ContactNumber: strings.TrimSpace(req.ShippingInfo.ContactNumber),
		},
		Status:         model.OrderStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.orders.Create(ctx, order, s.opts.ClearCartOnCheckout); err != nil {
		if errors.Is(err, model.ErrDuplicate) && idempotencyKey != "" {
			existing, qerr := s.orders.GetByIdempotencyKey(ctx, actor.UserID, idempotencyKey)
			if qerr == nil {
				return existing, true, nil
			}
		}
		return nil, false, storeErr(err, "Order not found")
	}

	logrus.WithFields(logrus.Fields{"orderId": order.ID, "userId": order.UserID}).Info("order placed")
	if err := s.publisher.OrderCreated(ctx, order); err != nil {
		logrus.Errorf("Checkout: failed to publish order event err = %v", err)
	}
	return order, false, nil
}

func validateCheckout(req model.CheckoutRequest) error {
	var result *multierror.Error
	if len(req.Items) == 0 {
		result = multierror.Append(result, errors.New("items are required"))
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			result = multierror.Append(result, fmt.Errorf("items[%d].productId is required", i))
		}
		if item.Quantity < 1 {
			result = multierror.Append(result, fmt.Errorf("items[%d].quantity must be at least 1", i))
		}
	}
	shipping := model.ShippingInfo{
		FullName:      strings.TrimSpace(req.ShippingInfo.FullName),
		Address:       strings.TrimSpace(req.ShippingInfo.Address),
		ContactNumber: strings.TrimSpace(req.ShippingInfo.ContactNumber),
	}
	if err := validate.Struct(shipping); err != nil {
		result = multierror.Append(result, fieldErrors(err))
	}
	if err := result.ErrorOrNil(); err != nil {
		message := "Items and complete shipping information are required"
		if len(req.Items) == 0 {
			message = "Items are required"
		}
		return model.Validation(message, details(err)...)
	}
	return nil
}

func (s *OrderService) MyOrders(ctx context.Context, actor model.Principal) ([]model.OrderView, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return s.views(ctx, orders)
}

func (s *OrderService) AllOrders(ctx context.Context, actor model.Principal) ([]model.OrderView, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, storeErr(err, "")
	}
	return s.views(ctx, orders)
}

// AdminUpdateStatus sets any valid status. In strict mode the transition must be legal.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, actor model.Principal, orderID string, status model.OrderStatus) (*model.Order, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, model.Validation("Invalid order status", fmt.Sprintf("status must be one of %v", model.OrderStatuses))
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "Order not found")
	}
	if s.opts.StrictTransitions && !CanTransition(order.Status, status) {
		return nil, model.InvalidState(fmt.Sprintf("Cannot change order status from %s to %s", order.Status, status))
	}
	return s.setStatus(ctx, order, status)
}

// MarkReceived lets the buyer confirm delivery of an order that is out for delivery.
func (s *OrderService) MarkReceived(ctx context.Context, actor model.Principal, orderID string) (*model.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "Order not found")
	}
	if order.UserID != actor.UserID {
		return nil, model.NotFound("Order not found")
	}
	if order.Status != model.OrderStatusForDelivery {
		return nil, model.InvalidState(fmt.Sprintf("Order can only be marked as received while %q, current status is %q", model.OrderStatusForDelivery, order.Status))
	}
	return s.setStatus(ctx, order, model.OrderStatusDelivered)
}

func (s *OrderService) setStatus(ctx context.Context, order *model.Order, status model.OrderStatus) (*model.Order, error) {
	from := order.Status
	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, storeErr(err, "Order not found")
	}
	order.Status = status
	order.UpdatedAt = s.now().UTC()
	logrus.WithFields(logrus.Fields{"orderId": order.ID, "from": from, "to": status}).Info("order status changed")
	if err := s.publisher.OrderStatusChanged(ctx, order, from); err != nil {
		logrus.Errorf("setStatus: failed to publish order event err = %v", err)
	}
	return order, nil
}

// views prices each line from the live catalog. Lines whose product is gone count as zero.
func (s *OrderService) views(ctx context.Context, orders []model.Order) ([]model.OrderView, error) {
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, o := range orders {
		for _, item := range o.Items {
			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				ids = append(ids, item.ProductID)
			}
		}
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "")
	}

	out := make([]model.OrderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, View(o, products))
	}
	return out, nil
}

// View joins one order against the given products.
func View(o model.Order, products map[string]*model.Product) model.OrderView {
	view := model.OrderView{Order: o, Lines: make([]model.OrderLine, 0, len(o.Items)), Total: decimal.Zero}
	for _, item := range o.Items {
		line := model.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity}
		if p, ok := products[item.ProductID]; ok {
			line.Name = p.Name
			line.Price = p.Price
		} else {
			line.Name = model.DeletedProductName
			line.Price = decimal.Zero
			line.ProductDeleted = true
		}
		line.Subtotal = line.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Total = view.Total.Add(line.Subtotal)
		view.Lines = append(view.Lines, line)
	}
	return view
}
