package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService struct {
	carts    CartRepository
	products ProductRepository
	now      func() time.Time
}

func NewCartService(carts CartRepository, products ProductRepository) *CartService {
	return &CartService{carts: carts, products: products, now: time.Now}
}

// GetCart returns the user's cart, creating an empty one on first access.
func (s *CartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
		if err := s.save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return cart, nil
}

// AddItem merges quantity into an existing line for productID or appends a new line
// priced at priceOverride, falling back to the product's effective price.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity *int, priceOverride *decimal.Decimal) (*model.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, model.Validation("Product ID is required")
	}
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if qty < 1 {
		return nil, model.Validation("Quantity must be at least 1")
	}
	if priceOverride != nil && priceOverride.IsNegative() {
		return nil, model.Validation("Price must not be negative")
	}
	if priceOverride != nil && !cents(*priceOverride) {
		return nil, model.Validation("Price must have at most 2 decimal places")
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, storeErr(err, "Product not found")
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.CartItems {
		if cart.CartItems[i].ProductID == productID {
			cart.CartItems[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		price := EffectivePrice(product)
		if priceOverride != nil {
			price = *priceOverride
		}
		cart.CartItems = append(cart.CartItems, model.CartItem{ProductID: productID, Quantity: qty, Price: price})
	}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, productID string, newQuantity int) (*model.Cart, error) {
	if newQuantity < 1 {
		return nil, model.Validation("Quantity must be at least 1")
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range cart.CartItems {
		if cart.CartItems[i].ProductID == productID {
			cart.CartItems[i].Quantity = newQuantity
			found = true
			break
		}
	}
	if !found {
		return nil, model.NotFound("Item not found in cart")
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops the line for productID. Removing an absent product succeeds.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*model.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := cart.CartItems[:0]
	for _, item := range cart.CartItems {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.CartItems = kept
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	cart.CartItems = []model.CartItem{}
	if cart.ID == "" {
		cart.ID = uuid.NewString()
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// load returns the stored cart with its total recomputed, or an unsaved empty cart.
func (s *CartService) load(ctx context.Context, userID string) (*model.Cart, error) {
	if userID == "" {
		return nil, model.Unauthorized("No Token Provided")
	}
	cart, err := s.carts.GetByUser(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		now := s.now().UTC()
		return &model.Cart{UserID: userID, CartItems: []model.CartItem{}, TotalPrice: decimal.Zero, CreatedAt: now, UpdatedAt: now}, nil
	}
	if err != nil {
		return nil, storeErr(err, "Cart not found")
	}
	if cart.CartItems == nil {
		cart.CartItems = []model.CartItem{}
	}
	cart.TotalPrice = cart.Sum()
	return cart, nil
}

func (s *CartService) save(ctx context.Context, cart *model.Cart) error {
	cart.TotalPrice = cart.Sum()
	cart.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, cart); err != nil {
		return storeErr(err, "Cart not found")
	}
	return nil
}
