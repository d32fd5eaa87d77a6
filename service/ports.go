package service

import (
	"context"

	"storefront/model"
)

// ProductRepository persists catalog records. Get, Update, SetActive and Delete
// return model.ErrNotFound for unknown ids.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	Get(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*model.Product, error)
	List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	Distinct(ctx context.Context, field model.ProductField, activeOnly bool) ([]string, error)
	Update(ctx context.Context, p *model.Product) error
	SetActive(ctx context.Context, id string, active bool) (*model.Product, error)
	Delete(ctx context.Context, id string) (*model.Product, error)
}

// UserRepository persists accounts and their liked-product sets. Create returns
// model.ErrDuplicate when the email is taken.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	SetAdmin(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// AddLike reports false when the product was already liked.
	AddLike(ctx context.Context, userID, productID string) (bool, error)
	// RemoveLike reports false when the product was not liked.
	RemoveLike(ctx context.Context, userID, productID string) (bool, error)
}

type CartRepository interface {
	GetByUser(ctx context.Context, userID string) (*model.Cart, error)
	// Save replaces the stored cart (lines and total) for cart.UserID.
	Save(ctx context.Context, cart *model.Cart) error
}

type OrderRepository interface {
	// Create inserts o. With clearCart the owner's cart is emptied in the same write.
	Create(ctx context.Context, o *model.Order, clearCart bool) error
	Get(ctx context.Context, id string) (*model.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// Store bundles the repositories one backend provides.
type Store interface {
	Products() ProductRepository
	Users() UserRepository
	Carts() CartRepository
	Orders() OrderRepository
}

// EventPublisher receives order lifecycle notifications.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *model.Order) error
	OrderStatusChanged(ctx context.Context, o *model.Order, from model.OrderStatus) error
}
