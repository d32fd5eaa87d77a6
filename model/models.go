package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const DefaultCategory = "General"

// DeletedProductName is shown for order or cart lines whose product no longer exists.
const DeletedProductName = "Product Deleted"

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusForDelivery OrderStatus = "for delivery"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type Sale struct {
	IsOnSale           bool             `json:"isOnSale" db:"is_on_sale"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage" db:"discount_percentage"`
	SalePrice          *decimal.Decimal `json:"salePrice" db:"sale_price"`
	SaleStart          *time.Time       `json:"saleStart" db:"sale_start"`
	SaleEnd            *time.Time       `json:"saleEnd" db:"sale_end"`
}

type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Stock         int             `json:"stock" db:"stock"`
	Category      string          `json:"category" db:"category"`
	Brand         string          `json:"brand" db:"brand"`
	ImageFilename string          `json:"imageFilename" db:"image_filename"`
	IsActive      bool            `json:"isActive" db:"is_active"`
	Sale          Sale            `json:"sale"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

type User struct {
	ID            string    `json:"id" db:"id"`
	FirstName     string    `json:"firstName" db:"first_name"`
	LastName      string    `json:"lastName" db:"last_name"`
	Email         string    `json:"email" db:"email"`
	Password      string    `json:"-" db:"password"`
	MobileNo      string    `json:"mobileNo" db:"mobile_no"`
	IsAdmin       bool      `json:"isAdmin" db:"is_admin"`
	LikedProducts []string  `json:"likedProducts" db:"-"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Likes reports whether productID is in the user's liked set.
func (u *User) Likes(productID string) bool {
	for _, id := range u.LikedProducts {
		if id == productID {
			return true
		}
	}
	return false
}

type CartItem struct {
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

type Cart struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"userId" db:"user_id"`
	CartItems  []CartItem      `json:"cartItems" db:"-"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
	CreatedAt  time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time       `json:"updatedAt" db:"updated_at"`
}

type OrderItem struct {
	ProductID string `json:"productId" db:"product_id"`
	Quantity  int    `json:"quantity" db:"quantity"`
}

type ShippingInfo struct {
	FullName      string `json:"fullName" db:"shipping_full_name" validate:"required"`
	Address       string `json:"address" db:"shipping_address" validate:"required"`
	ContactNumber string `json:"contactNumber" db:"shipping_contact_number" validate:"required"`
}

type Order struct {
	ID             string       `json:"id" db:"id"`
	Reference      string       `json:"reference" db:"reference"`
	UserID         string       `json:"userId" db:"user_id"`
	Items          []OrderItem  `json:"items" db:"-"`
	ShippingInfo   ShippingInfo `json:"shippingInfo"`
	Status         OrderStatus  `json:"status" db:"status"`
	IdempotencyKey string       `json:"-" db:"idempotency_key"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`
}

// Principal is the identity attached to a request after token verification.
type Principal struct {
	UserID  string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type ProductField string

const (
	ProductFieldCategory ProductField = "category"
	ProductFieldBrand    ProductField = "brand"
)

// ProductFilter narrows product listings. Zero values mean "no constraint".
type ProductFilter struct {
	ActiveOnly   bool
	OnSale       bool
	Category     string
	Brand        string
	NameContains string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
}
