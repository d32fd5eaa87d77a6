package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	MobileNo  string `json:"mobileNo"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message string `json:"message"`
	Access  string `json:"access"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ProductInput carries the fields of a product create request.
type ProductInput struct {
	Name          string          `validate:"required"`
	Description   string          `validate:"required"`
	Price         decimal.Decimal `validate:"-"`
	Stock         int             `validate:"gte=0"`
	Category      string
	Brand         string `validate:"required"`
	ImageFilename string
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Category    *string          `json:"category"`
	Brand       *string          `json:"brand"`
}

type SaleRequest struct {
	IsOnSale           bool            `json:"isOnSale"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	SaleStart          string          `json:"saleStart"`
	SaleEnd            string          `json:"saleEnd"`
}

type SaleInput struct {
	IsOnSale           bool
	DiscountPercentage decimal.Decimal
	SaleStart          *time.Time
	SaleEnd            *time.Time
}

type SearchByNameRequest struct {
	Name string `json:"name"`
}

type SearchByPriceRequest struct {
	MinPrice *decimal.Decimal `json:"minPrice"`
	MaxPrice *decimal.Decimal `json:"maxPrice"`
}

type AddToCartRequest struct {
	ProductID string           `json:"productId"`
	Quantity  *int             `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type UpdateCartQuantityRequest struct {
	ProductID   string `json:"productId"`
	NewQuantity int    `json:"newQuantity"`
}

type CheckoutRequest struct {
	Items        []OrderItem  `json:"items"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
