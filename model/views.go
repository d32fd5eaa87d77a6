package model

import "github.com/shopspring/decimal"

type OrderLine struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ProductDeleted bool            `json:"productDeleted"`
}

// OrderView is an order joined against the live catalog at read time.
type OrderView struct {
	Order
	Lines []OrderLine     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type UserDetails struct {
	User
	LikedProducts []Product `json:"likedProducts"`
}
