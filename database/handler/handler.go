package handler

import (
	"io"

	"storefront/service"
)

// ImageStore validates, names and locates uploaded product images.
type ImageStore interface {
	Check(r io.Reader) error
	Name(original string) string
	Path(name string) string
	Remove(name string) error
}

type Handler struct {
	Users   *service.UserService
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	Images  ImageStore
}

type dataResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}
