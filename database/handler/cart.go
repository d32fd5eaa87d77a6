package handler

import (
	"net/http"

	"storefront/middleware"
	"storefront/model"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCart(c *gin.Context) {
	h.respondCart(c)(h.Carts.GetCart(c.Request.Context(), middleware.UserContextData(c).UserID))
}

func (h *Handler) AddToCart(c *gin.Context) {
	var body model.AddToCartRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	userID := middleware.UserContextData(c).UserID
	h.respondCart(c)(h.Carts.AddItem(c.Request.Context(), userID, body.ProductID, body.Quantity, body.Price))
}

func (h *Handler) UpdateCartQuantity(c *gin.Context) {
	var body model.UpdateCartQuantityRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	userID := middleware.UserContextData(c).UserID
	h.respondCart(c)(h.Carts.UpdateQuantity(c.Request.Context(), userID, body.ProductID, body.NewQuantity))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	userID := middleware.UserContextData(c).UserID
	h.respondCart(c)(h.Carts.RemoveItem(c.Request.Context(), userID, c.Param("productId")))
}

func (h *Handler) ClearCart(c *gin.Context) {
	h.respondCart(c)(h.Carts.Clear(c.Request.Context(), middleware.UserContextData(c).UserID))
}

func (h *Handler) respondCart(c *gin.Context) func(*model.Cart, error) {
	return func(cart *model.Cart, err error) {
		if err != nil {
			utils.RespondError(c, err, "Server error")
			return
		}
		utils.RespondJSON(c, http.StatusOK, cart)
	}
}
