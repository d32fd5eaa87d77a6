package handler

import (
	"net/http"

	"storefront/middleware"
	"storefront/model"
	"storefront/utils"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

type orderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

// Checkout creates an order (201). Replaying an Idempotency-Key returns the stored order (200).
func (h *Handler) Checkout(c *gin.Context) {
	var body model.CheckoutRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	order, replayed, err := h.Orders.Checkout(c.Request.Context(), middleware.UserContextData(c), body, c.GetHeader(idempotencyHeader))
	if err != nil {
		utils.RespondError(c, err, "Failed to place order")
		return
	}
	if replayed {
		utils.RespondJSON(c, http.StatusOK, orderResponse{Message: "Order already placed", Order: order})
		return
	}
	utils.RespondJSON(c, http.StatusCreated, orderResponse{Message: "Order placed successfully", Order: order})
}

func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.MyOrders(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch orders")
		return
	}
	utils.RespondJSON(c, http.StatusOK, orders)
}

func (h *Handler) GetAllOrders(c *gin.Context) {
	orders, err := h.Orders.AllOrders(c.Request.Context(), middleware.UserContextData(c))
	if err != nil {
		utils.RespondError(c, err, "Failed to fetch orders")
		return
	}
	utils.RespondJSON(c, http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var body model.UpdateStatusRequest
	if err := utils.ParseBody(c, &body); err != nil {
		utils.RespondError(c, err, "Failed to parse request body")
		return
	}
	order, err := h.Orders.AdminUpdateStatus(c.Request.Context(), middleware.UserContextData(c), c.Param("orderId"), body.Status)
	if err != nil {
		utils.RespondError(c, err, "Failed to update order status")
		return
	}
	utils.RespondJSON(c, http.StatusOK, orderResponse{Message: "Order status updated", Order: order})
}

func (h *Handler) MarkReceived(c *gin.Context) {
	order, err := h.Orders.MarkReceived(c.Request.Context(), middleware.UserContextData(c), c.Param("orderId"))
	if err != nil {
		utils.RespondError(c, err, "Failed to update order status")
		return
	}
	utils.RespondJSON(c, http.StatusOK, orderResponse{Message: "Order marked as received", Order: order})
}
