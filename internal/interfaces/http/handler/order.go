package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/application/ordering"
)

// OrderHandler lists placed orders and checks out the basket
type OrderHandler struct {
	BaseHandler
	orderService *ordering.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *ordering.Service) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// List godoc
// @Summary      List placed orders
// @Tags         order
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse}
// @Router       /order [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, orders, len(orders))
}

// Checkout godoc
// @Summary      Place the basket as an order
// @Description  Moves the basket to state new and attaches the delivery contact
// @Tags         order
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ordering.CheckoutRequest true "Basket and contact ids"
// @Success      200 {object} dto.Response{data=ordering.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /order [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req ordering.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Checkout(c.Request.Context(), userID, req.ID.Int64(), req.Contact.Int64())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
