package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/interfaces/http/dto"
)

// BasketHandler manages the caller's basket
type BasketHandler struct {
	BaseHandler
	orderService *ordering.Service
}

// NewBasketHandler creates a new basket handler
func NewBasketHandler(orderService *ordering.Service) *BasketHandler {
	return &BasketHandler{orderService: orderService}
}

// Get godoc
// @Summary      Get the basket
// @Description  Returns the basket with line totals computed from current prices
// @Tags         basket
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse}
// @Router       /basket [get]
func (h *BasketHandler) Get(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	basket, err := h.orderService.GetBasket(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, basket)
}

// Add godoc
// @Summary      Add items to the basket
// @Description  items may be a list or a JSON encoded string of a list
// @Tags         basket
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ordering.AddItemsRequest true "Items"
// @Success      201 {object} dto.Response{data=dto.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /basket [post]
func (h *BasketHandler) Add(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req ordering.AddItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	created, err := h.orderService.AddItems(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.CountResponse{Count: created})
}

// Update godoc
// @Summary      Change basket quantities
// @Tags         basket
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ordering.UpdateItemsRequest true "Item ids and quantities"
// @Success      200 {object} dto.Response{data=dto.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /basket [put]
func (h *BasketHandler) Update(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req ordering.UpdateItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	updated, err := h.orderService.UpdateItems(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: updated})
}

// Delete godoc
// @Summary      Remove basket items
// @Description  items is a comma separated list of basket item ids
// @Tags         basket
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ordering.DeleteItemsRequest true "Item ids"
// @Success      200 {object} dto.Response{data=dto.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /basket [delete]
func (h *BasketHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req ordering.DeleteItemsRequest
	if !h.bind(c, &req) {
		return
	}

	deleted, err := h.orderService.DeleteItems(c.Request.Context(), userID, req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: deleted})
}
