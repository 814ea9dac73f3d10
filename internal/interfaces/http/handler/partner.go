package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/application/partner"
	"github.com/shop/backend/internal/interfaces/http/dto"
)

// DefaultMaxUploadSize caps an uploaded price list
const DefaultMaxUploadSize int64 = 10 << 20

const uploadFormField = "file"

// PartnerHandler serves the shop-owner endpoints
type PartnerHandler struct {
	BaseHandler
	partnerService *partner.Service
	orderService   *ordering.Service
	maxUploadSize  int64
}

// NewPartnerHandler creates a new partner handler. A non-positive maxUploadSize
// falls back to DefaultMaxUploadSize.
func NewPartnerHandler(partnerService *partner.Service, orderService *ordering.Service, maxUploadSize int64) *PartnerHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &PartnerHandler{
		partnerService: partnerService,
		orderService:   orderService,
		maxUploadSize:  maxUploadSize,
	}
}

// GetState godoc
// @Summary      Get the partner's shop
// @Tags         partner
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=catalogapp.ShopResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /partner/state [get]
func (h *PartnerHandler) GetState(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	shop, err := h.partnerService.GetState(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shop)
}

// SetState godoc
// @Summary      Switch order intake
// @Description  true, 1, yes and on enable order intake, anything else disables it
// @Tags         partner
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body partner.SetStateRequest true "State"
// @Success      200 {object} dto.Response{data=catalogapp.ShopResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /partner/state [post]
func (h *PartnerHandler) SetState(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req partner.SetStateRequest
	if !h.bind(c, &req) {
		return
	}

	shop, err := h.partnerService.SetState(c.Request.Context(), userID, req.State)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shop)
}

// ListOrders godoc
// @Summary      List orders containing the partner's offers
// @Tags         partner
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=[]ordering.OrderResponse}
// @Router       /partner/orders [get]
func (h *PartnerHandler) ListOrders(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.ListPartnerOrders(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, orders, len(orders))
}

// UpdateFromURL godoc
// @Summary      Import a price list from a URL
// @Description  Downloads a YAML price list, imports it and keeps the URL for scheduled refreshes
// @Tags         partner
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body partner.UpdateFromURLRequest true "Price list URL"
// @Success      200 {object} dto.Response{data=importapp.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /partner/update [post]
func (h *PartnerHandler) UpdateFromURL(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req partner.UpdateFromURLRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.partnerService.UpdateFromURL(c.Request.Context(), userID, req.URL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Import godoc
// @Summary      Upload a price list
// @Description  The format is chosen by file extension: yaml, yml, csv or json
// @Tags         partner
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Price list"
// @Success      200 {object} dto.Response{data=importapp.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /partner/import [post]
func (h *PartnerHandler) Import(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(uploadFormField)
	if err != nil {
		h.BadRequest(c, "Price list file is required in form field \"file\"")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge,
			fmt.Sprintf("Price list exceeds %d bytes", h.maxUploadSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeFileTooLarge,
			fmt.Sprintf("Price list exceeds %d bytes", h.maxUploadSize))
		return
	}

	result, err := h.partnerService.Import(c.Request.Context(), userID, fileHeader.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportHistory godoc
// @Summary      List price list imports
// @Tags         partner
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Max entries (1-100)"
// @Success      200 {object} dto.Response{data=[]importapp.HistoryResponse}
// @Router       /partner/imports [get]
func (h *PartnerHandler) ImportHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query partner.HistoryQuery
	if !h.bindQuery(c, &query) {
		return
	}

	history, err := h.partnerService.ImportHistory(c.Request.Context(), userID, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, history, len(history))
}
