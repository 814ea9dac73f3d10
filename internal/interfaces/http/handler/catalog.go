package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/shop/backend/internal/application/catalog"
)

// CatalogHandler serves the read side of the catalog
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.Service
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalogapp.Service) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories godoc
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.CategoryResponse}
// @Router       /categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, categories, len(categories))
}

// ListShops godoc
// @Summary      List shops accepting orders
// @Tags         catalog
// @Produce      json
// @Success      200 {object} dto.Response{data=[]catalogapp.ShopResponse}
// @Router       /shops [get]
func (h *CatalogHandler) ListShops(c *gin.Context) {
	shops, err := h.catalogService.ListShops(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, shops, len(shops))
}

// SearchProducts godoc
// @Summary      Search offers
// @Description  Offers of active shops, optionally filtered by shop and category
// @Tags         catalog
// @Produce      json
// @Param        shop_id     query int false "Shop ID"
// @Param        category_id query int false "Category ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.ProductInfoResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products [get]
func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	var filter catalogapp.ProductSearchFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, err := h.catalogService.SearchProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, products, len(products))
}

// GetProduct godoc
// @Summary      Get an offer
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Offer ID"
// @Success      200 {object} dto.Response{data=catalogapp.ProductInfoResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
