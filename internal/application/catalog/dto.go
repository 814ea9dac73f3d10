package catalog

import (
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ShopResponse represents a shop in API responses
type ShopResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	State bool   `json:"state"`
}

// ProductResponse is the shop-independent part of an offer
type ProductResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// ParameterValueResponse is one characteristic of an offer
type ParameterValueResponse struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// ProductInfoResponse represents a shop offer in API responses
type ProductInfoResponse struct {
	ID         int64                    `json:"id"`
	ExternalID string                   `json:"external_id"`
	Model      string                   `json:"model"`
	Product    ProductResponse          `json:"product"`
	Shop       ShopResponse             `json:"shop"`
	Quantity   int                      `json:"quantity"`
	Price      decimal.Decimal          `json:"price"`
	PriceRRC   decimal.Decimal          `json:"price_rrc"`
	Parameters []ParameterValueResponse `json:"product_parameters"`
}

// ProductSearchFilter holds the optional query filters of a product search
type ProductSearchFilter struct {
	ShopID     int64 `form:"shop_id" binding:"omitempty,min=1"`
	CategoryID int64 `form:"category_id" binding:"omitempty,min=1"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}

// ToShopResponse converts a domain Shop to ShopResponse
func ToShopResponse(s *catalog.Shop) ShopResponse {
	return ShopResponse{
		ID:    s.ID,
		Name:  s.Name,
		URL:   s.URL,
		State: s.State,
	}
}

// ToProductInfoResponse converts a loaded ProductInfo to its response form.
// Relations that were not loaded are left zero.
func ToProductInfoResponse(pi *catalog.ProductInfo) ProductInfoResponse {
	resp := ProductInfoResponse{
		ID:         pi.ID,
		ExternalID: pi.ExternalID,
		Model:      pi.Model,
		Quantity:   pi.Quantity,
		Price:      pi.Price,
		PriceRRC:   pi.PriceRRC,
		Product:    ProductResponse{ID: pi.ProductID},
		Shop:       ShopResponse{ID: pi.ShopID},
		Parameters: make([]ParameterValueResponse, 0, len(pi.Parameters)),
	}
	if pi.Product != nil {
		resp.Product.Name = pi.Product.Name
		if pi.Product.Category != nil {
			resp.Product.Category = pi.Product.Category.Name
		}
	}
	if pi.Shop != nil {
		resp.Shop = ToShopResponse(pi.Shop)
	}
	for _, pp := range pi.Parameters {
		if pp.Parameter == nil {
			continue
		}
		resp.Parameters = append(resp.Parameters, ParameterValueResponse{
			Parameter: pp.Parameter.Name,
			Value:     pp.Value,
		})
	}
	return resp
}

// ToProductInfoResponses converts a slice of offers
func ToProductInfoResponses(items []catalog.ProductInfo) []ProductInfoResponse {
	responses := make([]ProductInfoResponse, len(items))
	for i := range items {
		responses[i] = ToProductInfoResponse(&items[i])
	}
	return responses
}
