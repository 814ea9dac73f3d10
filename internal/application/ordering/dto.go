package ordering

import (
	"encoding/json"
	"time"

	catalogapp "github.com/shop/backend/internal/application/catalog"
	"github.com/shop/backend/internal/application/common"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// ==================== Basket requests ====================

// BasketItemInput is one line to add to the basket
type BasketItemInput struct {
	ProductInfo int64 `json:"product_info"`
	Quantity    int   `json:"quantity"`
}

// AddItemsRequest represents a request to add lines to the basket
type AddItemsRequest struct {
	Items common.FlexibleList[BasketItemInput] `json:"items" binding:"required"`
}

// BasketItemUpdate changes the quantity of a basket line.
// Both fields are kept raw: entries that are not integer pairs are skipped.
type BasketItemUpdate struct {
	ID       json.RawMessage `json:"id"`
	Quantity json.RawMessage `json:"quantity"`
}

// values returns the line id and quantity when both are JSON integers
func (u BasketItemUpdate) values() (int64, int, bool) {
	id, ok := common.StrictInt(u.ID)
	if !ok {
		return 0, 0, false
	}
	qty, ok := common.StrictInt(u.Quantity)
	if !ok {
		return 0, 0, false
	}
	return id, int(qty), true
}

// UpdateItemsRequest represents a request to change basket quantities
type UpdateItemsRequest struct {
	Items common.FlexibleList[BasketItemUpdate] `json:"items" binding:"required"`
}

// DeleteItemsRequest carries a comma separated list of line ids
type DeleteItemsRequest struct {
	Items string `json:"items" form:"items" binding:"required"`
}

// CheckoutRequest places a basket with a delivery contact
type CheckoutRequest struct {
	ID      common.FlexibleID `json:"id" binding:"required"`
	Contact common.FlexibleID `json:"contact" binding:"required"`
}

// ==================== Order responses ====================

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          int64                          `json:"id"`
	ProductInfo catalogapp.ProductInfoResponse `json:"product_info"`
	Quantity    int                            `json:"quantity"`
	TotalPrice  decimal.Decimal                `json:"total_price"`
}

// OrderResponse represents a basket or an order in API responses
type OrderResponse struct {
	ID           int64               `json:"id"`
	State        string              `json:"state"`
	ContactID    *int64              `json:"contact,omitempty"`
	OrderedItems []OrderItemResponse `json:"ordered_items"`
	TotalSum     decimal.Decimal     `json:"total_sum"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *ordering.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		var product catalogapp.ProductInfoResponse
		if item.ProductInfo != nil {
			product = catalogapp.ToProductInfoResponse(item.ProductInfo)
		} else {
			product = catalogapp.ProductInfoResponse{ID: item.ProductInfoID}
		}
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductInfo: product,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice(),
		}
	}
	return OrderResponse{
		ID:           o.ID,
		State:        string(o.State),
		ContactID:    o.ContactID,
		OrderedItems: items,
		TotalSum:     o.TotalSum(),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of domain Orders
func ToOrderResponses(orders []ordering.Order) []OrderResponse {
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses
}
