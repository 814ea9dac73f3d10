package ordering

import (
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderItem is one line of an order: an offer and a quantity.
// An offer appears at most once per order.
type OrderItem struct {
	shared.BaseEntity
	OrderID       int64
	ProductInfoID int64
	Quantity      int

	// ProductInfo is populated by read queries only
	ProductInfo *catalog.ProductInfo
}

// NewOrderItem creates a new order line
func NewOrderItem(orderID, productInfoID int64, quantity int) (*OrderItem, error) {
	if productInfoID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product is required")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	return &OrderItem{
		BaseEntity:    shared.NewBaseEntity(),
		OrderID:       orderID,
		ProductInfoID: productInfoID,
		Quantity:      quantity,
	}, nil
}

// SetQuantity changes the line quantity
func (i *OrderItem) SetQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}
	i.Quantity = quantity
	i.Touch()
	return nil
}

// TotalPrice returns quantity times the current offer price.
// Lines without a loaded offer contribute zero.
func (i *OrderItem) TotalPrice() decimal.Decimal {
	if i.ProductInfo == nil {
		return decimal.Zero
	}
	return i.ProductInfo.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
