package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	MaxExternalIDLength = 64
	MaxModelLength      = 80
)

// ProductInfo is a shop's offer for a product: price, recommended retail
// price and stock. It is the unit a buyer puts into a basket.
type ProductInfo struct {
	shared.BaseEntity
	ProductID  int64
	ShopID     int64
	ExternalID string
	Model      string
	Price      decimal.Decimal
	PriceRRC   decimal.Decimal
	Quantity   int

	// Populated by read queries only
	Product    *Product
	Shop       *Shop
	Parameters []ProductParameter
}

// NewProductInfo creates an empty offer of a product by a shop
func NewProductInfo(productID, shopID int64, externalID string) (*ProductInfo, error) {
	externalID = strings.TrimSpace(externalID)
	if productID <= 0 || shopID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product and shop are required")
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "External id cannot be empty")
	}
	if len(externalID) > MaxExternalIDLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "External id cannot exceed 64 characters")
	}

	return &ProductInfo{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		ShopID:     shopID,
		ExternalID: externalID,
		Price:      decimal.Zero,
		PriceRRC:   decimal.Zero,
	}, nil
}

// UpdateOffer overwrites the commercial fields of the offer
func (pi *ProductInfo) UpdateOffer(model string, price, priceRRC decimal.Decimal, quantity int) error {
	if utf8.RuneCountInString(model) > MaxModelLength {
		return shared.NewDomainError("INVALID_INPUT", "Model cannot exceed 80 characters")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Price cannot be negative")
	}
	if priceRRC.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Recommended retail price cannot be negative")
	}
	if quantity < 0 {
		return shared.NewDomainError("INVALID_INPUT", "Quantity cannot be negative")
	}

	pi.Model = model
	pi.Price = price.Round(2)
	pi.PriceRRC = priceRRC.Round(2)
	pi.Quantity = quantity
	pi.Touch()
	return nil
}

// ParameterMap returns the offer's parameters keyed by parameter name
func (pi *ProductInfo) ParameterMap() map[string]string {
	params := make(map[string]string, len(pi.Parameters))
	for _, p := range pi.Parameters {
		if p.Parameter != nil {
			params[p.Parameter.Name] = p.Value
		}
	}
	return params
}
