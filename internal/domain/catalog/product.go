package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

const MaxProductNameLength = 80

// Product is a catalog item independent of any shop.
// A product is identified by its name within a category.
type Product struct {
	shared.BaseEntity
	Name       string
	CategoryID int64

	// Category is populated by read queries only
	Category *Category
}

// NewProduct creates a new product in a category
func NewProduct(name string, categoryID int64) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxProductNameLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name cannot exceed 80 characters")
	}
	if categoryID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product category is required")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		CategoryID: categoryID,
	}, nil
}
