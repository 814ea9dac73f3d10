package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

const MaxCategoryNameLength = 40

// Category groups products. Categories are shared between shops; the
// shop-category association is many-to-many.
type Category struct {
	shared.BaseEntity
	Name string
}

// NewCategory creates a new category
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// NewCategoryWithID creates a category that keeps an id assigned by a price-list feed
func NewCategoryWithID(id int64, name string) (*Category, error) {
	if id <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Category id must be positive")
	}
	category, err := NewCategory(name)
	if err != nil {
		return nil, err
	}
	category.ID = id
	return category, nil
}

// Rename changes the category name
func (c *Category) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	c.Name = name
	c.Touch()
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Category name cannot exceed 40 characters")
	}
	return nil
}
