package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

const (
	MaxParameterNameLength  = 40
	MaxParameterValueLength = 100
)

// Parameter is a named product characteristic such as "color" or "weight"
type Parameter struct {
	shared.BaseEntity
	Name string
}

// NewParameter creates a new parameter
func NewParameter(name string) (*Parameter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Parameter name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxParameterNameLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "Parameter name cannot exceed 40 characters")
	}
	return &Parameter{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
	}, nil
}

// ProductParameter is the value of a parameter for one offer.
// There is at most one value per (offer, parameter) pair.
type ProductParameter struct {
	shared.BaseEntity
	ProductInfoID int64
	ParameterID   int64
	Value         string

	Parameter *Parameter
}

// NewProductParameter creates a parameter value for an offer
func NewProductParameter(productInfoID, parameterID int64, value string) (*ProductParameter, error) {
	if productInfoID <= 0 || parameterID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Offer and parameter are required")
	}
	pp := &ProductParameter{
		BaseEntity:    shared.NewBaseEntity(),
		ProductInfoID: productInfoID,
		ParameterID:   parameterID,
	}
	if err := pp.SetValue(value); err != nil {
		return nil, err
	}
	return pp, nil
}

// SetValue overwrites the value. Values longer than the column are rejected, not truncated.
func (pp *ProductParameter) SetValue(value string) error {
	if utf8.RuneCountInString(value) > MaxParameterValueLength {
		return shared.NewDomainError("INVALID_INPUT", "Parameter value cannot exceed 100 characters")
	}
	pp.Value = value
	pp.Touch()
	return nil
}
