package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

const (
	MaxShopNameLength = 50
	MaxShopURLLength  = 200
)

// Shop is a partner storefront that publishes a price list.
// A shop may be owned by at most one user, and each user owns at most one shop.
type Shop struct {
	shared.BaseAggregateRoot
	Name   string
	URL    string
	UserID *int64
	State  bool
}

// NewShop creates a new shop that accepts orders
func NewShop(name string) (*Shop, error) {
	name = strings.TrimSpace(name)
	if err := validateShopName(name); err != nil {
		return nil, err
	}

	return &Shop{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		State:             true,
	}, nil
}

// Rename changes the shop's display name
func (s *Shop) Rename(name string) error {
	name = strings.TrimSpace(name)
	if err := validateShopName(name); err != nil {
		return err
	}
	if s.Name != name {
		s.Name = name
		s.Touch()
	}
	return nil
}

// SetOwner assigns the shop to a user
func (s *Shop) SetOwner(userID int64) error {
	if userID <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Shop owner is required")
	}
	s.UserID = &userID
	s.Touch()
	return nil
}

// IsOwnedBy reports whether the given user owns the shop
func (s *Shop) IsOwnedBy(userID int64) bool {
	return s.UserID != nil && *s.UserID == userID
}

// SetURL stores the price-list location of the shop
func (s *Shop) SetURL(url string) error {
	if len(url) > MaxShopURLLength {
		return shared.NewDomainError("INVALID_INPUT", "Shop URL cannot exceed 200 characters")
	}
	s.URL = url
	s.Touch()
	return nil
}

// SetState switches order intake on or off
func (s *Shop) SetState(state bool) {
	if s.State == state {
		return
	}
	s.State = state
	s.Touch()
	s.AddDomainEvent(NewShopStateChangedEvent(s))
}

// IsAcceptingOrders reports whether the shop's offers are visible to buyers
func (s *Shop) IsAcceptingOrders() bool {
	return s.State
}

func validateShopName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Shop name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxShopNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Shop name cannot exceed 50 characters")
	}
	return nil
}
