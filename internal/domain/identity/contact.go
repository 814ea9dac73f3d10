package identity

import (
	"strings"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

// Contact is a delivery address with a phone number
type Contact struct {
	shared.BaseEntity
	UserID    int64
	City      string
	Street    string
	House     string
	Structure string
	Building  string
	Apartment string
	Phone     string
}

// ContactDetails carries the editable fields of a contact.
// A nil field is left unchanged by Apply.
type ContactDetails struct {
	City      *string
	Street    *string
	House     *string
	Structure *string
	Building  *string
	Apartment *string
	Phone     *string
}

// NewContact creates a contact; city, street and phone are required
func NewContact(userID int64, details ContactDetails) (*Contact, error) {
	if userID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "User is required")
	}
	c := &Contact{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
	}
	if err := c.Apply(details); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply updates the given fields and revalidates the contact
func (c *Contact) Apply(d ContactDetails) error {
	next := *c
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&next.City, d.City)
	set(&next.Street, d.Street)
	set(&next.House, d.House)
	set(&next.Structure, d.Structure)
	set(&next.Building, d.Building)
	set(&next.Apartment, d.Apartment)
	set(&next.Phone, d.Phone)

	if err := next.validate(); err != nil {
		return err
	}
	next.Touch()
	*c = next
	return nil
}

func (c *Contact) validate() error {
	if c.City == "" || c.Street == "" || c.Phone == "" {
		return shared.NewDomainError("INVALID_INPUT", "City, street and phone are required")
	}
	limits := []struct {
		name  string
		value string
		max   int
	}{
		{"city", c.City, 50},
		{"street", c.Street, 100},
		{"house", c.House, 15},
		{"structure", c.Structure, 15},
		{"building", c.Building, 15},
		{"apartment", c.Apartment, 15},
		{"phone", c.Phone, 20},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return shared.NewDomainError("INVALID_INPUT", "Contact field "+l.name+" is too long")
		}
	}
	return nil
}
