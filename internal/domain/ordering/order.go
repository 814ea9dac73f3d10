package ordering

import (
	"fmt"

	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Order is a user's basket or a placed order. A user has at most one order
// in the basket state; checkout turns it into a regular order.
type Order struct {
	shared.BaseAggregateRoot
	UserID    int64
	State     OrderState
	ContactID *int64
	Items     []OrderItem
}

// NewBasket creates an empty basket for a user
func NewBasket(userID int64) (*Order, error) {
	if userID <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "User is required")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		State:             OrderStateBasket,
		Items:             make([]OrderItem, 0),
	}, nil
}

// IsBasket reports whether the order is still a basket
func (o *Order) IsBasket() bool {
	return o.State == OrderStateBasket
}

// BelongsTo reports whether the order was created by the user
func (o *Order) BelongsTo(userID int64) bool {
	return o.UserID == userID
}

// Checkout attaches a delivery contact and places the order
func (o *Order) Checkout(contactID int64) error {
	if contactID <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Contact is required")
	}
	if err := o.TransitionTo(OrderStateNew); err != nil {
		return err
	}
	o.ContactID = &contactID

	o.AddDomainEvent(NewOrderCreatedEvent(o))
	return nil
}

// TransitionTo moves the order to the target state
func (o *Order) TransitionTo(target OrderState) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown order state %q", target))
	}
	if !o.State.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move order from %s to %s", o.State, target))
	}

	from := o.State
	o.State = target
	o.Touch()

	if from != OrderStateBasket {
		o.AddDomainEvent(NewOrderStateChangedEvent(o, from))
	}
	return nil
}

// TotalSum returns the sum of quantity times current offer price over all lines.
// It is derived on every read and never stored.
func (o *Order) TotalSum() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].TotalPrice())
	}
	return total
}

// ItemCount returns the number of lines
func (o *Order) ItemCount() int {
	return len(o.Items)
}
