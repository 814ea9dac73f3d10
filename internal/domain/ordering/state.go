package ordering

// OrderState represents the lifecycle state of an order
type OrderState string

const (
	OrderStateBasket    OrderState = "basket"
	OrderStateNew       OrderState = "new"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateAssembled OrderState = "assembled"
	OrderStateSent      OrderState = "sent"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCanceled  OrderState = "canceled"
)

// IsValid checks if the state is a valid OrderState
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateBasket, OrderStateNew, OrderStateConfirmed, OrderStateAssembled,
		OrderStateSent, OrderStateDelivered, OrderStateCanceled:
		return true
	}
	return false
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s OrderState) CanTransitionTo(target OrderState) bool {
	switch s {
	case OrderStateBasket:
		return target == OrderStateNew
	case OrderStateNew:
		return target == OrderStateConfirmed || target == OrderStateCanceled
	case OrderStateConfirmed:
		return target == OrderStateAssembled || target == OrderStateCanceled
	case OrderStateAssembled:
		return target == OrderStateSent || target == OrderStateCanceled
	case OrderStateSent:
		return target == OrderStateDelivered
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderState) IsTerminal() bool {
	return s == OrderStateDelivered || s == OrderStateCanceled
}
