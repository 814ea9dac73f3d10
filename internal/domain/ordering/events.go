package ordering

import (
	"github.com/shop/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderCreated      = "ordering.order_created"
	EventTypeOrderStateChanged = "ordering.order_state_changed"
)

// OrderCreatedEvent is raised when a basket is checked out
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID   int64 `json:"order_id"`
	UserID    int64 `json:"user_id"`
	ContactID int64 `json:"contact_id"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	var contactID int64
	if order.ContactID != nil {
		contactID = *order.ContactID
	}
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		ContactID:       contactID,
	}
}

// OrderStateChangedEvent is raised on every transition after checkout
type OrderStateChangedEvent struct {
	shared.BaseDomainEvent
	OrderID int64      `json:"order_id"`
	UserID  int64      `json:"user_id"`
	From    OrderState `json:"from"`
	To      OrderState `json:"to"`
}

// NewOrderStateChangedEvent creates a new OrderStateChangedEvent
func NewOrderStateChangedEvent(order *Order, from OrderState) *OrderStateChangedEvent {
	return &OrderStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStateChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		UserID:          order.UserID,
		From:            from,
		To:              order.State,
	}
}
