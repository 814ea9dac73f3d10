package ordering

import (
	"context"
)

// OrderRepository defines the interface for order persistence.
// Read methods load items together with their offers and parameters.
type OrderRepository interface {
	// FindBaskets returns the user's basket orders (zero or one)
	FindBaskets(ctx context.Context, userID int64) ([]Order, error)

	// GetOrCreateBasket returns the user's basket, creating it when missing.
	// Concurrent callers for the same user receive the same basket.
	GetOrCreateBasket(ctx context.Context, userID int64) (*Order, error)

	// FindBasketByID finds a basket of the user by id
	FindBasketByID(ctx context.Context, userID, orderID int64) (*Order, error)

	// FindPlacedByUser returns the user's non-basket orders, newest first
	FindPlacedByUser(ctx context.Context, userID int64) ([]Order, error)

	// FindPlacedByShop returns non-basket orders containing a line of the shop, newest first
	FindPlacedByShop(ctx context.Context, shopID int64) ([]Order, error)

	// Save updates the order's state and contact
	Save(ctx context.Context, order *Order) error
}

// OrderItemRepository defines the interface for basket line persistence
type OrderItemRepository interface {
	// CreateAll inserts all lines atomically; a duplicate offer in the order fails the batch
	CreateAll(ctx context.Context, items []*OrderItem) error

	// UpdateQuantity sets the quantity of a line in the order and returns the affected row count
	UpdateQuantity(ctx context.Context, orderID, itemID int64, quantity int) (int64, error)

	// DeleteByIDs removes lines of the order and returns the affected row count
	DeleteByIDs(ctx context.Context, orderID int64, itemIDs []int64) (int64, error)
}
