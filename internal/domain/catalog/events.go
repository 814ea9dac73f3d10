package catalog

import (
	"github.com/shop/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeShop = "Shop"

// Event type constants
const (
	EventTypePriceListImported = "catalog.price_list_imported"
	EventTypeShopStateChanged  = "catalog.shop_state_changed"
)

// PriceListImportedEvent is published after a price list has been committed
type PriceListImportedEvent struct {
	shared.BaseDomainEvent
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	Rows     int    `json:"rows"`
}

// NewPriceListImportedEvent creates a new PriceListImportedEvent
func NewPriceListImportedEvent(shopID int64, shopName string, rows int) *PriceListImportedEvent {
	return &PriceListImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePriceListImported, AggregateTypeShop, shopID),
		ShopID:          shopID,
		ShopName:        shopName,
		Rows:            rows,
	}
}

// ShopStateChangedEvent is published when a partner switches order intake
type ShopStateChangedEvent struct {
	shared.BaseDomainEvent
	ShopID int64 `json:"shop_id"`
	State  bool  `json:"state"`
}

// NewShopStateChangedEvent creates a new ShopStateChangedEvent
func NewShopStateChangedEvent(shop *Shop) *ShopStateChangedEvent {
	return &ShopStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShopStateChanged, AggregateTypeShop, shop.ID),
		ShopID:          shop.ID,
		State:           shop.State,
	}
}
