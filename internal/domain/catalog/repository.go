package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// ShopRepository defines the interface for shop persistence
type ShopRepository interface {
	// FindByID finds a shop by its ID
	FindByID(ctx context.Context, id int64) (*Shop, error)

	// FindByUserID finds the shop owned by a user
	FindByUserID(ctx context.Context, userID int64) (*Shop, error)

	// FindActive returns shops accepting orders, ordered by name
	FindActive(ctx context.Context) ([]Shop, error)

	// FindRefreshable returns active shops that have a price-list URL
	FindRefreshable(ctx context.Context) ([]Shop, error)

	// Save creates or updates a shop
	Save(ctx context.Context, shop *Shop) error
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindAll returns all categories ordered by name
	FindAll(ctx context.Context) ([]Category, error)
}

// ProductInfoFilter narrows a product search. Zero values mean "any".
type ProductInfoFilter struct {
	ShopID     int64
	CategoryID int64
}

// ProductInfoRepository defines the read side of shop offers.
// Reads only return offers of shops that accept orders.
type ProductInfoRepository interface {
	// Search returns offers with product, category, shop and parameters loaded
	Search(ctx context.Context, filter ProductInfoFilter) ([]ProductInfo, error)

	// FindByID returns one offer with its relations loaded
	FindByID(ctx context.Context, id int64) (*ProductInfo, error)

	// ExistsByID reports whether an offer exists regardless of shop state
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

// OfferValues are the commercial fields an import writes onto an offer
type OfferValues struct {
	Model    string
	Price    decimal.Decimal
	PriceRRC decimal.Decimal
	Quantity int
}

// Writer resolves and upserts catalog rows during a price-list import.
// All calls made through one Writer share a single database transaction.
type Writer interface {
	// EnsureShop finds a shop by name, or by owner when ownerID is set, creating it when missing
	EnsureShop(ctx context.Context, name string, ownerID *int64) (shop *Shop, created bool, err error)

	// EnsureCategory finds a category by id when id > 0, otherwise by name, creating it when missing
	EnsureCategory(ctx context.Context, id int64, name string) (*Category, error)

	// LinkShopCategory associates a category with a shop; repeated links are ignored
	LinkShopCategory(ctx context.Context, shopID, categoryID int64) error

	// EnsureProduct finds a product by (name, category), creating it when missing
	EnsureProduct(ctx context.Context, name string, categoryID int64) (*Product, error)

	// FindOffer looks up an offer of a shop by external id.
	// A zero productID matches any product of the shop.
	FindOffer(ctx context.Context, productID, shopID int64, externalID string) (*ProductInfo, error)

	// SaveOffer inserts a new offer or updates an existing one
	SaveOffer(ctx context.Context, offer *ProductInfo) error

	// SetParameter resolves the parameter by name and upserts its value for the offer
	SetParameter(ctx context.Context, productInfoID int64, name, value string) error
}

// ImportTransactor runs an import inside one transaction.
// Any error returned by fn rolls back every write made through the Writer.
type ImportTransactor interface {
	WithinImport(ctx context.Context, fn func(ctx context.Context, w Writer) error) error
}
