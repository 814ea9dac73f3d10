package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShopRepository implements ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByID finds a shop by ID
func (r *GormShopRepository) FindByID(ctx context.Context, id int64) (*catalog.Shop, error) {
	return findOne[models.ShopModel, catalog.Shop](r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByUserID finds the shop owned by a user
func (r *GormShopRepository) FindByUserID(ctx context.Context, userID int64) (*catalog.Shop, error) {
	return findOne[models.ShopModel, catalog.Shop](r.db.WithContext(ctx).Where("user_id = ?", userID))
}

// FindActive returns shops accepting orders, ordered by name
func (r *GormShopRepository) FindActive(ctx context.Context) ([]catalog.Shop, error) {
	return findAll[models.ShopModel, catalog.Shop](r.db.WithContext(ctx).
		Where("state = ?", true).
		Order("name ASC, id ASC"))
}

// FindRefreshable returns active shops with a stored price-list URL
func (r *GormShopRepository) FindRefreshable(ctx context.Context) ([]catalog.Shop, error) {
	return findAll[models.ShopModel, catalog.Shop](r.db.WithContext(ctx).
		Where("state = ? AND url <> ''", true).
		Order("id ASC"))
}

// Save creates or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, shop *catalog.Shop) error {
	model := models.ShopModelFromDomain(shop)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	shop.ID = model.ID
	shop.CreatedAt = model.CreatedAt
	shop.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormShopRepository implements ShopRepository
var _ catalog.ShopRepository = (*GormShopRepository)(nil)
