package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductInfoRepository implements ProductInfoRepository using GORM
type GormProductInfoRepository struct {
	db *gorm.DB
}

// NewGormProductInfoRepository creates a new GormProductInfoRepository
func NewGormProductInfoRepository(db *gorm.DB) *GormProductInfoRepository {
	return &GormProductInfoRepository{db: db}
}

// preloadOffer loads everything an offer is rendered with
func preloadOffer(db *gorm.DB, prefix string) *gorm.DB {
	return db.
		Preload(prefix+"Product.Category").
		Preload(prefix+"Shop").
		Preload(prefix+"Parameters", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("product_parameters.id ASC")
		}).
		Preload(prefix + "Parameters.Parameter")
}

// activeOffers restricts a query to offers of shops accepting orders
func (r *GormProductInfoRepository) activeOffers(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.ProductInfoModel{}).
		Joins("JOIN shops ON shops.id = product_infos.shop_id AND shops.state = ?", true)
}

// Search returns offers matching the filter with product, category, shop and parameters loaded
func (r *GormProductInfoRepository) Search(ctx context.Context, filter catalog.ProductInfoFilter) ([]catalog.ProductInfo, error) {
	query := r.activeOffers(ctx)
	if filter.ShopID > 0 {
		query = query.Where("product_infos.shop_id = ?", filter.ShopID)
	}
	if filter.CategoryID > 0 {
		query = query.
			Joins("JOIN products ON products.id = product_infos.product_id").
			Where("products.category_id = ?", filter.CategoryID)
	}

	var infoModels []models.ProductInfoModel
	if err := preloadOffer(query, "").
		Order("product_infos.id ASC").
		Find(&infoModels).Error; err != nil {
		return nil, err
	}

	infos := make([]catalog.ProductInfo, len(infoModels))
	for i := range infoModels {
		infos[i] = *infoModels[i].ToDomain()
	}
	return infos, nil
}

// FindByID returns one offer of an active shop with its relations loaded
func (r *GormProductInfoRepository) FindByID(ctx context.Context, id int64) (*catalog.ProductInfo, error) {
	return findOne[models.ProductInfoModel, catalog.ProductInfo](preloadOffer(r.activeOffers(ctx), "").
		Where("product_infos.id = ?", id))
}

// ExistsByID reports whether an offer exists regardless of shop state
func (r *GormProductInfoRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProductInfoModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormProductInfoRepository implements ProductInfoRepository
var _ catalog.ProductInfoRepository = (*GormProductInfoRepository)(nil)
