package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormImportTransactor runs price-list imports inside one GORM transaction
type GormImportTransactor struct {
	db *gorm.DB
}

// NewGormImportTransactor creates a new GormImportTransactor
func NewGormImportTransactor(db *gorm.DB) *GormImportTransactor {
	return &GormImportTransactor{db: db}
}

// WithinImport opens a transaction and hands fn a Writer bound to it.
// The transaction commits only when fn returns nil.
func (t *GormImportTransactor) WithinImport(ctx context.Context, fn func(ctx context.Context, w catalog.Writer) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w := &GormCatalogWriter{tx: tx}
		if err := fn(ctx, w); err != nil {
			return err
		}
		if w.explicitCategoryIDs && tx.Dialector.Name() == "postgres" {
			// feeds insert category ids directly; move the sequence past them
			if err := tx.Exec(`SELECT setval(pg_get_serial_sequence('categories', 'id'), GREATEST((SELECT MAX(id) FROM categories), 1))`).Error; err != nil {
				return fmt.Errorf("failed to sync categories sequence: %w", err)
			}
		}
		return nil
	})
}

// GormCatalogWriter implements catalog.Writer on an open transaction
type GormCatalogWriter struct {
	tx                  *gorm.DB
	explicitCategoryIDs bool
}

// NewGormCatalogWriter creates a writer on an existing transaction
func NewGormCatalogWriter(tx *gorm.DB) *GormCatalogWriter {
	return &GormCatalogWriter{tx: tx}
}

// EnsureShop finds a shop by owner when ownerID is set, otherwise by name.
// An owned shop found under a different name takes the feed's name.
func (w *GormCatalogWriter) EnsureShop(ctx context.Context, name string, ownerID *int64) (*catalog.Shop, bool, error) {
	name = strings.TrimSpace(name)
	query := w.tx.WithContext(ctx)
	if ownerID != nil {
		query = query.Where("user_id = ?", *ownerID)
	} else {
		query = query.Where("name = ?", name)
	}

	var model models.ShopModel
	err := query.Order("id ASC").First(&model).Error
	if err == nil {
		shop := model.ToDomain()
		if shop.Name == name {
			return shop, false, nil
		}
		if err := shop.Rename(name); err != nil {
			return nil, false, err
		}
		if err := w.tx.WithContext(ctx).
			Model(&models.ShopModel{}).
			Where("id = ?", shop.ID).
			Update("name", shop.Name).Error; err != nil {
			return nil, false, err
		}
		return shop, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	shop, err := catalog.NewShop(name)
	if err != nil {
		return nil, false, err
	}
	if ownerID != nil {
		if err := shop.SetOwner(*ownerID); err != nil {
			return nil, false, err
		}
	}
	model = *models.ShopModelFromDomain(shop)
	if err := w.tx.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, false, translateError(err)
	}
	shop.ID = model.ID
	return shop, true, nil
}

// EnsureCategory finds a category by id when id > 0, otherwise by name.
// A category missing under an explicit id is created with that id.
func (w *GormCatalogWriter) EnsureCategory(ctx context.Context, id int64, name string) (*catalog.Category, error) {
	name = strings.TrimSpace(name)
	query := w.tx.WithContext(ctx)
	if id > 0 {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("name = ?", name)
	}

	var model models.CategoryModel
	err := query.Order("id ASC").First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var category *catalog.Category
	if id > 0 {
		category, err = catalog.NewCategoryWithID(id, name)
		w.explicitCategoryIDs = true
	} else {
		category, err = catalog.NewCategory(name)
	}
	if err != nil {
		return nil, err
	}

	model = *models.CategoryModelFromDomain(category)
	if err := w.tx.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, translateError(err)
	}
	category.ID = model.ID
	return category, nil
}

// LinkShopCategory associates a category with a shop
func (w *GormCatalogWriter) LinkShopCategory(ctx context.Context, shopID, categoryID int64) error {
	return w.tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ShopCategoryModel{ShopID: shopID, CategoryID: categoryID}).Error
}

// EnsureProduct finds a product by (name, category), creating it when missing
func (w *GormCatalogWriter) EnsureProduct(ctx context.Context, name string, categoryID int64) (*catalog.Product, error) {
	name = strings.TrimSpace(name)
	var model models.ProductModel
	err := w.tx.WithContext(ctx).
		Where("name = ? AND category_id = ?", name, categoryID).
		First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product, err := catalog.NewProduct(name, categoryID)
	if err != nil {
		return nil, err
	}
	model = *models.ProductModelFromDomain(product)
	if err := w.tx.WithContext(ctx).Omit("Category").Create(&model).Error; err != nil {
		return nil, translateError(err)
	}
	product.ID = model.ID
	return product, nil
}

// FindOffer looks up an offer of a shop by external id
func (w *GormCatalogWriter) FindOffer(ctx context.Context, productID, shopID int64, externalID string) (*catalog.ProductInfo, error) {
	query := w.tx.WithContext(ctx).
		Where("shop_id = ? AND external_id = ?", shopID, strings.TrimSpace(externalID))
	if productID > 0 {
		query = query.Where("product_id = ?", productID)
	}

	var model models.ProductInfoModel
	if err := query.Order("id ASC").First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// SaveOffer inserts a new offer or overwrites an existing one
func (w *GormCatalogWriter) SaveOffer(ctx context.Context, offer *catalog.ProductInfo) error {
	model := models.ProductInfoModelFromDomain(offer)
	db := w.tx.WithContext(ctx).Omit(clause.Associations)
	var err error
	if offer.IsNew() {
		err = db.Create(model).Error
	} else {
		err = db.Save(model).Error
	}
	if err != nil {
		return translateError(err)
	}
	offer.ID = model.ID
	return nil
}

// SetParameter resolves the parameter by name and upserts its value for the offer
func (w *GormCatalogWriter) SetParameter(ctx context.Context, productInfoID int64, name, value string) error {
	parameter, err := w.ensureParameter(ctx, name)
	if err != nil {
		return err
	}

	var model models.ProductParameterModel
	err = w.tx.WithContext(ctx).
		Where("product_info_id = ? AND parameter_id = ?", productInfoID, parameter.ID).
		First(&model).Error
	if err == nil {
		pp := model.ToDomain()
		if err := pp.SetValue(value); err != nil {
			return err
		}
		return w.tx.WithContext(ctx).
			Model(&models.ProductParameterModel{}).
			Where("id = ?", pp.ID).
			Update("value", pp.Value).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pp, err := catalog.NewProductParameter(productInfoID, parameter.ID, value)
	if err != nil {
		return err
	}
	model = models.ProductParameterModel{
		ProductInfoID: pp.ProductInfoID,
		ParameterID:   pp.ParameterID,
		Value:         pp.Value,
	}
	model.SetEntity(pp.BaseEntity)
	return translateError(w.tx.WithContext(ctx).Omit("Parameter").Create(&model).Error)
}

func (w *GormCatalogWriter) ensureParameter(ctx context.Context, name string) (*catalog.Parameter, error) {
	name = strings.TrimSpace(name)
	var model models.ParameterModel
	err := w.tx.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err == nil {
		return model.ToDomain(), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	parameter, err := catalog.NewParameter(name)
	if err != nil {
		return nil, err
	}
	model = models.ParameterModel{Name: parameter.Name}
	model.SetEntity(parameter.BaseEntity)
	if err := w.tx.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, translateError(err)
	}
	parameter.ID = model.ID
	return parameter, nil
}

// Ensure the writer types implement their interfaces
var (
	_ catalog.ImportTransactor = (*GormImportTransactor)(nil)
	_ catalog.Writer           = (*GormCatalogWriter)(nil)
)
