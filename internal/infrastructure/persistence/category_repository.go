package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAll lists categories alphabetically.
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	return findAll[models.CategoryModel, catalog.Category](r.db.WithContext(ctx).Order("name, id"))
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
