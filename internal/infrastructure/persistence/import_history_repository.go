package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const maxHistoryPage = 100

// GormImportHistoryRepository records one row per price list import run.
type GormImportHistoryRepository struct {
	db *gorm.DB
}

func NewGormImportHistoryRepository(db *gorm.DB) *GormImportHistoryRepository {
	return &GormImportHistoryRepository{db: db}
}

func (r *GormImportHistoryRepository) Save(ctx context.Context, history *bulk.ImportHistory) error {
	var m models.ImportHistoryModel
	m.FromDomain(history)
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return translateError(err)
	}
	history.ID, history.CreatedAt, history.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

// FindByUser pages through a partner's runs, newest first. Limits outside
// 1..100 fall back to 20.
func (r *GormImportHistoryRepository) FindByUser(ctx context.Context, userID int64, limit int) ([]bulk.ImportHistory, error) {
	if limit <= 0 || limit > maxHistoryPage {
		limit = 20
	}
	return findAll[models.ImportHistoryModel, bulk.ImportHistory](r.db.WithContext(ctx).
		Where("imported_by = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit))
}

var _ bulk.ImportHistoryRepository = (*GormImportHistoryRepository)(nil)
