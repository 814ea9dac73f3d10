package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConfirmEmailTokenRepository implements ConfirmEmailTokenRepository using GORM
type GormConfirmEmailTokenRepository struct {
	db *gorm.DB
}

// NewGormConfirmEmailTokenRepository creates a new GormConfirmEmailTokenRepository
func NewGormConfirmEmailTokenRepository(db *gorm.DB) *GormConfirmEmailTokenRepository {
	return &GormConfirmEmailTokenRepository{db: db}
}

// FindByUserID returns the user's newest confirmation token
func (r *GormConfirmEmailTokenRepository) FindByUserID(ctx context.Context, userID int64) (*identity.ConfirmEmailToken, error) {
	return findOne[models.ConfirmEmailTokenModel, identity.ConfirmEmailToken](r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC"))
}

// FindByKey finds a confirmation token by its key
func (r *GormConfirmEmailTokenRepository) FindByKey(ctx context.Context, key string) (*identity.ConfirmEmailToken, error) {
	return findOne[models.ConfirmEmailTokenModel, identity.ConfirmEmailToken](r.db.WithContext(ctx).Where(`"key" = ?`, key))
}

// Create stores a new confirmation token
func (r *GormConfirmEmailTokenRepository) Create(ctx context.Context, token *identity.ConfirmEmailToken) error {
	model := &models.ConfirmEmailTokenModel{
		UserID:    token.UserID,
		Key:       token.Key,
		CreatedAt: token.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	token.ID = model.ID
	token.CreatedAt = model.CreatedAt
	return nil
}

// Delete removes a confirmation token
func (r *GormConfirmEmailTokenRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.ConfirmEmailTokenModel{}, "id = ?", id).Error
}

// GormPasswordResetTokenRepository implements PasswordResetTokenRepository using GORM
type GormPasswordResetTokenRepository struct {
	db *gorm.DB
}

// NewGormPasswordResetTokenRepository creates a new GormPasswordResetTokenRepository
func NewGormPasswordResetTokenRepository(db *gorm.DB) *GormPasswordResetTokenRepository {
	return &GormPasswordResetTokenRepository{db: db}
}

// FindByKey finds a reset token by its key
func (r *GormPasswordResetTokenRepository) FindByKey(ctx context.Context, key string) (*identity.PasswordResetToken, error) {
	return findOne[models.PasswordResetTokenModel, identity.PasswordResetToken](r.db.WithContext(ctx).Where(`"key" = ?`, key))
}

// Create stores a new reset token
func (r *GormPasswordResetTokenRepository) Create(ctx context.Context, token *identity.PasswordResetToken) error {
	model := &models.PasswordResetTokenModel{
		UserID:    token.UserID,
		Key:       token.Key,
		CreatedAt: token.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	token.ID = model.ID
	token.CreatedAt = model.CreatedAt
	return nil
}

// DeleteByUser removes every reset token of the user
func (r *GormPasswordResetTokenRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordResetTokenModel{}).Error
}

// Ensure the repositories implement their interfaces
var (
	_ identity.ConfirmEmailTokenRepository  = (*GormConfirmEmailTokenRepository)(nil)
	_ identity.PasswordResetTokenRepository = (*GormPasswordResetTokenRepository)(nil)
)
