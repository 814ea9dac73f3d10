package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactRepository implements ContactRepository using GORM.
// Every query is scoped by user_id.
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByUser returns the user's contacts in creation order
func (r *GormContactRepository) FindByUser(ctx context.Context, userID int64) ([]identity.Contact, error) {
	return findAll[models.ContactModel, identity.Contact](r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC"))
}

// FindByIDForUser finds one contact of the user
func (r *GormContactRepository) FindByIDForUser(ctx context.Context, userID, id int64) (*identity.Contact, error) {
	return findOne[models.ContactModel, identity.Contact](r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID))
}

// Save creates or updates a contact
func (r *GormContactRepository) Save(ctx context.Context, contact *identity.Contact) error {
	model := models.ContactModelFromDomain(contact)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	contact.ID = model.ID
	contact.CreatedAt = model.CreatedAt
	contact.UpdatedAt = model.UpdatedAt
	return nil
}

// DeleteByIDs removes the user's contacts with the given ids
func (r *GormContactRepository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.ContactModel{})
	return result.RowsAffected, result.Error
}

// Ensure GormContactRepository implements ContactRepository
var _ identity.ContactRepository = (*GormContactRepository)(nil)
