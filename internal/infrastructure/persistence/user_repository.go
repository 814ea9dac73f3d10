package persistence

import (
	"context"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository stores accounts. Emails are compared in their
// normalized form.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	return findOne[models.UserModel, identity.User](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, shared.ErrNotFound
	}
	return findOne[models.UserModel, identity.User](r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("email = ?", identity.NormalizeEmail(email)).
		Limit(1).Count(&n).Error
	return n > 0, err
}

// Save inserts a new user or updates an existing one. A duplicate email
// is shared.ErrAlreadyExists.
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	m := models.UserModelFromDomain(user)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return translateError(err)
	}
	user.ID, user.CreatedAt, user.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	return nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
