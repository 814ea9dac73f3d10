package models

import (
	"time"

	"github.com/shop/backend/internal/domain/shared"
)

// BaseModel mirrors shared.BaseEntity.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) Entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) SetEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// aggregateRoot starts a loaded aggregate with no pending events.
func (m *BaseModel) aggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: m.Entity()}
}

// All lists the models with parents before children. sqlite runs and
// tests build their schema from it.
func All() []any {
	return []any{
		&UserModel{},
		&ShopModel{},
		&CategoryModel{},
		&ShopCategoryModel{},
		&ProductModel{},
		&ProductInfoModel{},
		&ParameterModel{},
		&ProductParameterModel{},
		&ContactModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ConfirmEmailTokenModel{},
		&PasswordResetTokenModel{},
		&ImportHistoryModel{},
	}
}
