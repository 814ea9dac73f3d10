package persistence

import (
	"context"
	"errors"

	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// withItems preloads order lines and the offers they point at
func withItems(db *gorm.DB) *gorm.DB {
	return preloadOffer(
		db.Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_items.id ASC")
		}),
		"Items.ProductInfo.",
	)
}

// FindBaskets returns the user's basket orders
func (r *GormOrderRepository) FindBaskets(ctx context.Context, userID int64) ([]ordering.Order, error) {
	var orderModels []models.OrderModel
	if err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ? AND state = ?", userID, ordering.OrderStateBasket).
		Order("id ASC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(orderModels), nil
}

// GetOrCreateBasket returns the user's basket, creating it on first use.
// A concurrent insert loses on the partial unique index and re-reads the winner.
func (r *GormOrderRepository) GetOrCreateBasket(ctx context.Context, userID int64) (*ordering.Order, error) {
	basket, err := r.findBasket(ctx, userID)
	if err == nil {
		return basket, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	order, err := ordering.NewBasket(userID)
	if err != nil {
		return nil, err
	}
	model := models.OrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Omit("Items").Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return r.findBasket(ctx, userID)
		}
		return nil, err
	}
	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return order, nil
}

func (r *GormOrderRepository) findBasket(ctx context.Context, userID int64) (*ordering.Order, error) {
	return findOne[models.OrderModel, ordering.Order](r.db.WithContext(ctx).
		Where("user_id = ? AND state = ?", userID, ordering.OrderStateBasket))
}

// FindBasketByID finds a basket of the user by ID
func (r *GormOrderRepository) FindBasketByID(ctx context.Context, userID, orderID int64) (*ordering.Order, error) {
	return findOne[models.OrderModel, ordering.Order](r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND state = ?", orderID, userID, ordering.OrderStateBasket))
}

// FindPlacedByUser returns the user's non-basket orders, newest first
func (r *GormOrderRepository) FindPlacedByUser(ctx context.Context, userID int64) ([]ordering.Order, error) {
	var orderModels []models.OrderModel
	if err := withItems(r.db.WithContext(ctx)).
		Where("user_id = ? AND state <> ?", userID, ordering.OrderStateBasket).
		Order("created_at DESC, id DESC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(orderModels), nil
}

// FindPlacedByShop returns non-basket orders with at least one line from the shop, newest first
func (r *GormOrderRepository) FindPlacedByShop(ctx context.Context, shopID int64) ([]ordering.Order, error) {
	db := r.db.WithContext(ctx)
	shopOrders := db.Model(&models.OrderItemModel{}).
		Select("order_items.order_id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Where("product_infos.shop_id = ?", shopID)

	var orderModels []models.OrderModel
	if err := withItems(db).
		Where("state <> ?", ordering.OrderStateBasket).
		Where("id IN (?)", shopOrders).
		Order("created_at DESC, id DESC").
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return ordersToDomain(orderModels), nil
}

// Save updates the order's state and contact
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"state":      order.State,
			"contact_id": order.ContactID,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func ordersToDomain(orderModels []models.OrderModel) []ordering.Order {
	orders := make([]ordering.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders
}

// GormOrderItemRepository implements OrderItemRepository using GORM
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewGormOrderItemRepository creates a new GormOrderItemRepository
func NewGormOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// CreateAll inserts all lines in one transaction.
// A line that repeats an offer already in the order fails the whole batch with ErrAlreadyExists.
func (r *GormOrderItemRepository) CreateAll(ctx context.Context, items []*ordering.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	itemModels := make([]*models.OrderItemModel, len(items))
	for i, item := range items {
		itemModels[i] = models.OrderItemModelFromDomain(item)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range itemModels {
			if err := tx.Omit("ProductInfo").Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return translateError(err)
	}

	for i, m := range itemModels {
		items[i].ID = m.ID
		items[i].CreatedAt = m.CreatedAt
		items[i].UpdatedAt = m.UpdatedAt
	}
	return nil
}

// UpdateQuantity sets the quantity of a line in the order
func (r *GormOrderItemRepository) UpdateQuantity(ctx context.Context, orderID, itemID int64, quantity int) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.OrderItemModel{}).
		Where("id = ? AND order_id = ?", itemID, orderID).
		Update("quantity", quantity)
	return result.RowsAffected, result.Error
}

// DeleteByIDs removes lines of the order
func (r *GormOrderItemRepository) DeleteByIDs(ctx context.Context, orderID int64, itemIDs []int64) (int64, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("order_id = ? AND id IN ?", orderID, itemIDs).
		Delete(&models.OrderItemModel{})
	return result.RowsAffected, result.Error
}

// Ensure the repositories implement their interfaces
var (
	_ ordering.OrderRepository     = (*GormOrderRepository)(nil)
	_ ordering.OrderItemRepository = (*GormOrderItemRepository)(nil)
)
