package models

import (
	"github.com/shop/backend/internal/domain/ordering"
)

// OrderModel is the persistence model for the Order domain entity.
// The partial unique index keeps at most one basket per user.
type OrderModel struct {
	BaseModel
	UserID    int64               `gorm:"not null;index;uniqueIndex:idx_orders_user_basket,where:state = 'basket'"`
	State     ordering.OrderState `gorm:"type:varchar(15);not null;index"`
	ContactID *int64              `gorm:"index"`
	Items     []OrderItemModel    `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *ordering.Order {
	order := &ordering.Order{
		BaseAggregateRoot: m.aggregateRoot(),
		UserID:            m.UserID,
		State:             m.State,
		ContactID:         m.ContactID,
		Items:             make([]ordering.OrderItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		order.Items = append(order.Items, *m.Items[i].ToDomain())
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
// Items are persisted separately.
func (m *OrderModel) FromDomain(o *ordering.Order) {
	m.SetEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.State = o.State
	m.ContactID = o.ContactID
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *ordering.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the OrderItem domain entity.
type OrderItemModel struct {
	BaseModel
	OrderID       int64             `gorm:"not null;uniqueIndex:idx_order_items_order_info,priority:1"`
	ProductInfoID int64             `gorm:"not null;index;uniqueIndex:idx_order_items_order_info,priority:2"`
	Quantity      int               `gorm:"not null"`
	ProductInfo   *ProductInfoModel `gorm:"foreignKey:ProductInfoID"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem entity.
func (m *OrderItemModel) ToDomain() *ordering.OrderItem {
	item := &ordering.OrderItem{
		BaseEntity:    m.BaseModel.Entity(),
		OrderID:       m.OrderID,
		ProductInfoID: m.ProductInfoID,
		Quantity:      m.Quantity,
	}
	if m.ProductInfo != nil {
		item.ProductInfo = m.ProductInfo.ToDomain()
	}
	return item
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem entity.
func OrderItemModelFromDomain(i *ordering.OrderItem) *OrderItemModel {
	m := &OrderItemModel{
		OrderID:       i.OrderID,
		ProductInfoID: i.ProductInfoID,
		Quantity:      i.Quantity,
	}
	m.SetEntity(i.BaseEntity)
	return m
}
