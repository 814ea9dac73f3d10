package models

import (
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ShopModel is the persistence model for the Shop domain entity.
type ShopModel struct {
	BaseModel
	Name   string `gorm:"type:varchar(50);not null;index"`
	URL    string `gorm:"column:url;type:varchar(200);not null"`
	UserID *int64 `gorm:"uniqueIndex"`
	State  bool   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop entity.
func (m *ShopModel) ToDomain() *catalog.Shop {
	return &catalog.Shop{
		BaseAggregateRoot: m.aggregateRoot(),
		Name:              m.Name,
		URL:               m.URL,
		UserID:            m.UserID,
		State:             m.State,
	}
}

// FromDomain populates the persistence model from a domain Shop entity.
func (m *ShopModel) FromDomain(s *catalog.Shop) {
	m.SetEntity(s.BaseEntity)
	m.Name = s.Name
	m.URL = s.URL
	m.UserID = s.UserID
	m.State = s.State
}

// ShopModelFromDomain creates a new persistence model from a domain Shop entity.
func ShopModelFromDomain(s *catalog.Shop) *ShopModel {
	m := &ShopModel{}
	m.FromDomain(s)
	return m
}

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	Name string `gorm:"type:varchar(40);not null;index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.Entity(),
		Name:       m.Name,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name}
	m.SetEntity(c.BaseEntity)
	return m
}

// ShopCategoryModel is the many-to-many association between shops and categories.
type ShopCategoryModel struct {
	ShopID     int64 `gorm:"primaryKey;autoIncrement:false"`
	CategoryID int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for GORM
func (ShopCategoryModel) TableName() string {
	return "shop_categories"
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	Name       string         `gorm:"type:varchar(80);not null;uniqueIndex:idx_products_name_category,priority:1"`
	CategoryID int64          `gorm:"not null;index;uniqueIndex:idx_products_name_category,priority:2"`
	Category   *CategoryModel `gorm:"foreignKey:CategoryID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity: m.BaseModel.Entity(),
		Name:       m.Name,
		CategoryID: m.CategoryID,
	}
	if m.Category != nil {
		p.Category = m.Category.ToDomain()
	}
	return p
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{Name: p.Name, CategoryID: p.CategoryID}
	m.SetEntity(p.BaseEntity)
	return m
}

// ProductInfoModel is the persistence model for the ProductInfo domain entity.
type ProductInfoModel struct {
	BaseModel
	ProductID  int64                   `gorm:"not null;uniqueIndex:idx_product_infos_product_shop_external,priority:1"`
	ShopID     int64                   `gorm:"not null;uniqueIndex:idx_product_infos_product_shop_external,priority:2;index:idx_product_infos_shop_external,priority:1"`
	ExternalID string                  `gorm:"column:external_id;type:varchar(64);not null;uniqueIndex:idx_product_infos_product_shop_external,priority:3;index:idx_product_infos_shop_external,priority:2"`
	Model      string                  `gorm:"type:varchar(80);not null"`
	Price      decimal.Decimal         `gorm:"type:numeric(12,2);not null"`
	PriceRRC   decimal.Decimal         `gorm:"column:price_rrc;type:numeric(12,2);not null"`
	Quantity   int                     `gorm:"not null"`
	Product    *ProductModel           `gorm:"foreignKey:ProductID"`
	Shop       *ShopModel              `gorm:"foreignKey:ShopID"`
	Parameters []ProductParameterModel `gorm:"foreignKey:ProductInfoID"`
}

// TableName returns the table name for GORM
func (ProductInfoModel) TableName() string {
	return "product_infos"
}

// ToDomain converts the persistence model to a domain ProductInfo entity.
func (m *ProductInfoModel) ToDomain() *catalog.ProductInfo {
	info := &catalog.ProductInfo{
		BaseEntity: m.BaseModel.Entity(),
		ProductID:  m.ProductID,
		ShopID:     m.ShopID,
		ExternalID: m.ExternalID,
		Model:      m.Model,
		Price:      m.Price,
		PriceRRC:   m.PriceRRC,
		Quantity:   m.Quantity,
	}
	if m.Product != nil {
		info.Product = m.Product.ToDomain()
	}
	if m.Shop != nil {
		info.Shop = m.Shop.ToDomain()
	}
	if len(m.Parameters) > 0 {
		info.Parameters = make([]catalog.ProductParameter, 0, len(m.Parameters))
		for i := range m.Parameters {
			info.Parameters = append(info.Parameters, *m.Parameters[i].ToDomain())
		}
	}
	return info
}

// FromDomain populates the persistence model from a domain ProductInfo entity.
func (m *ProductInfoModel) FromDomain(pi *catalog.ProductInfo) {
	m.SetEntity(pi.BaseEntity)
	m.ProductID = pi.ProductID
	m.ShopID = pi.ShopID
	m.ExternalID = pi.ExternalID
	m.Model = pi.Model
	m.Price = pi.Price
	m.PriceRRC = pi.PriceRRC
	m.Quantity = pi.Quantity
}

// ProductInfoModelFromDomain creates a new persistence model from a domain ProductInfo entity.
func ProductInfoModelFromDomain(pi *catalog.ProductInfo) *ProductInfoModel {
	m := &ProductInfoModel{}
	m.FromDomain(pi)
	return m
}

// ParameterModel is the persistence model for the Parameter domain entity.
type ParameterModel struct {
	BaseModel
	Name string `gorm:"type:varchar(40);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ParameterModel) TableName() string {
	return "parameters"
}

// ToDomain converts the persistence model to a domain Parameter entity.
func (m *ParameterModel) ToDomain() *catalog.Parameter {
	return &catalog.Parameter{
		BaseEntity: m.BaseModel.Entity(),
		Name:       m.Name,
	}
}

// ProductParameterModel is the persistence model for the ProductParameter domain entity.
type ProductParameterModel struct {
	BaseModel
	ProductInfoID int64           `gorm:"not null;uniqueIndex:idx_product_parameters_info_param,priority:1"`
	ParameterID   int64           `gorm:"not null;uniqueIndex:idx_product_parameters_info_param,priority:2"`
	Value         string          `gorm:"type:varchar(100);not null"`
	Parameter     *ParameterModel `gorm:"foreignKey:ParameterID"`
}

// TableName returns the table name for GORM
func (ProductParameterModel) TableName() string {
	return "product_parameters"
}

// ToDomain converts the persistence model to a domain ProductParameter entity.
func (m *ProductParameterModel) ToDomain() *catalog.ProductParameter {
	pp := &catalog.ProductParameter{
		BaseEntity:    m.BaseModel.Entity(),
		ProductInfoID: m.ProductInfoID,
		ParameterID:   m.ParameterID,
		Value:         m.Value,
	}
	if m.Parameter != nil {
		pp.Parameter = m.Parameter.ToDomain()
	}
	return pp
}
