package models

import (
	"time"

	"github.com/shop/backend/internal/domain/bulk"
)

// ImportHistoryModel is the persistence model for the ImportHistory domain entity.
type ImportHistoryModel struct {
	BaseModel
	Source       bulk.ImportSource `gorm:"type:varchar(10);not null"`
	FileName     string            `gorm:"type:varchar(255);not null"`
	Format       string            `gorm:"type:varchar(10);not null"`
	ShopName     string            `gorm:"type:varchar(50);not null"`
	TotalRows    int               `gorm:"not null"`
	CreatedRows  int               `gorm:"not null"`
	UpdatedRows  int               `gorm:"not null"`
	Status       bulk.ImportStatus `gorm:"type:varchar(12);not null;index"`
	ErrorMessage string            `gorm:"type:text;not null"`
	ErrorRow     int               `gorm:"not null"`
	ImportedBy   *int64            `gorm:"index"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (ImportHistoryModel) TableName() string {
	return "import_histories"
}

// ToDomain converts the persistence model to a domain ImportHistory entity.
func (m *ImportHistoryModel) ToDomain() *bulk.ImportHistory {
	return &bulk.ImportHistory{
		BaseAggregateRoot: m.aggregateRoot(),
		Source:            m.Source,
		FileName:          m.FileName,
		Format:            m.Format,
		ShopName:          m.ShopName,
		TotalRows:         m.TotalRows,
		CreatedRows:       m.CreatedRows,
		UpdatedRows:       m.UpdatedRows,
		Status:            m.Status,
		ErrorMessage:      m.ErrorMessage,
		ErrorRow:          m.ErrorRow,
		ImportedBy:        m.ImportedBy,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain ImportHistory entity.
func (m *ImportHistoryModel) FromDomain(h *bulk.ImportHistory) {
	m.SetEntity(h.BaseEntity)
	m.Source = h.Source
	m.FileName = h.FileName
	m.Format = h.Format
	m.ShopName = h.ShopName
	m.TotalRows = h.TotalRows
	m.CreatedRows = h.CreatedRows
	m.UpdatedRows = h.UpdatedRows
	m.Status = h.Status
	m.ErrorMessage = h.ErrorMessage
	m.ErrorRow = h.ErrorRow
	m.ImportedBy = h.ImportedBy
	m.StartedAt = h.StartedAt
	m.CompletedAt = h.CompletedAt
}
