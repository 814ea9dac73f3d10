package importapp

import (
	"time"

	"github.com/shop/backend/internal/domain/bulk"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
)

// Request describes one price list to import
type Request struct {
	FileName string
	Data     []byte
	// Format overrides detection from FileName when set
	Format feedimport.Format
	Source bulk.ImportSource
	// UserID is the importing user. Shops created or resolved by the import
	// are owned by this user.
	UserID *int64
	// ShopName replaces the shop column of flat rows
	ShopName string
}

// Result summarises a committed import
type Result struct {
	Format      string `json:"format"`
	ShopID      int64  `json:"shop_id"`
	Shop        string `json:"shop"`
	TotalRows   int    `json:"total_rows"`
	CreatedRows int    `json:"created_rows"`
	UpdatedRows int    `json:"updated_rows"`
	Parameters  int    `json:"parameters"`
	ArchiveKey  string `json:"archive_key,omitempty"`
}

// HistoryResponse represents one import run in API responses
type HistoryResponse struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"`
	FileName     string     `json:"file_name"`
	Format       string     `json:"format,omitempty"`
	Shop         string     `json:"shop,omitempty"`
	Status       string     `json:"status"`
	TotalRows    int        `json:"total_rows"`
	CreatedRows  int        `json:"created_rows"`
	UpdatedRows  int        `json:"updated_rows"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ErrorRow     int        `json:"error_row,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToHistoryResponse converts a domain ImportHistory to HistoryResponse
func ToHistoryResponse(h *bulk.ImportHistory) HistoryResponse {
	return HistoryResponse{
		ID:           h.ID,
		Source:       string(h.Source),
		FileName:     h.FileName,
		Format:       h.Format,
		Shop:         h.ShopName,
		Status:       string(h.Status),
		TotalRows:    h.TotalRows,
		CreatedRows:  h.CreatedRows,
		UpdatedRows:  h.UpdatedRows,
		ErrorMessage: h.ErrorMessage,
		ErrorRow:     h.ErrorRow,
		StartedAt:    h.StartedAt,
		CompletedAt:  h.CompletedAt,
		CreatedAt:    h.CreatedAt,
	}
}
