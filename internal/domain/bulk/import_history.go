package bulk

import (
	"context"
	"slices"
	"time"

	"github.com/shop/backend/internal/domain/shared"
)

// ImportSource says how a price list reached the importer.
type ImportSource string

const (
	ImportSourceUpload   ImportSource = "upload"
	ImportSourceURL      ImportSource = "url"
	ImportSourceCLI      ImportSource = "cli"
	ImportSourceSchedule ImportSource = "schedule"
)

var importSources = []ImportSource{ImportSourceUpload, ImportSourceURL, ImportSourceCLI, ImportSourceSchedule}

func (s ImportSource) IsValid() bool { return slices.Contains(importSources, s) }

// ImportStatus moves pending -> processing -> completed, or to failed from
// any non-terminal status.
type ImportStatus string

const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusProcessing ImportStatus = "processing"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
)

func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusCompleted, ImportStatusFailed:
		return true
	}
	return false
}

func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed
}

// ImportHistory is the audit record of one import run. Failed runs keep
// the message and, when known, the offending row.
type ImportHistory struct {
	shared.BaseAggregateRoot
	Source       ImportSource
	FileName     string
	Format       string
	ShopName     string
	TotalRows    int
	CreatedRows  int
	UpdatedRows  int
	Status       ImportStatus
	ErrorMessage string
	ErrorRow     int
	ImportedBy   *int64
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// NewImportHistory opens a pending run. importedBy is nil for CLI and
// scheduled runs.
func NewImportHistory(source ImportSource, fileName string, importedBy *int64) (*ImportHistory, error) {
	switch {
	case !source.IsValid():
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid import source: "+string(source))
	case fileName == "":
		return nil, shared.NewDomainError("INVALID_INPUT", "File name cannot be empty")
	}
	return &ImportHistory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Source:            source,
		FileName:          fileName,
		Status:            ImportStatusPending,
		ImportedBy:        importedBy,
	}, nil
}

func (h *ImportHistory) move(allowed bool, action string, to ImportStatus) (time.Time, error) {
	if !allowed {
		return time.Time{}, shared.NewDomainError("INVALID_STATE", "Cannot "+action+" an import that is "+string(h.Status))
	}
	now := time.Now()
	h.Status = to
	h.UpdatedAt = now
	return now, nil
}

func (h *ImportHistory) StartProcessing(format string) error {
	now, err := h.move(h.Status == ImportStatusPending, "start", ImportStatusProcessing)
	if err != nil {
		return err
	}
	h.Format = format
	h.StartedAt = &now
	return nil
}

// Complete records a committed run and its row counts.
func (h *ImportHistory) Complete(shopName string, totalRows, createdRows, updatedRows int) error {
	now, err := h.move(h.Status == ImportStatusProcessing, "complete", ImportStatusCompleted)
	if err != nil {
		return err
	}
	h.ShopName = shopName
	h.TotalRows, h.CreatedRows, h.UpdatedRows = totalRows, createdRows, updatedRows
	h.CompletedAt = &now
	return nil
}

// Fail records a rolled back run. row is zero when no single row is at fault.
func (h *ImportHistory) Fail(message string, row int) error {
	now, err := h.move(!h.Status.IsTerminal(), "fail", ImportStatusFailed)
	if err != nil {
		return err
	}
	h.ErrorMessage = message
	h.ErrorRow = row
	h.CompletedAt = &now
	return nil
}

// Duration is zero before the run starts and grows until it ends.
func (h *ImportHistory) Duration() time.Duration {
	switch {
	case h.StartedAt == nil:
		return 0
	case h.CompletedAt == nil:
		return time.Since(*h.StartedAt)
	}
	return h.CompletedAt.Sub(*h.StartedAt)
}

type ImportHistoryRepository interface {
	// Save inserts a new run or updates an existing one by ID.
	Save(ctx context.Context, history *ImportHistory) error
	// FindByUser lists a user's runs, newest first.
	FindByUser(ctx context.Context, userID int64, limit int) ([]ImportHistory, error)
}
