package importapp

import (
	"context"
	"time"

	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultHistoryLimit caps ListHistory when no limit is given
const DefaultHistoryLimit = 20

// ListHistory returns the latest imports started by a user, newest first
func (s *Service) ListHistory(ctx context.Context, userID int64, limit int) ([]HistoryResponse, error) {
	if s.history == nil {
		return []HistoryResponse{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = DefaultHistoryLimit
	}

	records, err := s.history.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	responses := make([]HistoryResponse, len(records))
	for i := range records {
		responses[i] = ToHistoryResponse(&records[i])
	}
	return responses, nil
}

// History writes are best effort: a failing history table never fails an import.

func (s *Service) startHistory(ctx context.Context, req Request) *bulk.ImportHistory {
	if s.history == nil {
		return nil
	}
	source := req.Source
	if !source.IsValid() {
		source = bulk.ImportSourceCLI
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = "feed"
	}

	history, err := bulk.NewImportHistory(source, fileName, req.UserID)
	if err != nil {
		s.logHistoryError(ctx, err)
		return nil
	}
	if err := s.history.Save(ctx, history); err != nil {
		s.logHistoryError(ctx, err)
		return nil
	}
	return history
}

func (s *Service) markProcessing(ctx context.Context, history *bulk.ImportHistory, format string) {
	if history == nil {
		return
	}
	if err := history.StartProcessing(format); err != nil {
		s.logHistoryError(ctx, err)
		return
	}
	if err := s.history.Save(ctx, history); err != nil {
		s.logHistoryError(ctx, err)
	}
}

// finish closes the history record and records metrics. result is nil when importErr is set.
func (s *Service) finish(ctx context.Context, history *bulk.ImportHistory, req Request, format string, result *Result, importErr error, started time.Time) {
	outcome := telemetry.ImportOutcomeSuccess
	var shopID int64
	rows := 0
	if importErr != nil {
		outcome = telemetry.ImportOutcomeFailed
	} else {
		shopID = result.ShopID
		rows = result.TotalRows
	}
	s.metrics.RecordImport(ctx, shopID, format, string(req.Source), outcome, rows, time.Since(started).Seconds())

	if history == nil {
		return
	}
	var err error
	if importErr != nil {
		err = history.Fail(importErr.Error(), failedRow(importErr))
	} else {
		err = history.Complete(result.Shop, result.TotalRows, result.CreatedRows, result.UpdatedRows)
	}
	if err != nil {
		s.logHistoryError(ctx, err)
		return
	}
	if err := s.history.Save(ctx, history); err != nil {
		s.logHistoryError(ctx, err)
	}
}

func (s *Service) logHistoryError(ctx context.Context, err error) {
	logger.FromContextOr(ctx, s.logger).Warn("failed to record import history", zap.Error(err))
}
