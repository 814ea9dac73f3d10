package scheduler

import (
	"context"

	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// ShopRefresher downloads and imports the stored price list of a shop
type ShopRefresher interface {
	Refresh(ctx context.Context, shop catalog.Shop) (*importapp.Result, error)
}

// RefreshExecutor runs refresh jobs through a ShopRefresher
type RefreshExecutor struct {
	refresher ShopRefresher
	logger    *zap.Logger
}

// NewRefreshExecutor creates a new RefreshExecutor
func NewRefreshExecutor(refresher ShopRefresher, logger *zap.Logger) *RefreshExecutor {
	return &RefreshExecutor{refresher: refresher, logger: logger}
}

// Execute refreshes the job's shop
func (e *RefreshExecutor) Execute(ctx context.Context, job *Job) error {
	result, err := e.refresher.Refresh(ctx, job.Shop)
	if err != nil {
		return err
	}
	e.logger.Debug("Refresh imported rows",
		zap.Int64("shop_id", job.Shop.ID),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("created_rows", result.CreatedRows),
		zap.Int("updated_rows", result.UpdatedRows),
	)
	return nil
}
