package catalog

import (
	"context"
	"fmt"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CacheInvalidationHandler drops cached catalog lists when the catalog changes:
// after a price list import or when a shop starts or stops accepting orders.
type CacheInvalidationHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewCacheInvalidationHandler creates a new CacheInvalidationHandler
func NewCacheInvalidationHandler(service *Service, logger *zap.Logger) *CacheInvalidationHandler {
	return &CacheInvalidationHandler{
		service: service,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *CacheInvalidationHandler) EventTypes() []string {
	return []string{
		catalog.EventTypePriceListImported,
		catalog.EventTypeShopStateChanged,
	}
}

// Handle invalidates the catalog cache
func (h *CacheInvalidationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.service.InvalidateCache(ctx); err != nil {
		h.logger.Error("failed to invalidate catalog cache",
			zap.String("event_type", event.EventType()),
			zap.Int64("shop_id", event.AggregateID()),
			zap.Error(err),
		)
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}

	h.logger.Debug("catalog cache invalidated",
		zap.String("event_type", event.EventType()),
		zap.Int64("shop_id", event.AggregateID()),
	)
	return nil
}
