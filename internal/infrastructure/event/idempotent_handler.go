package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shop/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultClaimTTL is how long a delivered event stays claimed.
const DefaultClaimTTL = 24 * time.Hour

// DeliveryStats counts outcomes seen by an IdempotentHandler.
type DeliveryStats struct {
	Delivered int64 `json:"delivered"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler runs the wrapped handler at most once per event.
// Claims are scoped by handler name, so two handlers sharing a store
// each see every event once. A failed delivery releases its claim and
// the next delivery of the same event retries.
type IdempotentHandler struct {
	next   shared.EventHandler
	store  shared.IdempotencyStore
	logger *zap.Logger
	name   string
	ttl    time.Duration

	delivered atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// IdempotentOption configures an IdempotentHandler.
type IdempotentOption func(*IdempotentHandler)

// WithClaimTTL overrides DefaultClaimTTL. Non-positive values are ignored.
func WithClaimTTL(ttl time.Duration) IdempotentOption {
	return func(h *IdempotentHandler) {
		if ttl > 0 {
			h.ttl = ttl
		}
	}
}

// WithHandlerName sets the claim scope; the wrapped handler's type name by default.
func WithHandlerName(name string) IdempotentOption {
	return func(h *IdempotentHandler) {
		if name != "" {
			h.name = name
		}
	}
}

func NewIdempotentHandler(next shared.EventHandler, store shared.IdempotencyStore, logger *zap.Logger, opts ...IdempotentOption) *IdempotentHandler {
	h := &IdempotentHandler{
		next:   next,
		store:  store,
		logger: logger,
		name:   fmt.Sprintf("%T", next),
		ttl:    DefaultClaimTTL,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.next.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	key := h.claimKey(event)
	log := h.logger.With(
		zap.String("handler", h.name),
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
	)

	claimed, err := h.store.Claim(ctx, key, h.ttl)
	switch {
	case err != nil:
		log.Warn("claim failed, delivering unguarded", zap.Error(err))
	case !claimed:
		h.skipped.Add(1)
		log.Debug("event already delivered")
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		if claimed {
			if relErr := h.store.Release(ctx, key); relErr != nil {
				log.Warn("release claim failed", zap.Error(relErr))
			}
		}
		return err
	}
	h.delivered.Add(1)
	return nil
}

// Stats returns a snapshot of the delivery counters.
func (h *IdempotentHandler) Stats() DeliveryStats {
	return DeliveryStats{
		Delivered: h.delivered.Load(),
		Skipped:   h.skipped.Load(),
		Failed:    h.failed.Load(),
	}
}

// Unwrap returns the guarded handler.
func (h *IdempotentHandler) Unwrap() shared.EventHandler {
	return h.next
}

func (h *IdempotentHandler) claimKey(event shared.DomainEvent) string {
	return h.name + ":" + event.EventID().String()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
