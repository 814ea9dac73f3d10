package ordering

import (
	"context"
	"errors"
	"fmt"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/ordering"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Service handles basket and order operations
type Service struct {
	orders    ordering.OrderRepository
	items     ordering.OrderItemRepository
	offers    catalog.ProductInfoRepository
	contacts  identity.ContactRepository
	shops     catalog.ShopRepository
	publisher shared.EventPublisher
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// Repositories groups the stores the ordering Service reads and writes
type Repositories struct {
	Orders   ordering.OrderRepository
	Items    ordering.OrderItemRepository
	Offers   catalog.ProductInfoRepository
	Contacts identity.ContactRepository
	Shops    catalog.ShopRepository
}

// NewService creates a new ordering Service
func NewService(repos Repositories, logger *zap.Logger) *Service {
	return &Service{
		orders:   repos.Orders,
		items:    repos.Items,
		offers:   repos.Offers,
		contacts: repos.Contacts,
		shops:    repos.Shops,
		logger:   logger,
	}
}

// SetEventPublisher sets the publisher for order events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *Service) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// GetBasket returns the user's basket orders (zero or one) with their lines
func (s *Service) GetBasket(ctx context.Context, userID int64) ([]OrderResponse, error) {
	baskets, err := s.orders.FindBaskets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(baskets), nil
}

// AddItems adds lines to the user's basket, creating the basket on first use.
// All lines are inserted together: an offer already in the basket fails the call.
func (s *Service) AddItems(ctx context.Context, userID int64, inputs []BasketItemInput) (int64, error) {
	if len(inputs) == 0 {
		return 0, shared.NewDomainError("INVALID_INPUT", "Items are required")
	}

	for _, in := range inputs {
		if in.Quantity <= 0 {
			return 0, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
		}
		exists, err := s.offers.ExistsByID(ctx, in.ProductInfo)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Product %d does not exist", in.ProductInfo))
		}
	}

	basket, err := s.orders.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return 0, err
	}

	items := make([]*ordering.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := ordering.NewOrderItem(basket.ID, in.ProductInfo, in.Quantity)
		if err != nil {
			return 0, err
		}
		items = append(items, item)
	}

	if err := s.items.CreateAll(ctx, items); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return 0, shared.NewDomainError("ALREADY_EXISTS", "Product is already in the basket")
		}
		return 0, err
	}

	s.metrics.RecordBasketItemsAdded(ctx, len(items))
	logger.FromContextOr(ctx, s.logger).Debug("basket items added",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", basket.ID),
		zap.Int("count", len(items)),
	)
	return int64(len(items)), nil
}

// UpdateItems changes quantities of lines in the user's basket.
// Entries whose id and quantity are not both integers are skipped.
func (s *Service) UpdateItems(ctx context.Context, userID int64, updates []BasketItemUpdate) (int64, error) {
	basket, err := s.orders.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return 0, err
	}

	var updated int64
	for _, u := range updates {
		id, qty, ok := u.values()
		if !ok || qty <= 0 {
			continue
		}
		n, err := s.items.UpdateQuantity(ctx, basket.ID, id, qty)
		if err != nil {
			return updated, err
		}
		updated += n
	}
	return updated, nil
}

// DeleteItems removes basket lines given as a comma separated id list
func (s *Service) DeleteItems(ctx context.Context, userID int64, rawIDs string) (int64, error) {
	ids, err := shared.ParseIDList(rawIDs)
	if err != nil {
		return 0, err
	}

	basket, err := s.orders.GetOrCreateBasket(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.items.DeleteByIDs(ctx, basket.ID, ids)
}

// Checkout places the user's basket with one of the user's contacts
func (s *Service) Checkout(ctx context.Context, userID, orderID, contactID int64) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ordering", "checkout")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID,
		telemetry.SpanAttrUserID, userID,
	)

	order, err := s.orders.FindBasketByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.NewDomainError("NOT_FOUND", "order not found")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if _, err := s.contacts.FindByIDForUser(ctx, userID, contactID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			err = shared.NewDomainError("NOT_FOUND", "contact not found")
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := order.Checkout(contactID); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.FromContextOr(ctx, s.logger)
	if err := shared.PublishAndClear(ctx, s.publisher, order); err != nil {
		log.Error("failed to publish order events", zap.Int64("order_id", order.ID), zap.Error(err))
	}

	// the lines are not loaded by FindBasketByID
	placed, err := s.findPlaced(ctx, userID, order.ID)
	if err != nil {
		log.Warn("failed to reload placed order", zap.Int64("order_id", order.ID), zap.Error(err))
		placed = order
	}

	s.metrics.RecordOrderCreated(ctx, placed.TotalSum())
	telemetry.SetAttributes(span, telemetry.SpanAttrOrderState, string(placed.State))
	telemetry.SetOK(span)
	log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("contact_id", contactID),
	)

	response := ToOrderResponse(placed)
	return &response, nil
}

func (s *Service) findPlaced(ctx context.Context, userID, orderID int64) (*ordering.Order, error) {
	orders, err := s.orders.FindPlacedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == orderID {
			return &orders[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListOrders returns the user's placed orders, newest first
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]OrderResponse, error) {
	orders, err := s.orders.FindPlacedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}

// ListPartnerOrders returns placed orders holding at least one line of the
// partner's shop. A partner without a shop has no orders.
func (s *Service) ListPartnerOrders(ctx context.Context, userID int64) ([]OrderResponse, error) {
	shop, err := s.shops.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return []OrderResponse{}, nil
		}
		return nil, err
	}
	orders, err := s.orders.FindPlacedByShop(ctx, shop.ID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponses(orders), nil
}
