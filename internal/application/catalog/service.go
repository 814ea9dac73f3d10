package catalog

import (
	"context"
	"time"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/infrastructure/cache"
	"github.com/shop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Cache keys. Everything under CacheKeyPrefix is dropped after an import.
const (
	CacheKeyPrefix     = "catalog:"
	CacheKeyCategories = CacheKeyPrefix + "categories"
	CacheKeyShops      = CacheKeyPrefix + "shops"
)

// DefaultCacheTTL applies when the service is built without an explicit TTL
const DefaultCacheTTL = 5 * time.Minute

// Service serves the public catalog: categories, shops and offers.
type Service struct {
	shops      catalog.ShopRepository
	categories catalog.CategoryRepository
	products   catalog.ProductInfoRepository
	cache      cache.Store
	ttl        time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithCache enables read-through caching of the category and shop lists.
// A nil store leaves caching disabled.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = store
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewService creates a new catalog Service
func NewService(
	shops catalog.ShopRepository,
	categories catalog.CategoryRepository,
	products catalog.ProductInfoRepository,
	opts ...Option,
) *Service {
	s := &Service{
		shops:      shops,
		categories: categories,
		products:   products,
		ttl:        DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListCategories returns all categories ordered by name
func (s *Service) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	return cachedList(ctx, s, CacheKeyCategories, func() ([]CategoryResponse, error) {
		categories, err := s.categories.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		responses := make([]CategoryResponse, len(categories))
		for i := range categories {
			responses[i] = ToCategoryResponse(&categories[i])
		}
		return responses, nil
	})
}

// ListShops returns the shops that accept orders, ordered by name
func (s *Service) ListShops(ctx context.Context) ([]ShopResponse, error) {
	return cachedList(ctx, s, CacheKeyShops, func() ([]ShopResponse, error) {
		shops, err := s.shops.FindActive(ctx)
		if err != nil {
			return nil, err
		}
		responses := make([]ShopResponse, len(shops))
		for i := range shops {
			responses[i] = ToShopResponse(&shops[i])
		}
		return responses, nil
	})
}

// SearchProducts returns offers of active shops, optionally narrowed by shop and category
func (s *Service) SearchProducts(ctx context.Context, filter ProductSearchFilter) ([]ProductInfoResponse, error) {
	items, err := s.products.Search(ctx, catalog.ProductInfoFilter{
		ShopID:     filter.ShopID,
		CategoryID: filter.CategoryID,
	})
	if err != nil {
		return nil, err
	}
	return ToProductInfoResponses(items), nil
}

// GetProduct returns one offer of an active shop
func (s *Service) GetProduct(ctx context.Context, id int64) (*ProductInfoResponse, error) {
	pi, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductInfoResponse(pi)
	return &resp, nil
}

// InvalidateCache drops every cached catalog list
func (s *Service) InvalidateCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePrefix(ctx, CacheKeyPrefix)
}

// cachedList serves key from the cache, falling back to load on a miss.
// Cache failures are logged and treated as misses.
func cachedList[T any](ctx context.Context, s *Service, key string, load func() ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return load()
	}

	cached, found, err := cache.GetJSON[[]T](ctx, s.cache, key)
	if err != nil {
		logger.L(ctx).Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if found {
		return cached, nil
	}

	values, err := load()
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, values, s.ttl); err != nil {
		logger.L(ctx).Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
	return values, nil
}
