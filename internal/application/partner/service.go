// Package partner implements the operations of shop owners: order intake,
// price-list updates and the orders placed with their shop.
package partner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	catalogapp "github.com/shop/backend/internal/application/catalog"
	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/feed"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
	"github.com/shop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// FeedFetcher downloads a price list
type FeedFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Importer runs price-list imports
type Importer interface {
	Import(ctx context.Context, req importapp.Request) (*importapp.Result, error)
	ListHistory(ctx context.Context, userID int64, limit int) ([]importapp.HistoryResponse, error)
}

var errNoShop = shared.NewDomainError("NOT_FOUND", "shop not found")

// Service handles partner operations
type Service struct {
	shops     catalog.ShopRepository
	importer  Importer
	fetcher   FeedFetcher
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a new partner Service
func NewService(shops catalog.ShopRepository, importer Importer, fetcher FeedFetcher, logger *zap.Logger) *Service {
	return &Service{
		shops:    shops,
		importer: importer,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// SetEventPublisher sets the publisher for shop events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// GetState returns the caller's shop
func (s *Service) GetState(ctx context.Context, userID int64) (*catalogapp.ShopResponse, error) {
	shop, err := s.ownShop(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := catalogapp.ToShopResponse(shop)
	return &response, nil
}

// SetState switches order intake of the caller's shop
func (s *Service) SetState(ctx context.Context, userID int64, raw string) (*catalogapp.ShopResponse, error) {
	shop, err := s.ownShop(ctx, userID)
	if err != nil {
		return nil, err
	}

	shop.SetState(ParseState(raw))
	if err := s.shops.Save(ctx, shop); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.publisher, shop); err != nil {
		logger.FromContextOr(ctx, s.logger).Error("failed to publish shop events", zap.Int64("shop_id", shop.ID), zap.Error(err))
	}

	logger.FromContextOr(ctx, s.logger).Info("shop state changed",
		zap.Int64("shop_id", shop.ID),
		zap.Bool("state", shop.State),
	)
	response := catalogapp.ToShopResponse(shop)
	return &response, nil
}

// ParseState reads a form boolean. Only true, 1, yes and on (any case) are true.
func ParseState(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// UpdateFromURL downloads a YAML price list, imports it for the caller and
// remembers the URL for scheduled refreshes
func (s *Service) UpdateFromURL(ctx context.Context, userID int64, rawURL string) (*importapp.Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := feed.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if len(rawURL) > catalog.MaxShopURLLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "url cannot exceed 200 characters")
	}

	owner := userID
	result, err := s.fetchAndImport(ctx, rawURL, &owner, bulk.ImportSourceURL)
	if err != nil {
		return nil, err
	}

	shop, err := s.shops.FindByID(ctx, result.ShopID)
	if err != nil {
		return nil, err
	}
	if shop.URL != rawURL {
		if err := shop.SetURL(rawURL); err != nil {
			return nil, err
		}
		if err := s.shops.Save(ctx, shop); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Refresh re-imports a shop's price list from its stored URL
func (s *Service) Refresh(ctx context.Context, shop catalog.Shop) (*importapp.Result, error) {
	if shop.URL == "" {
		return nil, shared.NewDomainError("INVALID_STATE", "shop has no price list url")
	}
	return s.fetchAndImport(ctx, shop.URL, shop.UserID, bulk.ImportSourceSchedule)
}

func (s *Service) fetchAndImport(ctx context.Context, rawURL string, owner *int64, source bulk.ImportSource) (*importapp.Result, error) {
	data, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if _, ok := shared.AsDomainError(err); ok {
			return nil, err
		}
		logger.FromContextOr(ctx, s.logger).Warn("price list download failed", zap.String("url", rawURL), zap.Error(err))
		return nil, shared.NewDomainError("FEED_UNAVAILABLE", fmt.Sprintf("Could not download price list: %v", err))
	}

	return s.importer.Import(ctx, importapp.Request{
		FileName: feedFileName(rawURL),
		Data:     data,
		Format:   feedimport.FormatYAML,
		Source:   source,
		UserID:   owner,
	})
}

// Import imports an uploaded price list into the caller's shop. Flat rows are
// all written to the caller's shop when the caller already has one.
func (s *Service) Import(ctx context.Context, userID int64, fileName string, data []byte) (*importapp.Result, error) {
	owner := userID
	req := importapp.Request{
		FileName: fileName,
		Data:     data,
		Source:   bulk.ImportSourceUpload,
		UserID:   &owner,
	}

	shop, err := s.shops.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		req.ShopName = shop.Name
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return s.importer.Import(ctx, req)
}

// ImportHistory lists the caller's imports, newest first
func (s *Service) ImportHistory(ctx context.Context, userID int64, limit int) ([]importapp.HistoryResponse, error) {
	return s.importer.ListHistory(ctx, userID, limit)
}

func (s *Service) ownShop(ctx context.Context, userID int64) (*catalog.Shop, error) {
	shop, err := s.shops.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errNoShop
		}
		return nil, err
	}
	return shop, nil
}

// feedFileName derives a file name for history and archive keys from a URL
func feedFileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err == nil {
		if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
			return base
		}
	}
	return "feed.yaml"
}
