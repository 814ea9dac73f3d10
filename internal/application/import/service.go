package importapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// FeedArchiver keeps a copy of each committed price list
type FeedArchiver interface {
	Archive(ctx context.Context, shop, fileName string, data []byte) (string, error)
}

// Service parses price lists and upserts them into the catalog.
// One call is one transaction: any failing row rolls the whole file back.
type Service struct {
	transactor catalog.ImportTransactor
	history    bulk.ImportHistoryRepository
	publisher  shared.EventPublisher
	archiver   FeedArchiver
	metrics    *telemetry.BusinessMetrics
	options    feedimport.Options
	logger     *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithHistory records every run in the import history
func WithHistory(repo bulk.ImportHistoryRepository) Option {
	return func(s *Service) { s.history = repo }
}

// WithPublisher publishes PriceListImported after each commit
func WithPublisher(publisher shared.EventPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithArchiver stores committed feeds
func WithArchiver(archiver FeedArchiver) Option {
	return func(s *Service) { s.archiver = archiver }
}

// WithMetrics records import counters
func WithMetrics(metrics *telemetry.BusinessMetrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithParseOptions sets charset, delimiter and size limits for parsing
func WithParseOptions(opts feedimport.Options) Option {
	return func(s *Service) { s.options = opts }
}

// NewService creates a new import Service
func NewService(transactor catalog.ImportTransactor, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		transactor: transactor,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// shopTally counts the offers written for one shop
type shopTally struct {
	shop *catalog.Shop
	rows int
}

// Import parses req and upserts its rows in one transaction
func (s *Service) Import(ctx context.Context, req Request) (*Result, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "importer", "import")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFileName, req.FileName,
		"source", string(req.Source),
	)

	log := logger.FromContextOr(ctx, s.logger).With(
		zap.String("file_name", req.FileName),
		zap.String("source", string(req.Source)),
	)
	started := time.Now()

	history := s.startHistory(ctx, req)

	doc, err := s.parse(req)
	if err != nil {
		s.finish(ctx, history, req, "", nil, err, started)
		telemetry.RecordError(span, err)
		log.Warn("price list rejected", zap.Error(err))
		return nil, err
	}
	s.markProcessing(ctx, history, string(doc.Format))
	telemetry.SetAttributes(span,
		telemetry.SpanAttrFormat, string(doc.Format),
		telemetry.SpanAttrRows, doc.TotalRows(),
	)

	result := &Result{Format: string(doc.Format), TotalRows: doc.TotalRows()}
	var shops []*shopTally

	err = s.transactor.WithinImport(ctx, func(ctx context.Context, w catalog.Writer) error {
		var err error
		if doc.Feed != nil {
			shops, err = s.writeFeed(ctx, w, doc.Feed, req.UserID, result)
		} else {
			shops, err = s.writeRows(ctx, w, doc.Rows, req, result)
		}
		return err
	})
	if err != nil {
		s.finish(ctx, history, req, result.Format, nil, err, started)
		telemetry.RecordError(span, err)
		log.Warn("price list import rolled back", zap.Int("row", failedRow(err)), zap.Error(err))
		return nil, err
	}

	if len(shops) > 0 {
		result.ShopID = shops[0].shop.ID
		result.Shop = shops[0].shop.Name
	}
	s.finish(ctx, history, req, result.Format, result, nil, started)

	s.publishImported(ctx, log, shops)

	if s.archiver != nil {
		key, err := s.archiver.Archive(ctx, result.Shop, req.FileName, req.Data)
		if err != nil {
			log.Warn("failed to archive price list", zap.String("shop", result.Shop), zap.Error(err))
		} else {
			result.ArchiveKey = key
		}
	}

	telemetry.SetOK(span)
	log.Info("price list imported",
		zap.String("format", result.Format),
		zap.String("shop", result.Shop),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("created_rows", result.CreatedRows),
		zap.Int("updated_rows", result.UpdatedRows),
		zap.Int("parameters", result.Parameters),
		zap.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (s *Service) publishImported(ctx context.Context, log *zap.Logger, shops []*shopTally) {
	if s.publisher == nil {
		return
	}
	for _, tally := range shops {
		event := catalog.NewPriceListImportedEvent(tally.shop.ID, tally.shop.Name, tally.rows)
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Error("failed to publish price list imported event",
				zap.Int64("shop_id", tally.shop.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) parse(req Request) (*feedimport.Document, error) {
	var (
		doc *feedimport.Document
		err error
	)
	if req.Format != "" {
		doc, err = feedimport.ParseAs(req.Format, req.Data, s.options)
	} else {
		doc, err = feedimport.Parse(req.FileName, req.Data, s.options)
	}
	if err != nil {
		return nil, translateParseError(err)
	}
	if doc.Feed != nil && doc.Feed.Shop == "" {
		return nil, shared.NewDomainError(feedimport.ErrCodeImportRequiredField, "Price list does not name a shop")
	}
	return doc, nil
}

// writeFeed upserts a structured feed. The shop is resolved by owner when
// ownerID is set, otherwise by name.
func (s *Service) writeFeed(ctx context.Context, w catalog.Writer, feed *feedimport.Feed, ownerID *int64, result *Result) ([]*shopTally, error) {
	shop, _, err := w.EnsureShop(ctx, feed.Shop, ownerID)
	if err != nil {
		return nil, fmt.Errorf("shop %q: %w", feed.Shop, err)
	}
	tally := &shopTally{shop: shop}

	for _, fc := range feed.Categories {
		category, err := w.EnsureCategory(ctx, fc.ID, fc.Name)
		if err != nil {
			return nil, fmt.Errorf("category %d: %w", fc.ID, err)
		}
		if err := w.LinkShopCategory(ctx, shop.ID, category.ID); err != nil {
			return nil, fmt.Errorf("category %d: %w", fc.ID, err)
		}
	}

	for _, good := range feed.Goods {
		category, err := w.EnsureCategory(ctx, good.CategoryID, feed.CategoryName(good.CategoryID))
		if err != nil {
			return nil, &RowFailure{Row: good.Row, Err: err}
		}
		if err := w.LinkShopCategory(ctx, shop.ID, category.ID); err != nil {
			return nil, &RowFailure{Row: good.Row, Err: err}
		}
		product, err := w.EnsureProduct(ctx, good.Name, category.ID)
		if err != nil {
			return nil, &RowFailure{Row: good.Row, Err: err}
		}

		offer := catalog.OfferValues{
			Model:    good.Model,
			Price:    good.Price,
			PriceRRC: good.PriceRRC,
			Quantity: good.Quantity,
		}
		if err := s.upsertOffer(ctx, w, product.ID, product.ID, shop.ID, good.ExternalID, offer, good.Parameters, result); err != nil {
			return nil, &RowFailure{Row: good.Row, Err: err}
		}
		tally.rows++
	}
	return []*shopTally{tally}, nil
}

// writeRows upserts flat rows. Offers are keyed by (shop, sku).
func (s *Service) writeRows(ctx context.Context, w catalog.Writer, rows []feedimport.FlatRow, req Request, result *Result) ([]*shopTally, error) {
	override := req.ShopName
	if override == "" && req.UserID != nil && len(rows) > 0 {
		// a user owns a single shop, so all rows go to the first row's shop
		override = rows[0].Shop
	}

	byName := make(map[string]*shopTally)
	var shops []*shopTally

	for _, row := range rows {
		name := row.Shop
		if override != "" {
			name = override
		}

		tally, ok := byName[name]
		if !ok {
			shop, _, err := w.EnsureShop(ctx, name, req.UserID)
			if err != nil {
				return nil, &RowFailure{Row: row.Row, Err: err}
			}
			tally = &shopTally{shop: shop}
			byName[name] = tally
			shops = append(shops, tally)
		}

		category, err := w.EnsureCategory(ctx, 0, row.Category)
		if err != nil {
			return nil, &RowFailure{Row: row.Row, Err: err}
		}
		if err := w.LinkShopCategory(ctx, tally.shop.ID, category.ID); err != nil {
			return nil, &RowFailure{Row: row.Row, Err: err}
		}
		product, err := w.EnsureProduct(ctx, row.Product, category.ID)
		if err != nil {
			return nil, &RowFailure{Row: row.Row, Err: err}
		}

		offer := catalog.OfferValues{
			Price:    row.Price,
			PriceRRC: row.PriceRRC,
			Quantity: row.Quantity,
		}
		if err := s.upsertOffer(ctx, w, 0, product.ID, tally.shop.ID, row.SKU, offer, row.Parameters, result); err != nil {
			return nil, &RowFailure{Row: row.Row, Err: err}
		}
		tally.rows++
	}
	return shops, nil
}

// upsertOffer finds the offer by (lookupProductID, shop, externalID), creating
// it when missing, overwrites its commercial fields and writes its parameters.
// A zero lookupProductID matches any product of the shop.
func (s *Service) upsertOffer(
	ctx context.Context,
	w catalog.Writer,
	lookupProductID, productID, shopID int64,
	externalID string,
	values catalog.OfferValues,
	params map[string]string,
	result *Result,
) error {
	offer, err := w.FindOffer(ctx, lookupProductID, shopID, externalID)
	switch {
	case err == nil:
		offer.ProductID = productID
		result.UpdatedRows++
	case errors.Is(err, shared.ErrNotFound):
		offer, err = catalog.NewProductInfo(productID, shopID, externalID)
		if err != nil {
			return err
		}
		result.CreatedRows++
	default:
		return err
	}

	if err := offer.UpdateOffer(values.Model, values.Price, values.PriceRRC, values.Quantity); err != nil {
		return err
	}
	if err := w.SaveOffer(ctx, offer); err != nil {
		return err
	}

	for name, value := range params {
		if err := w.SetParameter(ctx, offer.ID, name, value); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		result.Parameters++
	}
	return nil
}
