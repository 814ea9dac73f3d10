// Command importer loads a price list file into the catalog.
//
//	importer [-format yaml|csv|json] [-shop NAME] [-owner USER_ID] <file>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	catalogapp "github.com/shop/backend/internal/application/catalog"
	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/domain/bulk"
	"github.com/shop/backend/internal/infrastructure/cache"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/event"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	var (
		format  string
		shop    string
		ownerID int64
	)
	flag.StringVar(&format, "format", "", "Feed format (yaml, csv, json); detected from the file name when empty")
	flag.StringVar(&shop, "shop", "", "Write all flat rows to this shop")
	flag.Int64Var(&ownerID, "owner", 0, "User id that owns shops created by the import")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: importer [-format yaml|csv|json] [-shop NAME] [-owner USER_ID] <file>")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), format, shop, ownerID); err != nil {
		fmt.Fprintln(os.Stderr, "import failed:", err)
		var verr *importapp.ValidationError
		if errors.As(err, &verr) {
			for _, row := range verr.Rows {
				fmt.Fprintln(os.Stderr, "  -", row.Error())
			}
		}
		os.Exit(1)
	}
}

func run(path, format, shop string, ownerID int64) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.FromConfig(cfg.Log, cfg.App.Env)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	db, err := persistence.Open(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.GormMode)))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.EnsureSchema(); err != nil {
		return err
	}

	// the server may hold cached catalog lists; drop them once the import commits
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	defer cacheFactory.Close()
	bus := event.NewInMemoryEventBus(log)
	if cfg.Cache.Enabled {
		store, err := cacheFactory.CreateStore()
		if err != nil {
			return err
		}
		catalogService := catalogapp.NewService(
			persistence.NewGormShopRepository(db.DB),
			persistence.NewGormCategoryRepository(db.DB),
			persistence.NewGormProductInfoRepository(db.DB),
			catalogapp.WithCache(store, cfg.Cache.TTL),
		)
		bus.Subscribe(catalogapp.NewCacheInvalidationHandler(catalogService, log))
	}

	opts := []importapp.Option{
		importapp.WithHistory(persistence.NewGormImportHistoryRepository(db.DB)),
		importapp.WithPublisher(bus),
		importapp.WithParseOptions(feedimport.OptionsFrom(cfg.Feed)),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3FeedArchive(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		opts = append(opts, importapp.WithArchiver(archive))
	}
	importer := importapp.NewService(persistence.NewGormImportTransactor(db.DB), log, opts...)

	req := importapp.Request{
		FileName: filepath.Base(path),
		Data:     data,
		Format:   feedimport.Format(format),
		Source:   bulk.ImportSourceCLI,
		ShopName: shop,
	}
	if ownerID > 0 {
		req.UserID = &ownerID
	}

	result, err := importer.Import(ctx, req)
	if err != nil {
		return err
	}
	log.Info("Price list imported",
		zap.String("shop", result.Shop),
		zap.String("format", result.Format),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.CreatedRows),
		zap.Int("updated", result.UpdatedRows),
		zap.Int("parameters", result.Parameters),
		zap.String("archive_key", result.ArchiveKey),
	)
	return nil
}
