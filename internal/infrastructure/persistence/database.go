package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database owns the gorm handle and its connection pool.
type Database struct {
	DB     *gorm.DB
	sql    *sql.DB
	driver string
}

// Open connects with cfg and verifies the connection. A nil logger
// silences gorm.
func Open(cfg *config.DatabaseConfig, log gormlogger.Interface) (*Database, error) {
	if log == nil {
		log = gormlogger.Discard
	}

	dialector := postgres.Open(cfg.DSN())
	if cfg.Driver == "sqlite" {
		dialector = sqlite.Open(sqliteDSN(cfg.Path))
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, cfg)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	return &Database{DB: gdb, sql: sqlDB, driver: cfg.Driver}, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == "sqlite" {
		// one writer at a time, so one connection
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func sqliteDSN(path string) string {
	switch {
	case path == ":memory:":
		return "file::memory:?cache=shared&_foreign_keys=on"
	case strings.Contains(path, "?"):
		return path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// System names the database the way OpenTelemetry's db.system does.
func (d *Database) System() string {
	if d.driver == "sqlite" {
		return "sqlite"
	}
	return "postgresql"
}

// EnsureSchema creates the tables on sqlite, which has no migration
// history. Postgres schemas belong to cmd/migrate and are left alone.
func (d *Database) EnsureSchema() error {
	if d.driver != "sqlite" {
		return nil
	}
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

func (d *Database) PingContext(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.sql.Close()
}
