package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database with the full schema.
// One connection keeps every query on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "sqlite", db.System())
	assert.Equal(t, 1, db.sql.Stats().MaxOpenConnections)
	assert.NoError(t, db.PingContext(context.Background()))

	require.NoError(t, db.EnsureSchema())
	assert.True(t, db.DB.Migrator().HasTable(&models.OrderModel{}))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared&_foreign_keys=on", sqliteDSN(":memory:"))
	assert.Equal(t, "shop.db?_foreign_keys=on&_busy_timeout=5000", sqliteDSN("shop.db"))
	assert.Equal(t, "shop.db?mode=ro", sqliteDSN("shop.db?mode=ro"))
}

func TestDatabase_PostgresLeavesSchemaAlone(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing()
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{})
	require.NoError(t, err)
	db := &Database{DB: gdb, sql: mockDB, driver: "postgres"}

	assert.Equal(t, "postgresql", db.System())
	require.NoError(t, db.EnsureSchema(), "no statements expected")

	mock.ExpectPing()
	require.NoError(t, db.PingContext(context.Background()))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), shared.ErrNotFound},
		{"translated duplicate", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"postgres duplicate", errors.New(`ERROR: duplicate key value violates unique constraint "orders_pkey" (SQLSTATE 23505)`), shared.ErrAlreadyExists},
		{"sqlite duplicate", errors.New("UNIQUE constraint failed: order_items.order_id, order_items.product_info_id"), shared.ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		assert.Equal(t, assert.AnError, translateError(assert.AnError))
	})
}
