package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig controls GORM instrumentation.
type DBConfig struct {
	// Tracing registers otelgorm so every statement gets a client span.
	Tracing bool
	// LogFullSQL keeps bound variables in span statements. Development only.
	LogFullSQL bool
	// DBSystem is reported as db.system, e.g. "postgresql" or "sqlite".
	DBSystem           string
	SlowQueryThreshold time.Duration
	// TracerProvider overrides the global provider for otelgorm spans.
	TracerProvider trace.TracerProvider
}

// DBInstrumentation is a gorm.Plugin that times statements, flags slow ones
// on the current span and log, and records query metrics when a meter is set.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
}

type dbStartKey struct{}

// InstrumentDB registers tracing and metrics callbacks on db. A nil meter
// disables query metrics.
func InstrumentDB(db *gorm.DB, cfg DBConfig, meter metric.Meter, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithoutMetrics()}
		if cfg.DBSystem != "" {
			opts = append(opts, otelgorm.WithDBName(cfg.DBSystem))
		}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if cfg.TracerProvider != nil {
			opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	plugin := &DBInstrumentation{config: cfg, logger: logger}
	if meter != nil {
		if err := plugin.initMetrics(meter, db); err != nil {
			return err
		}
	}
	if err := db.Use(plugin); err != nil {
		return err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.Tracing),
		zap.Bool("metrics", meter != nil),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

func (p *DBInstrumentation) initMetrics(meter metric.Meter, db *gorm.DB) error {
	var err error
	if p.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries by operation", "{query}"); err != nil {
		return err
	}
	if p.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return err
	}
	if p.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Total number of slow database queries by table", "{query}"); err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			stats := sqlDB.Stats()
			o.Observe(int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
			o.Observe(int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
			o.Observe(int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
			o.Observe(int64(stats.MaxOpenConnections), metric.WithAttributes(AttrDBState.String("max")))
			return nil
		}),
	)
	return err
}

// Name implements gorm.Plugin
func (p *DBInstrumentation) Name() string {
	return "shop:db_instrumentation"
}

// Initialize implements gorm.Plugin
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	type registrar interface {
		Register(name string, fn func(*gorm.DB)) error
	}
	cb := db.Callback()
	hooks := []struct {
		name          string
		operation     string
		before, after registrar
	}{
		{"create", "INSERT", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create")},
		{"query", "SELECT", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query")},
		{"update", "UPDATE", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update")},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete")},
		{"row", "", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row")},
		{"raw", "", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw")},
	}

	for _, h := range hooks {
		operation := h.operation
		if err := h.before.Register("shop_db:before_"+h.name, p.before); err != nil {
			return err
		}
		if err := h.after.Register("shop_db:after_"+h.name, func(db *gorm.DB) {
			p.after(db, operation)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *DBInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbStartKey{}, time.Now())
}

func (p *DBInstrumentation) after(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	started, ok := ctx.Value(dbStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(started)
	if operation == "" {
		operation = detectOperation(db.Statement.SQL.String())
	}
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}
	slow := elapsed > p.config.SlowQueryThreshold

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.sql.table", table),
		)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
		if slow {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThreshold.Milliseconds()),
			))
		}
	}

	if p.queryTotal != nil {
		p.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
		p.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(operation))
		if slow {
			p.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
		}
	}

	if slow {
		p.logger.Warn("Slow query",
			zap.String("operation", operation),
			zap.String("table", table),
			zap.Duration("duration", elapsed),
			zap.String("trace_id", GetTraceID(ctx)),
		)
	}
}

func detectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}
