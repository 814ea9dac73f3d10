// Package telemetry wires OpenTelemetry tracing and metrics for the shop.
package telemetry

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

var importDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// BusinessMetrics counts shop activity. The zero pointer is a valid
// recorder that drops everything, so services may hold a nil one.
type BusinessMetrics struct {
	ordersPlaced   *Counter
	orderKopecks   *Counter
	basketLines    *Counter
	importRuns     *Counter
	importRows     *Counter
	notifications  *Counter
	importDuration *Histogram
}

type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BusinessMetrics{}
	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.ordersPlaced, "shop_order_created_total", "Orders placed from baskets", "{orders}"},
		{&bm.orderKopecks, "shop_order_amount_total", "Placed order amount in kopecks", "{kopecks}"},
		{&bm.basketLines, "shop_basket_items_added_total", "Lines added to baskets", "{items}"},
		{&bm.importRuns, "shop_import_runs_total", "Price list import runs by outcome", "{runs}"},
		{&bm.importRows, "shop_import_rows_total", "Price list rows imported", "{rows}"},
		{&bm.notifications, "shop_notifications_sent_total", "Notification emails by outcome", "{emails}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	bm.importDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "shop_import_duration_seconds",
		Description: "Price list import duration",
		Unit:        "s",
		Boundaries:  importDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Logger != nil {
		cfg.Logger.Debug("business metrics registered", zap.Int("instruments", len(counters)+1))
	}
	return bm, nil
}

// RecordOrderCreated counts one placed order and adds its total in kopecks.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, total decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.ordersPlaced.Inc(ctx)
	bm.orderKopecks.Add(ctx, total.Shift(2).IntPart())
}

func (bm *BusinessMetrics) RecordBasketItemsAdded(ctx context.Context, count int) {
	if bm != nil && count > 0 {
		bm.basketLines.Add(ctx, int64(count))
	}
}

type ImportOutcome string

const (
	ImportOutcomeSuccess ImportOutcome = "success"
	ImportOutcomeFailed  ImportOutcome = "failed"
)

// RecordImport records one import run. Rows are only counted for
// successful runs.
func (bm *BusinessMetrics) RecordImport(ctx context.Context, shopID int64, format, source string, outcome ImportOutcome, rows int, seconds float64) {
	if bm == nil {
		return
	}
	formatAttr := AttrImportFormat.String(format)
	sourceAttr := AttrImportSource.String(source)

	bm.importRuns.Inc(ctx, formatAttr, sourceAttr, AttrImportStatus.String(string(outcome)))
	bm.importDuration.Record(ctx, seconds, formatAttr, sourceAttr)
	if outcome == ImportOutcomeSuccess && rows > 0 {
		bm.importRows.Add(ctx, int64(rows), formatAttr, sourceAttr, AttrShopID.String(strconv.FormatInt(shopID, 10)))
	}
}

func (bm *BusinessMetrics) RecordNotification(ctx context.Context, eventType string, err error) {
	if bm == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	bm.notifications.Inc(ctx, attribute.String("event_type", eventType), attribute.String("status", status))
}

var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string { return e.Op + ": " + e.Err }
