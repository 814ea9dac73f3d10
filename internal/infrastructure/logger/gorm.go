package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold above which a statement logs at warn.
// Import transactions upsert row by row, so it sits above GORM's default.
const DefaultSlowQuery = 300 * time.Millisecond

// GormLogger routes GORM output through zap. Statements run inside a
// request carry its request_id and user_id.
type GormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold changes DefaultSlowQuery; zero disables slow query logging.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = d }
}

func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{
		logger: base.Named("gorm").WithOptions(zap.AddCallerSkip(3)),
		level:  level,
		slow:   DefaultSlowQuery,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.with(ctx).Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.with(ctx).Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.with(ctx).Sugar().Errorf(msg, data...)
	}
}

// Trace logs a finished statement. Missing rows are expected on lookups
// and are never logged as errors.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	if !(failed && l.level >= gormlogger.Error) && !(slow && l.level >= gormlogger.Warn) && l.level < gormlogger.Info {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	log := l.with(ctx)
	switch {
	case failed && l.level >= gormlogger.Error:
		log.Error("sql error", append(fields, zap.Error(err))...)
	case slow && l.level >= gormlogger.Warn:
		log.Warn("slow sql", append(fields, zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		log.Debug("sql", fields...)
	}
}

func (l *GormLogger) with(ctx context.Context) *zap.Logger {
	log := l.logger
	if id := GetRequestID(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	if id := GetUserID(ctx); id != "" {
		log = log.With(zap.String("user_id", id))
	}
	return log
}

// MapGormLogLevel maps the log.gorm_mode setting; unknown values mean warn.
func MapGormLogLevel(mode string) gormlogger.LogLevel {
	switch mode {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
