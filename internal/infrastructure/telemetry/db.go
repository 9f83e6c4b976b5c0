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

// DBConfig controls database instrumentation.
type DBConfig struct {
	TraceEnabled       bool
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DBInstrumentation is a GORM plugin that adds otelgorm spans, query
// counters and latency histograms, slow-query span events and observable
// connection pool gauges.
type DBInstrumentation struct {
	cfg    DBConfig
	meter  metric.Meter
	logger *zap.Logger

	queryTotal    *Counter
	queryDuration *Histogram
	slowQueries   *Counter
}

// NewDBInstrumentation creates the plugin; register it with db.Use
func NewDBInstrumentation(cfg DBConfig, meters *MeterProvider, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	meter := meters.Meter("db.client")

	queryTotal, err := NewCounter(meter, "db_query_total", "Database queries by operation and table", "{query}")
	if err != nil {
		return nil, err
	}
	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	slowQueries, err := NewCounter(meter, "db_slow_query_total", "Queries slower than the configured threshold", "{query}")
	if err != nil {
		return nil, err
	}

	return &DBInstrumentation{
		cfg:           cfg,
		meter:         meter,
		logger:        logger,
		queryTotal:    queryTotal,
		queryDuration: queryDuration,
		slowQueries:   slowQueries,
	}, nil
}

// Name implements gorm.Plugin
func (p *DBInstrumentation) Name() string {
	return "linkmarket:db_instrumentation"
}

// Initialize implements gorm.Plugin
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	if p.cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
		if !p.cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("lm_db:before_create", p.before),
		cb.Create().After("gorm:create").Register("lm_db:after_create", p.after),
		cb.Query().Before("gorm:query").Register("lm_db:before_query", p.before),
		cb.Query().After("gorm:query").Register("lm_db:after_query", p.after),
		cb.Update().Before("gorm:update").Register("lm_db:before_update", p.before),
		cb.Update().After("gorm:update").Register("lm_db:after_update", p.after),
		cb.Delete().Before("gorm:delete").Register("lm_db:before_delete", p.before),
		cb.Delete().After("gorm:delete").Register("lm_db:after_delete", p.after),
		cb.Row().Before("gorm:row").Register("lm_db:before_row", p.before),
		cb.Row().After("gorm:row").Register("lm_db:after_row", p.after),
		cb.Raw().Before("gorm:raw").Register("lm_db:before_raw", p.before),
		cb.Raw().After("gorm:raw").Register("lm_db:after_raw", p.after),
	)
	if err != nil {
		return err
	}

	if err := p.observePool(db); err != nil {
		return err
	}

	p.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", p.cfg.TraceEnabled),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThreshold))
	return nil
}

type queryStartKey struct{}

func (p *DBInstrumentation) before(db *gorm.DB) {
	if db.Statement.Context == nil {
		db.Statement.Context = context.Background()
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
}

func (p *DBInstrumentation) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	op := operationOf(db.Statement.SQL.String())
	attrs := []attribute.KeyValue{AttrDBOperation.String(op), AttrDBTable.String(db.Statement.Table)}

	p.queryTotal.Inc(ctx, attrs...)
	p.queryDuration.RecordDuration(ctx, elapsed, attrs...)

	span := trace.SpanFromContext(ctx)
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}
	if elapsed > p.cfg.SlowQueryThreshold {
		p.slowQueries.Inc(ctx, attrs...)
		if span.IsRecording() {
			span.AddEvent("slow_query", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.cfg.SlowQueryThreshold.Milliseconds()),
			))
		}
		p.logger.Warn("Slow query",
			zap.String("operation", op),
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed))
	}
}

// observePool reports database/sql pool stats at each metric collection
func (p *DBInstrumentation) observePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := p.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := p.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"), metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	_, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		return nil
	}, conns, maxConns)
	return err
}

func operationOf(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, op) {
			return op
		}
	}
	return "OTHER"
}

var _ gorm.Plugin = (*DBInstrumentation)(nil)
