package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trade-dashboard/internal/dataset"
	"trade-dashboard/internal/models"
	"trade-dashboard/internal/observability"
	"trade-dashboard/internal/pipeline"
	"trade-dashboard/internal/presentation"
)

// ErrNotLoaded is returned by queries issued before a dataset is published.
var ErrNotLoaded = errors.New("dataset not loaded")

type Options struct {
	Currency   string
	Comparator pipeline.Comparator
	TopN       int
	Logger     *slog.Logger
}

// Query is one dashboard state as chosen in the UI controls.
type Query struct {
	Countries []string           `json:"countries" validate:"max=300,dive,max=200"`
	Years     []int              `json:"years" validate:"max=100,dive,min=1900,max=2100"`
	Months    []int              `json:"months" validate:"max=12,dive,min=1,max=12"`
	Importer  string             `json:"importer" validate:"max=200"`
	Measure   models.Measure     `json:"measure" validate:"omitempty,oneof=CIF FOB TAX"`
	Theme     presentation.Theme `json:"theme" validate:"omitempty,oneof=dark light"`
}

// FilterSpec translates the control values into filter constraints.
func (q Query) FilterSpec() models.FilterSpec {
	return pipeline.NewFilter().
		In(models.FieldCountry, q.Countries...).
		InInts(models.FieldYear, q.Years...).
		InInts(models.FieldMonth, q.Months...).
		Equals(models.FieldImporter, q.Importer).
		Build()
}

func (q Query) measure() models.Measure {
	if q.Measure == "" {
		return models.DefaultMeasure
	}
	return q.Measure
}

func (q Query) theme() presentation.Theme {
	if q.Theme == "" {
		return presentation.ThemeLight
	}
	return q.Theme
}

// Analytics owns the loaded table and runs the filter, aggregate and
// present pipeline against it. The table is replaced wholesale, never mutated.
type Analytics struct {
	mu       sync.RWMutex
	table    *models.Table
	options  models.FilterOptions
	report   dataset.Report
	source   string
	loadedAt time.Time

	renders atomic.Int64

	currency string
	agg      pipeline.Options
	logger   *slog.Logger
}

func NewAnalytics(opts Options) *Analytics {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Currency == "" {
		opts.Currency = "$"
	}
	agg := pipeline.DefaultOptions()
	if opts.Comparator != "" {
		agg.Comparator = opts.Comparator
	}
	if opts.TopN > 0 {
		agg.TopN = opts.TopN
	}
	return &Analytics{
		currency: opts.Currency,
		agg:      agg,
		logger:   opts.Logger,
	}
}

// LoadFromFile reads path with loader and publishes the result.
func (a *Analytics) LoadFromFile(ctx context.Context, loader *dataset.Loader, path string) error {
	ctx, span := observability.StartSpan(ctx, "analytics.load")
	defer span.End()
	span.SetAttributes(attribute.String("dataset.path", path))

	a.logger.Info("loading dataset", "path", path)
	table, report, err := loader.Load(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load %s: %w", path, err)
	}

	a.publish(table, report, path)
	span.SetAttributes(attribute.Int("dataset.rows", report.Rows))
	observability.RecordLoad(report.Rows, report.UnresolvedCountry, report.Duration.Seconds())

	a.logger.Info("dataset ready",
		"rows", report.Rows,
		"duration", report.Duration,
		"rate", fmt.Sprintf("%.0f rows/sec", float64(report.Rows)/max(report.Duration.Seconds(), 1e-9)))
	return nil
}

// SetTable publishes an already built table.
func (a *Analytics) SetTable(table *models.Table) {
	a.publish(table, dataset.Report{Rows: table.Len(), Columns: len(table.Columns)}, "memory")
}

func (a *Analytics) publish(table *models.Table, report dataset.Report, source string) {
	options := pipeline.FilterOptions(table)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.table = table
	a.options = options
	a.report = report
	a.source = source
	a.loadedAt = time.Now()
}

func (a *Analytics) snapshot() (*models.Table, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.table == nil {
		return nil, ErrNotLoaded
	}
	return a.table, nil
}

// Ready reports whether a dataset has been published.
func (a *Analytics) Ready() bool {
	_, err := a.snapshot()
	return err == nil
}

// Summary filters and aggregates without presentation.
func (a *Analytics) Summary(ctx context.Context, q Query) (models.Summary, error) {
	table, err := a.snapshot()
	if err != nil {
		return models.Summary{}, err
	}

	_, span := observability.StartSpan(ctx, "analytics.aggregate")
	defer span.End()

	summary := pipeline.Aggregate(table, q.FilterSpec(), q.measure(), a.agg)

	span.SetAttributes(
		attribute.String("dashboard.measure", string(summary.Measure)),
		attribute.Int("dashboard.rows", summary.RowCount),
		attribute.Bool("dashboard.measure_available", summary.Available),
	)
	return summary, nil
}

// Render runs the whole pipeline for one dashboard state.
func (a *Analytics) Render(ctx context.Context, q Query) (presentation.Output, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "analytics.render")
	defer span.End()

	summary, err := a.Summary(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return presentation.Output{}, err
	}

	out := presentation.Render(summary, q.theme(), a.currency)
	a.renders.Add(1)
	observability.RecordRender(string(summary.Measure), summary.RowCount, time.Since(start).Seconds())

	a.logger.Debug("dashboard rendered",
		"measure", summary.Measure,
		"rows", summary.RowCount,
		"request_id", observability.GetRequestID(ctx),
		"duration", time.Since(start))
	return out, nil
}

// Options returns the filter control values for the loaded dataset.
func (a *Analytics) Options() (models.FilterOptions, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.table == nil {
		return models.FilterOptions{}, ErrNotLoaded
	}
	return a.options, nil
}

// Currency is the symbol money values are rendered with.
func (a *Analytics) Currency() string {
	return a.currency
}

func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count":       a.table.Len(),
		"source":             a.source,
		"loaded_at":          a.loadedAt,
		"columns":            a.report.Columns,
		"unresolved_country": a.report.UnresolvedCountry,
		"malformed_dates":    a.report.MalformedDates,
		"placeholder_dates":  a.report.PlaceholderDates,
		"load_duration":      a.report.Duration.String(),
		"renders":            a.renders.Load(),
		"comparator":         a.agg.Comparator,
		"countries":          len(a.options.Countries),
		"importers":          len(a.options.Importers),
		"years":              len(a.options.Years),
	}
}
