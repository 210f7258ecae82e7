// Package dataset reads shipment exports (CSV or XLSX) into an immutable
// models.Table, deriving calendar fields, padded HS codes and ISO3 country codes.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"trade-dashboard/internal/geo"
	"trade-dashboard/internal/models"
)

const batchSize = 5000

var (
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Report summarizes data quality issues found while loading. None of them
// fail the load.
type Report struct {
	Rows              int           `json:"rows"`
	Columns           int           `json:"columns"`
	UnresolvedCountry int64         `json:"unresolved_country"`
	MalformedDates    int64         `json:"malformed_dates"`
	PlaceholderDates  bool          `json:"placeholder_dates"`
	Duration          time.Duration `json:"duration"`
}

type Loader struct {
	resolver geo.Resolver
	workers  int
	sheet    string
	logger   *slog.Logger
}

type Option func(*Loader)

// WithResolver sets the country resolver. Without one, ISO3 codes stay blank
// and the country map renders as no data.
func WithResolver(r geo.Resolver) Option {
	return func(l *Loader) { l.resolver = r }
}

func WithWorkers(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithSheet selects a worksheet by name; the first sheet is used otherwise.
func WithSheet(name string) Option {
	return func(l *Loader) { l.sheet = name }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path, choosing the reader by file extension.
func (l *Loader) Load(ctx context.Context, path string) (*models.Table, Report, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, Report{}, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		return l.LoadCSV(ctx, f)
	case ".xlsx", ".xlsm":
		return l.loadXLSX(ctx, path)
	default:
		return nil, Report{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (l *Loader) LoadCSV(ctx context.Context, r io.Reader) (*models.Table, Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, Report{}, fmt.Errorf("read csv: %w", err)
	}
	return l.fromRecords(ctx, records)
}

func (l *Loader) loadXLSX(ctx context.Context, path string) (*models.Table, Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := l.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, Report{}, ErrEmptyFile
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return l.fromRecords(ctx, rows)
}

func (l *Loader) fromRecords(ctx context.Context, records [][]string) (*models.Table, Report, error) {
	start := time.Now()
	if len(records) == 0 {
		return nil, Report{}, ErrEmptyFile
	}

	lay := resolveHeader(records[0])
	body := records[1:]
	cols := lay.columns()

	var (
		rows       = make([]models.Row, len(body))
		unresolved atomic.Int64
		malformed  atomic.Int64
	)
	p := &rowParser{
		layout:     lay,
		resolver:   l.resolver,
		unresolved: &unresolved,
		malformed:  &malformed,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for lo := 0; lo < len(body); lo += batchSize {
		hi := min(lo+batchSize, len(body))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				rows[i] = p.parse(body[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, fmt.Errorf("parse rows: %w", err)
	}

	_, hasDate := lay[models.ColDate]
	_, hasYear := lay[models.ColYear]
	_, hasMonth := lay[models.ColMonth]
	// every row carries a derived date, possibly the placeholder
	cols = append(cols, models.ColDate)

	report := Report{
		Rows:              len(rows),
		Columns:           len(lay),
		UnresolvedCountry: unresolved.Load(),
		MalformedDates:    malformed.Load(),
		PlaceholderDates:  !hasDate && !(hasYear && hasMonth),
		Duration:          time.Since(start),
	}

	if report.Rows == 0 {
		l.logger.Warn("dataset has a header but no rows")
	}
	l.logger.Info("dataset loaded",
		"rows", report.Rows,
		"columns", report.Columns,
		"unresolved_country", report.UnresolvedCountry,
		"malformed_dates", report.MalformedDates,
		"duration", report.Duration)

	return models.NewTable(rows, cols...), report, nil
}

type rowParser struct {
	layout     layout
	resolver   geo.Resolver
	unresolved *atomic.Int64
	malformed  *atomic.Int64
}

func (p *rowParser) parse(record []string) models.Row {
	cell := func(c models.Column) string { return p.layout.cell(record, c) }

	row := models.Row{
		CountryOfOrigin: cell(models.ColCountry),
		Importer:        cell(models.ColImporter),
		HSCode:          padHSCode(cell(models.ColHSCode)),
		SectionName:     cell(models.ColSection),
		ContainerSize:   cell(models.ColContainer),
		ReceiptNumber:   cell(models.ColReceipt),
		MassKg:          parseNumber(cell(models.ColMass)),
		CIFValue:        parseNumber(cell(models.ColCIF)),
		FOBValue:        parseNumber(cell(models.ColFOB)),
		TotalTax:        parseNumber(cell(models.ColTax)),
	}

	row.Date = p.date(record)
	if row.HasDate() {
		row.Year = row.Date.Year()
		row.Month = int(row.Date.Month())
		row.YearMonth = row.Date.Format("2006-01")
	}

	if row.CountryOfOrigin != "" && p.resolver != nil {
		if code, ok := p.resolver.Resolve(row.CountryOfOrigin); ok {
			row.CountryISO3 = code
		} else {
			p.unresolved.Add(1)
		}
	}
	return row
}

// date prefers Receipt_date, then Year+Month, then a fixed placeholder.
func (p *rowParser) date(record []string) time.Time {
	if _, ok := p.layout[models.ColDate]; ok {
		raw := p.layout.cell(record, models.ColDate)
		d := parseDate(raw)
		if d.IsZero() && raw != "" {
			p.malformed.Add(1)
		}
		return d
	}
	_, hasYear := p.layout[models.ColYear]
	_, hasMonth := p.layout[models.ColMonth]
	if hasYear && hasMonth {
		d := dateFromParts(p.layout.cell(record, models.ColYear), p.layout.cell(record, models.ColMonth))
		if d.IsZero() {
			p.malformed.Add(1)
		}
		return d
	}
	return placeholderDate
}
