package pipeline

import (
	"fmt"
	"math"
	"strings"

	"trade-dashboard/internal/models"
)

// DefaultTopN caps the top categories breakdown.
const DefaultTopN = 10

// Comparator selects how the prior value behind each KPI delta is obtained.
type Comparator string

const (
	// ComparePriorPeriod compares against the previous period: year over year
	// for totals, month over month for averages. A year or month filter is
	// compared with the same filter one period back; otherwise the latest
	// period in view is compared with the one before it.
	ComparePriorPeriod Comparator = "prior"
	// CompareScaled reproduces the fixed placeholder comparator of the legacy
	// dashboard: 85% of the value for totals, 90% for averages.
	CompareScaled Comparator = "scaled"
)

func ParseComparator(s string) (Comparator, error) {
	switch Comparator(strings.ToLower(strings.TrimSpace(s))) {
	case "", ComparePriorPeriod:
		return ComparePriorPeriod, nil
	case CompareScaled:
		return CompareScaled, nil
	default:
		return "", fmt.Errorf("unknown comparator %q", s)
	}
}

type Options struct {
	Comparator Comparator
	TopN       int
}

func DefaultOptions() Options {
	return Options{Comparator: ComparePriorPeriod, TopN: DefaultTopN}
}

// Aggregate filters base by spec and computes KPIs and chart datasets for the
// result. base stays visible to the prior-period comparison. An empty view or
// a measure absent from the source yields zero KPIs and "no data" datasets;
// it never fails.
func Aggregate(base *models.Table, spec models.FilterSpec, measure models.Measure, opts Options) models.Summary {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if base == nil {
		base = &models.Table{}
	}
	table := ApplyFilters(base, spec)

	summary := models.Summary{
		Measure:   measure,
		Available: table.HasMeasure(measure),
		RowCount:  table.Len(),
	}

	if table.Len() == 0 || !summary.Available {
		summary.KPIs = zeroKPIs(measure)
		summary.Trend = models.NoDataset(models.DatasetTrend)
		summary.TopHSCodes = models.NoDataset(models.DatasetTopHSCodes)
		summary.Distribution = models.NoDataset(models.DatasetDistribution)
		summary.Countries = models.NoDataset(models.DatasetCountries)
		return summary
	}

	rows := table.Rows
	value := measureOf(measure)

	summary.KPIs = computeKPIs(base, table, spec, measure, opts.Comparator)
	summary.Trend = trend(rows, value)
	summary.TopHSCodes = topHSCodes(table, value, opts.TopN)
	summary.Distribution = distribution(table, value)
	summary.Countries = countries(table, value)
	return summary
}

func trend(rows []models.Row, value valueFunc) models.Dataset {
	groups := groupBy(rows, byYearMonth, value)
	if len(groups) == 0 {
		return models.NoDataset(models.DatasetTrend)
	}
	sortByKey(groups)
	return models.Dataset{Name: models.DatasetTrend, Points: toPoints(groups, sumOf)}
}

func topHSCodes(table *models.Table, value valueFunc, n int) models.Dataset {
	if !table.Has(models.ColHSCode) {
		return models.NoDataset(models.DatasetTopHSCodes)
	}

	groups := groupBy(table.Rows, byHSCode, value)
	if len(groups) == 0 {
		return models.NoDataset(models.DatasetTopHSCodes)
	}

	if table.Has(models.ColSection) {
		labels := sectionLabels(table.Rows)
		for _, g := range groups {
			g.label = labels[g.key]
		}
	}

	sortByValueDesc(groups, sumOf)
	if len(groups) > n {
		groups = groups[:n]
	}
	return models.Dataset{Name: models.DatasetTopHSCodes, Points: toPoints(groups, sumOf)}
}

// sectionLabels maps each HS code to the first non-blank section name seen for it.
func sectionLabels(rows []models.Row) map[string]string {
	labels := make(map[string]string)
	for _, r := range rows {
		if r.HSCode == "" || r.SectionName == "" {
			continue
		}
		if _, ok := labels[r.HSCode]; !ok {
			labels[r.HSCode] = r.SectionName
		}
	}
	return labels
}

func distribution(table *models.Table, value valueFunc) models.Dataset {
	if !table.Has(models.ColContainer) {
		return models.NoDataset(models.DatasetDistribution)
	}
	groups := groupBy(table.Rows, byContainer, value)
	if len(groups) == 0 {
		return models.NoDataset(models.DatasetDistribution)
	}
	sortByKey(groups)
	return models.Dataset{Name: models.DatasetDistribution, Points: toPoints(groups, sumOf)}
}

// countries excludes rows whose country name did not resolve to an ISO3 code.
func countries(table *models.Table, value valueFunc) models.Dataset {
	if !table.Has(models.ColCountry) {
		return models.NoDataset(models.DatasetCountries)
	}
	groups := groupBy(table.Rows, byISO3, value)
	if len(groups) == 0 {
		return models.NoDataset(models.DatasetCountries)
	}
	sortByKey(groups)
	return models.Dataset{Name: models.DatasetCountries, Points: toPoints(groups, sumOf)}
}

// total sums the non-NaN values of rows and counts them.
func total(rows []models.Row, value valueFunc) (sum float64, n int) {
	for _, r := range rows {
		if v := value(r); !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	return sum, n
}

func sum(rows []models.Row, value valueFunc) float64 {
	s, _ := total(rows, value)
	return s
}

func mean(rows []models.Row, value valueFunc) float64 {
	sum, n := total(rows, value)
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func distinct(rows []models.Row, id keyFunc) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if v := id(r); v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}
