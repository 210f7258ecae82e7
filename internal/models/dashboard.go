package models

// FilterSpec maps a field to its acceptable values. A scalar constraint is a
// one-element list; a missing or empty list imposes no constraint.
type FilterSpec map[Field][]string

type KPIKind string

const (
	KPITotal     KPIKind = "total"
	KPIShipments KPIKind = "shipments"
	KPIAvgValue  KPIKind = "avg_value"
	KPIAvgMass   KPIKind = "avg_mass"
)

// KPI is one summary card. Value covers the whole filtered view; Current is
// the period compared against Prior, and DeltaPct is the growth from Prior
// to Current.
type KPI struct {
	Kind       KPIKind   `json:"kind"`
	Title      string    `json:"title"`
	Value      float64   `json:"value"`
	Current    float64   `json:"current"`
	Prior      float64   `json:"prior"`
	DeltaPct   float64   `json:"delta_pct"`
	DeltaLabel string    `json:"delta_label"`
	Monetary   bool      `json:"monetary"`
	Sparkline  []float64 `json:"sparkline"`
}

type Point struct {
	Key   string  `json:"key"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

// Dataset is a chart-ready series. NoData marks the "no data" sentinel and
// is distinct from a dataset that happens to sum to zero.
type Dataset struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	NoData bool    `json:"no_data"`
}

func NoDataset(name string) Dataset {
	return Dataset{Name: name, NoData: true}
}

const (
	DatasetTrend        = "trend"
	DatasetTopHSCodes   = "top_hs_codes"
	DatasetDistribution = "container_distribution"
	DatasetCountries    = "countries"
)

// Summary is the aggregation result for one (filter, measure) pair.
type Summary struct {
	Measure      Measure `json:"measure"`
	Available    bool    `json:"measure_available"`
	RowCount     int     `json:"row_count"`
	KPIs         []KPI   `json:"kpis"`
	Trend        Dataset `json:"trend"`
	TopHSCodes   Dataset `json:"top_hs_codes"`
	Distribution Dataset `json:"container_distribution"`
	Countries    Dataset `json:"countries"`
}

// FilterOptions lists the values a user may pick in each filter control.
type FilterOptions struct {
	Countries []string  `json:"countries"`
	Years     []int     `json:"years"`
	Months    []int     `json:"months"`
	Importers []string  `json:"importers"`
	Measures  []Measure `json:"measures"`
}
