package pipeline

import (
	"strconv"
	"time"

	"trade-dashboard/internal/format"
	"trade-dashboard/internal/models"
)

const (
	scaledTotalFactor   = 0.85
	scaledAverageFactor = 0.9

	labelYoY = "YoY%"
	labelMoM = "MoM%"

	yearMonthLayout = "2006-01"
)

// kpiDef describes one card: how to reduce all rows, how to reduce one
// period, and whether the card compares years or months.
type kpiDef struct {
	kind     models.KPIKind
	title    string
	monetary bool
	yearly   bool
	reduce   func(rows []models.Row) float64
	periods  func(rows []models.Row, key keyFunc) []*group
	per      func(*group) float64
}

func kpiDefs(table *models.Table, m models.Measure) []kpiDef {
	value := measureOf(m)
	hasReceipt := table.Has(models.ColReceipt)
	hasMass := table.Has(models.ColMass)

	return []kpiDef{
		{
			kind:     models.KPITotal,
			title:    "Total " + string(m),
			monetary: true,
			yearly:   true,
			reduce:   func(rows []models.Row) float64 { return sum(rows, value) },
			periods:  func(rows []models.Row, key keyFunc) []*group { return groupBy(rows, key, value) },
			per:      sumOf,
		},
		{
			kind:   models.KPIShipments,
			title:  "Total Shipments",
			yearly: true,
			reduce: func(rows []models.Row) float64 {
				if !hasReceipt {
					return 0
				}
				return float64(distinct(rows, byReceipt))
			},
			periods: func(rows []models.Row, key keyFunc) []*group {
				if !hasReceipt {
					return nil
				}
				return distinctBy(rows, key, byReceipt)
			},
			per: countOf,
		},
		{
			kind:     models.KPIAvgValue,
			title:    "Avg Transaction Value",
			monetary: true,
			reduce:   func(rows []models.Row) float64 { return mean(rows, value) },
			periods:  func(rows []models.Row, key keyFunc) []*group { return groupBy(rows, key, value) },
			per:      meanOf,
		},
		{
			kind:  models.KPIAvgMass,
			title: "Avg Mass per Shipment",
			reduce: func(rows []models.Row) float64 {
				if !hasMass {
					return 0
				}
				return mean(rows, byMass)
			},
			periods: func(rows []models.Row, key keyFunc) []*group {
				if !hasMass {
					return nil
				}
				return groupBy(rows, key, byMass)
			},
			per: meanOf,
		},
	}
}

// computeKPIs reduces view, the result of applying spec to base. With a
// year or month constraint in spec the prior window is the same selection one
// period earlier, drawn from base so the filter itself does not hide it.
// Without one the latest period in view is compared with the period before it.
func computeKPIs(base, view *models.Table, spec models.FilterSpec, m models.Measure, cmpMode Comparator) []models.KPI {
	defs := kpiDefs(view, m)
	kpis := make([]models.KPI, 0, len(defs))

	sets := compile(spec)
	calendar := sets[models.FieldYear] != nil || sets[models.FieldMonth] != nil

	for _, d := range defs {
		monthly := d.periods(view.Rows, byYearMonth)
		sortByKey(monthly)

		k := models.KPI{
			Kind:       d.kind,
			Title:      d.title,
			Value:      models.Finite(d.reduce(view.Rows)),
			Monetary:   d.monetary,
			DeltaLabel: deltaLabel(d),
			Sparkline:  series(monthly, d.per),
		}

		var curr, prior float64
		switch {
		case cmpMode == CompareScaled:
			factor := scaledAverageFactor
			if d.yearly {
				factor = scaledTotalFactor
			}
			curr, prior = k.Value, k.Value*factor
		case calendar:
			shift := nextMonth
			if d.yearly {
				shift = nextYear
			}
			curr, prior = k.Value, d.reduce(priorWindow(base.Rows, sets, shift))
		default:
			periods := monthly
			prev := prevMonthKey
			if d.yearly {
				periods = d.periods(view.Rows, byYear)
				sortByKey(periods)
				prev = prevYearKey
			}
			curr, prior = latestAndPrior(periods, d.per, prev)
		}

		k.Current = models.Finite(curr)
		k.Prior = models.Finite(prior)
		k.DeltaPct = format.SafeGrowthPct(k.Current, k.Prior)
		kpis = append(kpis, k)
	}
	return kpis
}

// priorWindow keeps the rows that would satisfy sets once moved forward by
// shift, i.e. the selection taken one period earlier.
func priorWindow(rows []models.Row, sets map[models.Field]map[string]bool, shift func(models.Row) (models.Row, bool)) []models.Row {
	var out []models.Row
	for _, r := range rows {
		if moved, ok := shift(r); ok && matches(moved, sets) {
			out = append(out, r)
		}
	}
	return out
}

func nextYear(r models.Row) (models.Row, bool) {
	if r.Year == 0 {
		return r, false
	}
	r.Year++
	return r, true
}

func nextMonth(r models.Row) (models.Row, bool) {
	if r.Year == 0 || r.Month == 0 {
		return r, false
	}
	t := time.Date(r.Year, time.Month(r.Month)+1, 1, 0, 0, 0, 0, time.UTC)
	r.Year, r.Month = t.Year(), int(t.Month())
	return r, true
}

func deltaLabel(d kpiDef) string {
	if d.yearly {
		return labelYoY
	}
	return labelMoM
}

// latestAndPrior returns the value of the last period and of the calendar
// period immediately before it. A missing prior period yields 0.
func latestAndPrior(periods []*group, per func(*group) float64, prev func(string) string) (curr, prior float64) {
	if len(periods) == 0 {
		return 0, 0
	}
	last := periods[len(periods)-1]
	want := prev(last.key)
	for _, g := range periods {
		if g.key == want {
			return per(last), per(g)
		}
	}
	return per(last), 0
}

func zeroKPIs(m models.Measure) []models.KPI {
	defs := kpiDefs(&models.Table{}, m)
	kpis := make([]models.KPI, 0, len(defs))
	for _, d := range defs {
		kpis = append(kpis, models.KPI{
			Kind:       d.kind,
			Title:      d.title,
			Monetary:   d.monetary,
			DeltaLabel: deltaLabel(d),
			Sparkline:  []float64{},
		})
	}
	return kpis
}

func yearKey(y int) string {
	return strconv.Itoa(y)
}

func prevYearKey(key string) string {
	y, err := strconv.Atoi(key)
	if err != nil {
		return ""
	}
	return yearKey(y - 1)
}

func prevMonthKey(key string) string {
	t, err := time.Parse(yearMonthLayout, key)
	if err != nil {
		return ""
	}
	return t.AddDate(0, -1, 0).Format(yearMonthLayout)
}
