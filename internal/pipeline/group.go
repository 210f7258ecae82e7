package pipeline

import (
	"cmp"
	"math"
	"slices"

	"trade-dashboard/internal/models"
)

// group accumulates one key of a group-by. Groups keep first-seen order so a
// stable sort later breaks ties by first encounter.
type group struct {
	key   string
	label string
	sum   float64
	n     int
	seen  map[string]struct{}
}

func (g *group) mean() float64 {
	if g.n == 0 {
		return 0
	}
	return g.sum / float64(g.n)
}

type grouper struct {
	index  map[string]int
	groups []*group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) get(key string) *group {
	if i, ok := g.index[key]; ok {
		return g.groups[i]
	}
	grp := &group{key: key}
	g.index[key] = len(g.groups)
	g.groups = append(g.groups, grp)
	return grp
}

type keyFunc func(models.Row) string
type valueFunc func(models.Row) float64

// groupBy adds every non-NaN value under its key. Rows with a blank key are
// skipped; groups whose values are all NaN still exist with a zero sum.
func groupBy(rows []models.Row, key keyFunc, value valueFunc) []*group {
	g := newGrouper()
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		grp := g.get(k)
		if v := value(row); !math.IsNaN(v) {
			grp.sum += v
			grp.n++
		}
	}
	return g.groups
}

// distinctBy counts distinct non-blank identifiers per key.
func distinctBy(rows []models.Row, key keyFunc, id keyFunc) []*group {
	g := newGrouper()
	for _, row := range rows {
		k := key(row)
		if k == "" {
			continue
		}
		grp := g.get(k)
		v := id(row)
		if v == "" {
			continue
		}
		if grp.seen == nil {
			grp.seen = make(map[string]struct{})
		}
		if _, dup := grp.seen[v]; !dup {
			grp.seen[v] = struct{}{}
			grp.n++
		}
	}
	return g.groups
}

func sortByKey(groups []*group) {
	slices.SortFunc(groups, func(a, b *group) int {
		return cmp.Compare(a.key, b.key)
	})
}

// sortByValueDesc orders by v descending, keeping first-seen order on ties.
func sortByValueDesc(groups []*group, v func(*group) float64) {
	slices.SortStableFunc(groups, func(a, b *group) int {
		return cmp.Compare(v(b), v(a))
	})
}

func toPoints(groups []*group, v func(*group) float64) []models.Point {
	points := make([]models.Point, 0, len(groups))
	for _, g := range groups {
		points = append(points, models.Point{Key: g.key, Label: g.label, Value: models.Finite(v(g))})
	}
	return points
}

func series(groups []*group, v func(*group) float64) []float64 {
	out := make([]float64, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.Finite(v(g)))
	}
	return out
}

func sumOf(g *group) float64   { return g.sum }
func countOf(g *group) float64 { return float64(g.n) }
func meanOf(g *group) float64  { return g.mean() }

func byYearMonth(r models.Row) string { return r.YearMonth }
func byHSCode(r models.Row) string    { return r.HSCode }
func byContainer(r models.Row) string { return r.ContainerSize }
func byISO3(r models.Row) string      { return r.CountryISO3 }
func byReceipt(r models.Row) string   { return r.ReceiptNumber }
func byMass(r models.Row) float64     { return r.MassKg }

func byYear(r models.Row) string {
	if r.Year == 0 {
		return ""
	}
	return yearKey(r.Year)
}

func measureOf(m models.Measure) valueFunc {
	return func(r models.Row) float64 { return r.MeasureValue(m) }
}
