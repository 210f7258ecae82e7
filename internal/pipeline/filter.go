// Package pipeline holds the pure filter and aggregation steps behind every
// dashboard render. Nothing here performs I/O or keeps state between calls.
package pipeline

import (
	"strconv"
	"strings"

	"trade-dashboard/internal/models"
)

// ApplyFilters keeps the rows that satisfy every constrained field of spec.
// Fields are ANDed, values within a field are ORed. An empty spec returns
// the table unchanged, and an empty result is a valid table.
func ApplyFilters(table *models.Table, spec models.FilterSpec) *models.Table {
	sets := compile(spec)
	if len(sets) == 0 || table == nil {
		return table
	}

	rows := make([]models.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		if matches(row, sets) {
			rows = append(rows, row)
		}
	}
	return table.WithRows(rows)
}

// compile turns a spec into per-field value sets, dropping blank values and
// fields left without any.
func compile(spec models.FilterSpec) map[models.Field]map[string]bool {
	sets := make(map[models.Field]map[string]bool, len(spec))
	for field, values := range spec {
		set := make(map[string]bool, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				set[v] = true
			}
		}
		if len(set) > 0 {
			sets[field] = set
		}
	}
	return sets
}

func matches(row models.Row, sets map[models.Field]map[string]bool) bool {
	for field, set := range sets {
		v, ok := row.Value(field)
		if !ok || !set[v] {
			return false
		}
	}
	return true
}

// FilterBuilder assembles a FilterSpec from control values.
type FilterBuilder struct {
	spec models.FilterSpec
}

func NewFilter() *FilterBuilder {
	return &FilterBuilder{spec: models.FilterSpec{}}
}

func (b *FilterBuilder) In(field models.Field, values ...string) *FilterBuilder {
	if len(values) > 0 {
		b.spec[field] = append(b.spec[field], values...)
	}
	return b
}

func (b *FilterBuilder) Equals(field models.Field, value string) *FilterBuilder {
	if value != "" {
		b.spec[field] = []string{value}
	}
	return b
}

func (b *FilterBuilder) InInts(field models.Field, values ...int) *FilterBuilder {
	for _, v := range values {
		b.spec[field] = append(b.spec[field], strconv.Itoa(v))
	}
	return b
}

func (b *FilterBuilder) Build() models.FilterSpec {
	return b.spec
}
