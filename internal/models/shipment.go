package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Column identifies a canonical source column of the shipment dataset.
type Column string

const (
	ColCountry   Column = "country_of_origin"
	ColImporter  Column = "importer"
	ColHSCode    Column = "hs_code"
	ColSection   Column = "section_name"
	ColContainer Column = "container_size"
	ColReceipt   Column = "receipt_number"
	ColMass      Column = "mass_kg"
	ColDate      Column = "receipt_date"
	ColYear      Column = "year"
	ColMonth     Column = "month"
	ColCIF       Column = "cif_value"
	ColFOB       Column = "fob_value"
	ColTax       Column = "total_tax"
)

// Measure is one of the three monetary measures a dashboard can be built on.
type Measure string

const (
	MeasureCIF Measure = "CIF"
	MeasureFOB Measure = "FOB"
	MeasureTax Measure = "TAX"
)

const DefaultMeasure = MeasureCIF

var Measures = []Measure{MeasureCIF, MeasureFOB, MeasureTax}

func ParseMeasure(s string) (Measure, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CIF":
		return MeasureCIF, nil
	case "FOB":
		return MeasureFOB, nil
	case "TAX":
		return MeasureTax, nil
	default:
		return "", fmt.Errorf("unknown measure %q", s)
	}
}

// Column returns the source column backing the measure.
func (m Measure) Column() Column {
	switch m {
	case MeasureFOB:
		return ColFOB
	case MeasureTax:
		return ColTax
	default:
		return ColCIF
	}
}

func (m Measure) Label() string {
	switch m {
	case MeasureFOB:
		return "FOB Value"
	case MeasureTax:
		return "Total Tax"
	default:
		return "CIF Value"
	}
}

// Row is one shipment record. Derived fields are computed at load time and
// never change afterwards. Numeric cells missing in the source hold NaN.
type Row struct {
	CountryOfOrigin string
	CountryISO3     string
	Date            time.Time
	Year            int
	Month           int
	YearMonth       string
	Importer        string
	HSCode          string
	SectionName     string
	ContainerSize   string
	ReceiptNumber   string
	MassKg          float64
	CIFValue        float64
	FOBValue        float64
	TotalTax        float64
}

// HasDate reports whether the row carries a parsed receipt date.
func (r Row) HasDate() bool {
	return !r.Date.IsZero()
}

func (r Row) MeasureValue(m Measure) float64 {
	switch m {
	case MeasureFOB:
		return r.FOBValue
	case MeasureTax:
		return r.TotalTax
	default:
		return r.CIFValue
	}
}

// Field names a filterable attribute of a Row.
type Field string

const (
	FieldCountry   Field = "country"
	FieldYear      Field = "year"
	FieldMonth     Field = "month"
	FieldImporter  Field = "importer"
	FieldISO3      Field = "iso3"
	FieldHSCode    Field = "hs_code"
	FieldContainer Field = "container_size"
)

// Value returns the string form of a field used for equality matching.
// Unknown fields report false.
func (r Row) Value(f Field) (string, bool) {
	switch f {
	case FieldCountry:
		return r.CountryOfOrigin, true
	case FieldYear:
		if r.Year == 0 {
			return "", true
		}
		return strconv.Itoa(r.Year), true
	case FieldMonth:
		if r.Month == 0 {
			return "", true
		}
		return strconv.Itoa(r.Month), true
	case FieldImporter:
		return r.Importer, true
	case FieldISO3:
		return r.CountryISO3, true
	case FieldHSCode:
		return r.HSCode, true
	case FieldContainer:
		return r.ContainerSize, true
	default:
		return "", false
	}
}

// Table is the immutable, loaded dataset.
type Table struct {
	Rows    []Row
	Columns map[Column]bool
}

func NewTable(rows []Row, columns ...Column) *Table {
	set := make(map[Column]bool, len(columns))
	for _, c := range columns {
		set[c] = true
	}
	return &Table{Rows: rows, Columns: set}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Has(c Column) bool {
	return t != nil && t.Columns[c]
}

// HasMeasure reports whether the measure's backing column was present in the source.
func (t *Table) HasMeasure(m Measure) bool {
	return t.Has(m.Column())
}

// WithRows returns a table sharing the column set of t.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{Rows: rows, Columns: t.Columns}
}

// Finite maps NaN and infinities to zero so values are safe to encode as JSON.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
