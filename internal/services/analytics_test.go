package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"trade-dashboard/internal/dataset"
	"trade-dashboard/internal/geo"
	"trade-dashboard/internal/models"
	"trade-dashboard/internal/pipeline"
	"trade-dashboard/internal/presentation"
)

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shipments.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func shipment(country, iso3, importer, hs string, year, month int, cif float64) models.Row {
	d := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return models.Row{
		CountryOfOrigin: country,
		CountryISO3:     iso3,
		Date:            d,
		Year:            year,
		Month:           month,
		YearMonth:       d.Format("2006-01"),
		Importer:        importer,
		HSCode:          hs,
		ContainerSize:   "20ft",
		ReceiptNumber:   country + hs + d.Format("0102"),
		MassKg:          100,
		CIFValue:        cif,
		FOBValue:        cif * 0.8,
		TotalTax:        cif * 0.1,
	}
}

func createTestAnalytics(t *testing.T) *Analytics {
	t.Helper()
	a := NewAnalytics(Options{})
	a.SetTable(models.NewTable([]models.Row{
		shipment("China", "CHN", "Acme", "010101", 2022, 1, 100),
		shipment("China", "CHN", "Bolt", "010101", 2022, 2, 50),
		shipment("Kenya", "KEN", "Acme", "020202", 2022, 1, 30),
	},
		models.ColCountry, models.ColImporter, models.ColHSCode, models.ColContainer,
		models.ColReceipt, models.ColMass, models.ColDate, models.ColCIF, models.ColFOB, models.ColTax,
	))
	return a
}

func TestNewAnalytics(t *testing.T) {
	a := NewAnalytics(Options{})
	if a == nil {
		t.Fatal("NewAnalytics() returned nil")
	}
	if a.logger == nil {
		t.Error("logger should be initialized")
	}
	if a.currency != "$" {
		t.Errorf("currency = %q, want $", a.currency)
	}
	if a.agg.Comparator != pipeline.ComparePriorPeriod {
		t.Errorf("comparator = %q, want %q", a.agg.Comparator, pipeline.ComparePriorPeriod)
	}
	if a.Ready() {
		t.Error("new analytics should not be ready")
	}
}

func TestAnalytics_NotLoaded(t *testing.T) {
	a := NewAnalytics(Options{})

	if _, err := a.Render(context.Background(), Query{}); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Render() error = %v, want ErrNotLoaded", err)
	}
	if _, err := a.Options(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Options() error = %v, want ErrNotLoaded", err)
	}
}

func TestAnalytics_Render(t *testing.T) {
	a := createTestAnalytics(t)

	out, err := a.Render(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if out.Measure != models.MeasureCIF {
		t.Errorf("measure = %q, want CIF", out.Measure)
	}
	if out.Theme != presentation.ThemeLight {
		t.Errorf("theme = %q, want light", out.Theme)
	}
	if len(out.Cards) != 4 {
		t.Fatalf("got %d cards, want 4", len(out.Cards))
	}
	if out.Cards[0].Value != "$180" {
		t.Errorf("total card = %q, want $180", out.Cards[0].Value)
	}
	if out.RowCount != 3 {
		t.Errorf("row count = %d, want 3", out.RowCount)
	}
}

func TestAnalytics_RenderWithFilters(t *testing.T) {
	a := createTestAnalytics(t)

	tests := []struct {
		name      string
		query     Query
		wantRows  int
		wantTotal string
	}{
		{"country", Query{Countries: []string{"Kenya"}}, 1, "$30"},
		{"importer", Query{Importer: "Acme"}, 2, "$130"},
		{"month", Query{Months: []int{2}}, 1, "$50"},
		{"fob measure", Query{Measure: models.MeasureFOB}, 3, "$144"},
		{"no match", Query{Years: []int{2023}}, 0, "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := a.Render(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if out.RowCount != tt.wantRows {
				t.Errorf("rows = %d, want %d", out.RowCount, tt.wantRows)
			}
			if out.Cards[0].Value != tt.wantTotal {
				t.Errorf("total = %q, want %q", out.Cards[0].Value, tt.wantTotal)
			}
		})
	}
}

func TestAnalytics_SummaryEmptyIsNoData(t *testing.T) {
	a := createTestAnalytics(t)

	s, err := a.Summary(context.Background(), Query{Years: []int{1999}})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	for _, d := range []models.Dataset{s.Trend, s.TopHSCodes, s.Distribution, s.Countries} {
		if !d.NoData {
			t.Errorf("%s should be no data", d.Name)
		}
	}
}

func TestAnalytics_Options(t *testing.T) {
	a := createTestAnalytics(t)

	opts, err := a.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if len(opts.Countries) != 2 || opts.Countries[0] != "China" {
		t.Errorf("countries = %v", opts.Countries)
	}
	if len(opts.Years) != 1 || opts.Years[0] != 2022 {
		t.Errorf("years = %v", opts.Years)
	}
}

func TestAnalytics_LoadFromFile(t *testing.T) {
	path := createTempCSV(t, `Receipt_date,Country_of_origin,Importer,HS_code,Container_size,Receipt_number,Mass_(kg),CIF_value($),FOB_value($),Total_Tax($)
2022-01-05,China,Acme,10101,20ft,R1,100,100,80,10
2022-02-05,Kenya,Bolt,20202,40ft,R2,200,50,40,5
`)

	dir, err := geo.NewDirectory(nil)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAnalytics(Options{Currency: "€"})
	if err := a.LoadFromFile(context.Background(), dataset.NewLoader(dataset.WithResolver(dir)), path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	out, err := a.Render(context.Background(), Query{Theme: presentation.ThemeDark})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out.Cards[0].Value != "€150" {
		t.Errorf("total = %q, want €150", out.Cards[0].Value)
	}
	if got := out.Figures.Countries.Data[0]["locations"]; len(got.([]string)) != 2 {
		t.Errorf("countries locations = %v", got)
	}

	stats := a.Stats()
	if stats["record_count"] != 2 {
		t.Errorf("record_count = %v, want 2", stats["record_count"])
	}
	if stats["source"] != path {
		t.Errorf("source = %v, want %s", stats["source"], path)
	}
}

func TestAnalytics_LoadFromFileMissing(t *testing.T) {
	a := NewAnalytics(Options{})
	err := a.LoadFromFile(context.Background(), dataset.NewLoader(), filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if a.Ready() {
		t.Error("failed load must not publish a table")
	}
}

func TestAnalytics_ConcurrentRenders(t *testing.T) {
	a := createTestAnalytics(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := models.Measures[i%len(models.Measures)]
			if _, err := a.Render(context.Background(), Query{Measure: m}); err != nil {
				t.Errorf("Render(%s) error = %v", m, err)
			}
		}(i)
	}
	wg.Wait()

	if got := a.Stats()["renders"]; got != int64(20) {
		t.Errorf("renders = %v, want 20", got)
	}
}

func TestQuery_FilterSpec(t *testing.T) {
	q := Query{Countries: []string{"China"}, Years: []int{2022, 2023}, Importer: "Acme"}
	spec := q.FilterSpec()

	if got := spec[models.FieldYear]; len(got) != 2 || got[0] != "2022" {
		t.Errorf("years = %v", got)
	}
	if got := spec[models.FieldImporter]; len(got) != 1 || got[0] != "Acme" {
		t.Errorf("importer = %v", got)
	}
	if _, ok := spec[models.FieldMonth]; ok {
		t.Error("unset month should impose no constraint")
	}
}
