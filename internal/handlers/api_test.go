package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trade-dashboard/internal/models"
	"trade-dashboard/internal/presentation"
	"trade-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shipment(country, iso3, importer, hs, container string, year, month int, cif float64) models.Row {
	d := time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
	return models.Row{
		CountryOfOrigin: country,
		CountryISO3:     iso3,
		Date:            d,
		Year:            year,
		Month:           month,
		YearMonth:       d.Format("2006-01"),
		Importer:        importer,
		HSCode:          hs,
		ContainerSize:   container,
		ReceiptNumber:   country + hs + d.Format("0102"),
		MassKg:          250,
		CIFValue:        cif,
		FOBValue:        cif * 0.5,
		TotalTax:        cif * 0.1,
	}
}

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics(services.Options{Logger: testLogger()})
	a.SetTable(models.NewTable([]models.Row{
		shipment("China", "CHN", "Acme", "010101", "20ft", 2022, 1, 400),
		shipment("China", "CHN", "Bolt", "020202", "40ft", 2023, 1, 600),
		shipment("Kenya", "KEN", "Acme", "010101", "20ft", 2023, 2, 200),
	},
		models.ColCountry, models.ColImporter, models.ColHSCode, models.ColContainer,
		models.ColReceipt, models.ColMass, models.ColDate, models.ColCIF, models.ColFOB, models.ColTax,
	))
	return a
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	return response
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	handlers := NewAPIHandlers(analytics, testLogger(), "1.2.3")

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleDashboard(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "test")

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?country=China&year=2023&measure=fob&theme=dark", nil)
	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=60" {
		t.Errorf("unexpected cache-control %q", cc)
	}

	response := decodeResponse(t, w)
	if success, ok := response["success"].(bool); !ok || !success {
		t.Error("expected success=true in response")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", response["data"])
	}
	if data["measure"] != "FOB" {
		t.Errorf("measure = %v, want FOB", data["measure"])
	}
	if data["theme"] != "dark" {
		t.Errorf("theme = %v, want dark", data["theme"])
	}
	if data["row_count"] != float64(1) {
		t.Errorf("row_count = %v, want 1", data["row_count"])
	}

	cards := data["cards"].([]any)
	if got := cards[0].(map[string]any)["value"]; got != "$300" {
		t.Errorf("total card = %v, want $300", got)
	}

	figures := data["figures"].(map[string]any)
	for _, key := range []string{"trend", "top_hs_codes", "distribution", "countries"} {
		if _, ok := figures[key]; !ok {
			t.Errorf("missing figure %q", key)
		}
	}
}

func TestAPIHandlers_HandleDashboard_InvalidQuery(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "test")

	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"unknown measure", "measure=weight", "VALIDATION_ERROR"},
		{"month out of range", "month=13", "VALIDATION_ERROR"},
		{"non numeric year", "year=twenty", "BAD_REQUEST"},
		{"unknown theme", "theme=sepia", "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard?"+tt.query, nil)
			w := httptest.NewRecorder()
			handlers.HandleDashboard(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			response := decodeResponse(t, w)
			errObj := response["error"].(map[string]any)
			if errObj["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", errObj["code"], tt.wantCode)
			}
		})
	}
}

func TestAPIHandlers_NotLoaded(t *testing.T) {
	handlers := NewAPIHandlers(services.NewAnalytics(services.Options{Logger: testLogger()}), testLogger(), "test")

	endpoints := []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/api/dashboard", handlers.HandleDashboard},
		{"/api/summary", handlers.HandleSummary},
		{"/api/options", handlers.HandleOptions},
		{"/health", handlers.HandleHealth},
		{"/admin/stats", handlers.HandleStats},
	}

	for _, ep := range endpoints {
		t.Run(ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			ep.handler(w, httptest.NewRequest(http.MethodGet, ep.path, nil))

			if w.Code != http.StatusServiceUnavailable {
				t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
			}
		})
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "test")

	req := httptest.NewRequest(http.MethodGet, "/api/summary?importer=Acme", nil)
	w := httptest.NewRecorder()
	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeResponse(t, w)["data"].(map[string]any)
	if data["row_count"] != float64(2) {
		t.Errorf("row_count = %v, want 2", data["row_count"])
	}
	if data["measure_available"] != true {
		t.Error("expected measure_available=true")
	}
	kpis := data["kpis"].([]any)
	if got := kpis[0].(map[string]any)["value"]; got != float64(600) {
		t.Errorf("total = %v, want 600", got)
	}
}

func TestAPIHandlers_HandleOptions(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "test")

	w := httptest.NewRecorder()
	handlers.HandleOptions(w, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("unexpected cache-control %q", cc)
	}

	data := decodeResponse(t, w)["data"].(map[string]any)
	if got := data["countries"].([]any); len(got) != 2 {
		t.Errorf("countries = %v", got)
	}
	if got := data["years"].([]any); len(got) != 2 || got[0] != float64(2022) {
		t.Errorf("years = %v", got)
	}
	if got := data["months"].([]any); len(got) != 12 {
		t.Errorf("months = %v", got)
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "1.2.3")

	w := httptest.NewRecorder()
	handlers.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeResponse(t, w)["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
	if data["version"] != "1.2.3" {
		t.Errorf("version = %v, want 1.2.3", data["version"])
	}
	if _, err := time.Parse(time.RFC3339, data["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), testLogger(), "test")

	w := httptest.NewRecorder()
	handlers.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	data := decodeResponse(t, w)["data"].(map[string]any)
	if data["record_count"] != float64(3) {
		t.Errorf("record_count = %v, want 3", data["record_count"])
	}
	if data["source"] != "memory" {
		t.Errorf("source = %v, want memory", data["source"])
	}
}

func TestParseQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?country=China&country=+Kenya+&country=&year=2022&month=3&month=4&importer=Acme", nil)

	q, err := parseQuery(req.URL.Query())
	if err != nil {
		t.Fatalf("parseQuery() error = %v", err)
	}
	if len(q.Countries) != 2 || q.Countries[1] != "Kenya" {
		t.Errorf("countries = %v", q.Countries)
	}
	if len(q.Years) != 1 || q.Years[0] != 2022 {
		t.Errorf("years = %v", q.Years)
	}
	if len(q.Months) != 2 || q.Months[1] != 4 {
		t.Errorf("months = %v", q.Months)
	}
	if q.Importer != "Acme" {
		t.Errorf("importer = %q", q.Importer)
	}
	if q.Measure != "" {
		t.Errorf("unset measure should stay empty, got %q", q.Measure)
	}
	if q.Theme != presentation.ThemeLight {
		t.Errorf("unset theme = %q, want %q", q.Theme, presentation.ThemeLight)
	}

	q, err = parseQuery(map[string][]string{"theme": {" DARK "}})
	if err != nil {
		t.Fatalf("parseQuery() error = %v", err)
	}
	if q.Theme != presentation.ThemeDark {
		t.Errorf("theme = %q, want %q", q.Theme, presentation.ThemeDark)
	}
}
