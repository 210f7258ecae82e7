package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"trade-dashboard/internal/errors"
	"trade-dashboard/internal/models"
	"trade-dashboard/internal/observability"
	"trade-dashboard/internal/presentation"
	"trade-dashboard/internal/services"
	"trade-dashboard/internal/ui/templates"
)

// Signals mirrors the client-side datastar store. Select controls bind
// their values as strings, so years and months accept either form.
type Signals struct {
	Countries []string `json:"countries"`
	Years     flexInts `json:"years"`
	Months    flexInts `json:"months"`
	Importer  string   `json:"importer"`
	Measure   string   `json:"measure"`
	Dark      bool     `json:"dark"`
}

func (s Signals) query() services.Query {
	return services.Query{
		Countries: nonEmpty(s.Countries),
		Years:     s.Years,
		Months:    s.Months,
		Importer:  strings.TrimSpace(s.Importer),
		Measure:   models.Measure(strings.ToUpper(strings.TrimSpace(s.Measure))),
		Theme:     presentation.ThemeOf(s.Dark),
	}
}

type flexInts []int

func (f *flexInts) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var items []any
	switch v := raw.(type) {
	case nil:
		*f = nil
		return nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	out := make(flexInts, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, int(v))
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not an integer: %q", v)
			}
			out = append(out, n)
		default:
			return fmt.Errorf("not an integer: %v", v)
		}
	}
	*f = out
	return nil
}

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// HandleDashboard re-renders the dashboard for the current signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	signals, err := readSignals(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.alert(r.Context(), sse, errors.BadRequestWrap(err, "invalid dashboard state"))
		return
	}
	h.patchDashboard(r.Context(), sse, signals)
}

// HandleMeasure switches the active measure and re-renders.
func (h *SSEHandlers) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	signals, err := readSignals(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.alert(r.Context(), sse, errors.BadRequestWrap(err, "invalid dashboard state"))
		return
	}

	measure, err := models.ParseMeasure(r.PathValue("measure"))
	if err != nil {
		h.alert(r.Context(), sse, errors.BadRequestWrap(err, "unknown measure"))
		return
	}
	signals.Measure = string(measure)
	h.patchDashboard(r.Context(), sse, signals)
}

// HandleClearFilters resets every filter control, keeping the measure and theme.
func (h *SSEHandlers) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	signals, err := readSignals(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.alert(r.Context(), sse, errors.BadRequestWrap(err, "invalid dashboard state"))
		return
	}

	cleared := Signals{Measure: signals.Measure, Dark: signals.Dark}
	h.send(r.Context(), "clear filters", sse.PatchSignals(
		[]byte(`{"countries":[],"years":[],"months":[],"importer":""}`)))
	h.patchDashboard(r.Context(), sse, cleared)
}

func (h *SSEHandlers) patchDashboard(ctx context.Context, sse *datastar.ServerSentEventGenerator, signals Signals) {
	q := signals.query()
	if err := validate.Struct(q); err != nil {
		h.alert(ctx, sse, errors.Validation(err))
		return
	}

	out, err := h.analytics.Render(ctx, q)
	if err != nil {
		h.alert(ctx, sse, toAppError(err))
		return
	}

	kpis, err := renderString(ctx, templates.KPIRow(out))
	if err != nil {
		h.alert(ctx, sse, errors.InternalWrap(err, "render KPI row"))
		return
	}
	h.send(ctx, "kpi row", sse.PatchElements(kpis))

	figures, err := json.Marshal(map[string]any{
		"figures": out.Figures,
		"measure": out.Measure,
	})
	if err != nil {
		h.alert(ctx, sse, errors.InternalWrap(err, "marshal figures"))
		return
	}
	// Signal patches merge objects key by key; drop the old figures first so
	// no stale layout keys survive into the new charts.
	h.send(ctx, "reset figures", sse.PatchSignals([]byte(`{"figures":null}`)))
	h.send(ctx, "figures", sse.PatchSignals(figures))

	message := ""
	if !out.Available {
		message = fmt.Sprintf("%s is not present in the loaded dataset", out.Measure.Label())
	}
	h.patchAlert(ctx, sse, message)
}

// alert reports err inside the page. Internal causes are logged, not shown.
func (h *SSEHandlers) alert(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.InternalWrap(err, "An unexpected error occurred")
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, "dashboard update failed",
		"error_code", appErr.Code,
		"cause", appErr.Cause,
		"request_id", observability.GetRequestID(ctx),
	)

	message := appErr.Message
	if len(appErr.Details) > 0 {
		message += ": " + strings.Join(appErr.Details, "; ")
	}
	h.patchAlert(ctx, sse, message)
}

func (h *SSEHandlers) patchAlert(ctx context.Context, sse *datastar.ServerSentEventGenerator, message string) {
	html, err := renderString(ctx, templates.Alert(message))
	if err != nil {
		h.logger.Error("render alert", "error", err)
		return
	}
	h.send(ctx, "alert", sse.PatchElements(html))
}

func (h *SSEHandlers) send(ctx context.Context, what string, err error) {
	if err != nil {
		h.logger.Warn("sse patch failed",
			"patch", what,
			"error", err,
			"request_id", observability.GetRequestID(ctx),
		)
	}
}

func readSignals(r *http.Request) (Signals, error) {
	var s Signals
	if err := datastar.ReadSignals(r, &s); err != nil {
		return Signals{}, err
	}
	return s, nil
}

func renderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
