package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"trade-dashboard/internal/errors"
	"trade-dashboard/internal/models"
	"trade-dashboard/internal/observability"
	"trade-dashboard/internal/presentation"
	"trade-dashboard/internal/services"
)

var validate = validator.New()

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	version   string
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, version string) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		version:   version,
	}
}

// HandleDashboard renders the full dashboard state for the query string
// filters as JSON.
func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.analytics.Render(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, out, map[string]string{
		"Cache-Control": "public, max-age=60",
	})
}

// HandleSummary returns the unstyled aggregation result.
func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, summary, map[string]string{
		"Cache-Control": "public, max-age=60",
	})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.analytics.Options()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccessWithHeaders(w, opts, map[string]string{
		"Cache-Control": "public, max-age=300",
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready() {
		h.fail(w, r, services.ErrNotLoaded)
		return
	}

	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !h.analytics.Ready() {
		h.fail(w, r, services.ErrNotLoaded)
		return
	}
	errors.WriteSuccess(w, h.analytics.Stats())
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, toAppError(err), observability.GetRequestID(r.Context()))
}

// toAppError maps service errors onto HTTP error codes. AppErrors pass
// through unchanged.
func toAppError(err error) error {
	var appErr *errors.AppError
	var verrs validator.ValidationErrors
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, services.ErrNotLoaded):
		return errors.ServiceUnavailable("dataset is not loaded yet")
	case stderrors.As(err, &verrs):
		return errors.Validation(err)
	default:
		return err
	}
}

// parseQuery reads repeatable "country", "year" and "month" parameters plus
// scalar "importer", "measure" and "theme".
func parseQuery(v url.Values) (services.Query, error) {
	years, err := parseInts("year", v["year"])
	if err != nil {
		return services.Query{}, err
	}
	months, err := parseInts("month", v["month"])
	if err != nil {
		return services.Query{}, err
	}
	theme, err := presentation.ParseTheme(v.Get("theme"))
	if err != nil {
		return services.Query{}, errors.BadRequestWrap(err, "theme must be dark or light")
	}

	q := services.Query{
		Countries: nonEmpty(v["country"]),
		Years:     years,
		Months:    months,
		Importer:  strings.TrimSpace(v.Get("importer")),
		Measure:   models.Measure(strings.ToUpper(strings.TrimSpace(v.Get("measure")))),
		Theme:     theme,
	}
	if err := validate.Struct(q); err != nil {
		return services.Query{}, errors.Validation(err)
	}
	return q, nil
}

func parseInts(name string, raw []string) ([]int, error) {
	var out []int
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.BadRequestWrap(err, name+" must be an integer")
		}
		out = append(out, n)
	}
	return out, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, s := range values {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
