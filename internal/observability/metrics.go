package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trade_dashboard"

var (
	// HTTPRequestsTotal counts served requests by route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// RenderDuration measures one filter, aggregate and present pass.
	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of dashboard renders in seconds",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"measure"},
	)

	RenderRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_rows",
			Help:      "Rows left after filtering, per render",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		},
	)

	DatasetRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset",
		},
	)

	DatasetUnresolvedCountries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_unresolved_country_rows",
			Help:      "Rows whose country of origin has no ISO3 code",
		},
	)

	DatasetLoadSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_load_seconds",
			Help:      "Duration of the last dataset load in seconds",
		},
	)
)

// RecordRequest records one served HTTP request.
func RecordRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordRender records one dashboard render.
func RecordRender(measure string, rows int, seconds float64) {
	RenderDuration.WithLabelValues(measure).Observe(seconds)
	RenderRows.Observe(float64(rows))
}

// RecordLoad publishes the outcome of a dataset load.
func RecordLoad(rows int, unresolved int64, seconds float64) {
	DatasetRows.Set(float64(rows))
	DatasetUnresolvedCountries.Set(float64(unresolved))
	DatasetLoadSeconds.Set(seconds)
}
