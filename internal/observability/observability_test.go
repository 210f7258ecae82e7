package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-dashboard/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	logger.InfoContext(WithRequestID(context.Background(), "req-9"), "rendered")
	assert.Contains(t, buf.String(), `"request_id":"req-9"`)

	buf.Reset()
	logger.With("component", "loader").Debug("hidden")
	assert.Empty(t, buf.String(), "debug records are below the configured level")

	buf.Reset()
	logger.InfoContext(WithRequestID(context.Background(), "req-9"), "explicit", "request_id", "req-1")
	assert.Equal(t, 1, strings.Count(buf.String(), "request_id"))
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(config.TelemetryConfig{TracingEnabled: false}, "test", nil, slog.Default())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartSpan(context.Background(), "noop")
	span.End()
	assert.Empty(t, TraceID(ctx))
}

func TestInitTracing_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.TelemetryConfig{TracingEnabled: true, TraceExporter: "stdout", ServiceName: "trade-dashboard-test"}

	shutdown, err := InitTracing(cfg, "test", &buf, slog.Default())
	require.NoError(t, err)

	ctx, span := StartSpan(context.Background(), "render")
	assert.NotEmpty(t, TraceID(ctx))
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"render"`)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(config.TelemetryConfig{TracingEnabled: true, TraceExporter: "zipkin"}, "test", nil, slog.Default())
	assert.Error(t, err)
}

func TestMetricsRegistered(t *testing.T) {
	RecordRequest("GET", "GET /api/dashboard", "200", 0.01)
	RecordRender("CIF", 42, 0.002)
	RecordLoad(100, 3, 1.5)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"trade_dashboard_http_requests_total",
		"trade_dashboard_http_request_duration_seconds",
		"trade_dashboard_render_duration_seconds",
		"trade_dashboard_render_rows",
		"trade_dashboard_dataset_rows",
		"trade_dashboard_dataset_unresolved_country_rows",
	} {
		assert.True(t, names[want], want)
	}
}
