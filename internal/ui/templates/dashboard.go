// Package templates renders the dashboard page and the fragments that SSE
// handlers patch into it.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"trade-dashboard/internal/models"
	"trade-dashboard/internal/presentation"
)

const (
	datastarCDN = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"
	plotlyCDN   = "https://cdn.plot.ly/plotly-2.35.2.min.js"
)

// DashboardProps feeds the full page. Initial, when set, is rendered
// server-side so the KPI row shows before the first SSE round trip.
type DashboardProps struct {
	Title   string
	Options models.FilterOptions
	Initial *presentation.Output
}

type pageData struct {
	DashboardProps
	Dark      presentation.Palette
	Light     presentation.Palette
	Datastar  string
	Plotly    string
	Measures  []measureButton
	MonthName map[int]string
}

type measureButton struct {
	Measure models.Measure
	Label   string
}

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

func init() {
	template.Must(pageTemplate.New("kpiRow").Parse(kpiRowHTML))
}

// Dashboard renders the whole page.
func Dashboard(props DashboardProps) templ.Component {
	if props.Title == "" {
		props.Title = "Trade & Customs Dashboard"
	}
	buttons := make([]measureButton, 0, len(props.Options.Measures))
	for _, m := range props.Options.Measures {
		buttons = append(buttons, measureButton{Measure: m, Label: m.Label()})
	}

	data := pageData{
		DashboardProps: props,
		Dark:           presentation.ThemeDark.Palette(),
		Light:          presentation.ThemeLight.Palette(),
		Datastar:       datastarCDN,
		Plotly:         plotlyCDN,
		Measures:       buttons,
		MonthName:      monthNames,
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pageTemplate.ExecuteTemplate(w, "page", data)
	})
}

// KPIRow renders the "#kpi-row" fragment for one dashboard state.
func KPIRow(out presentation.Output) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pageTemplate.ExecuteTemplate(w, "kpiRow", out)
	})
}

// Alert renders the "#dashboard-alert" fragment; an empty message clears it.
func Alert(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return alertTemplate.Execute(w, message)
	})
}

var alertTemplate = template.Must(template.New("alert").Parse(
	`<div id="dashboard-alert" role="status">{{if .}}<span class="alert">{{.}}</span>{{end}}</div>`))

var monthNames = map[int]string{
	1: "Jan", 2: "Feb", 3: "Mar", 4: "Apr", 5: "May", 6: "Jun",
	7: "Jul", 8: "Aug", 9: "Sep", 10: "Oct", 11: "Nov", 12: "Dec",
}

const kpiRowHTML = `<div id="kpi-row" class="kpi-row">
{{- range .Cards}}
<div class="kpi-card" data-kind="{{.Kind}}">
<div class="kpi-title">{{.Title}}</div>
<div class="kpi-value" style="color: {{.ValueColor}}">{{.Value}}</div>
<div class="kpi-delta" style="color: {{.DeltaColor}}">{{.DeltaText}}</div>
<svg class="kpi-spark" viewBox="0 0 120 32" preserveAspectRatio="none" aria-hidden="true">
{{- if .SparkPoints}}<polyline fill="none" stroke="{{.ValueColor}}" stroke-width="2" points="{{.SparkPoints}}"></polyline>{{end -}}
</svg>
</div>
{{- end}}
</div>`

const pageHTML = `<!DOCTYPE html>
<html lang="en" data-theme="dark">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<script type="module" src="{{.Datastar}}"></script>
<script src="{{.Plotly}}"></script>
<style>
:root {
  --bg: {{.Light.Background}}; --card: {{.Light.Card}}; --text: {{.Light.Text}};
  --muted: {{.Light.Muted}}; --accent: {{.Light.Accent}};
}
[data-theme="dark"] {
  --bg: {{.Dark.Background}}; --card: {{.Dark.Card}}; --text: {{.Dark.Text}};
  --muted: {{.Dark.Muted}}; --accent: {{.Dark.Accent}};
}
body { margin: 0; font-family: system-ui, sans-serif; background: var(--bg); color: var(--text); }
header { display: flex; align-items: center; justify-content: space-between; padding: 16px 24px; }
h1 { font-size: 1.5rem; margin: 0; }
.filters { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 12px; padding: 0 24px; }
.filters label { display: flex; flex-direction: column; font-size: .85rem; color: var(--muted); gap: 4px; }
.filters select { min-height: 2rem; }
.measures { display: flex; gap: 8px; padding: 12px 24px; }
.measures button { border: 1px solid var(--accent); background: transparent; color: var(--accent); border-radius: 6px; padding: 6px 14px; cursor: pointer; }
.measures button.active { background: var(--accent); color: #fff; }
.kpi-row { display: grid; grid-template-columns: repeat(auto-fit, minmax(220px, 1fr)); gap: 12px; padding: 12px 24px; }
.kpi-card { background: var(--card); border: 1px solid rgba(128,128,128,.12); border-radius: 12px; padding: 14px; }
.kpi-title { font-size: .95rem; color: var(--muted); margin-bottom: 6px; }
.kpi-value { font-size: 1.4rem; font-weight: 700; margin-bottom: 6px; }
.kpi-delta { font-size: .85rem; margin-bottom: 6px; }
.kpi-spark { width: 100%; height: 48px; }
.charts { display: grid; grid-template-columns: repeat(auto-fit, minmax(420px, 1fr)); gap: 12px; padding: 12px 24px 24px; }
.chart { background: var(--card); border-radius: 12px; min-height: 360px; }
.alert { color: #EF4444; padding: 0 24px; }
</style>
</head>
<body data-signals="{countries: [], years: [], months: [], importer: '', measure: 'CIF', dark: true, figures: {}}"
      data-init="$dark = localStorage.getItem('trade-dashboard-theme') !== 'light'; @get('/sse/dashboard')"
      data-effect="document.documentElement.dataset.theme = $dark ? 'dark' : 'light'; window.renderFigures($figures)">
<header>
  <h1>{{.Title}}</h1>
  <label class="theme-toggle">
    <input type="checkbox" data-bind="dark"
           data-on:change="localStorage.setItem('trade-dashboard-theme', $dark ? 'dark' : 'light'); @get('/sse/dashboard')">
    Dark mode
  </label>
</header>

<section class="filters">
  <label>Country of origin
    <select multiple data-bind="countries" data-on:change="@get('/sse/dashboard')">
      {{- range .Options.Countries}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
  </label>
  <label>Year
    <select multiple data-bind="years" data-on:change="@get('/sse/dashboard')">
      {{- range .Options.Years}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
  </label>
  <label>Month
    <select multiple data-bind="months" data-on:change="@get('/sse/dashboard')">
      {{- range .Options.Months}}<option value="{{.}}">{{index $.MonthName .}}</option>{{end}}
    </select>
  </label>
  <label>Importer
    <select data-bind="importer" data-on:change="@get('/sse/dashboard')">
      <option value="">All importers</option>
      {{- range .Options.Importers}}<option value="{{.}}">{{.}}</option>{{end}}
    </select>
  </label>
  <label>&nbsp;
    <button type="button" data-on:click="@get('/sse/clear-filters')">Clear filters</button>
  </label>
</section>

<nav class="measures">
  {{- range .Measures}}
  <button type="button" data-class:active="$measure === '{{.Measure}}'"
          data-on:click="@get('/sse/measure/{{.Measure}}')">{{.Label}}</button>
  {{- end}}
</nav>

<div id="dashboard-alert" role="status"></div>

{{if .Initial}}{{template "kpiRow" .Initial}}{{else}}<div id="kpi-row" class="kpi-row"></div>{{end}}

<section class="charts">
  <div id="chart-trend" class="chart"></div>
  <div id="chart-top" class="chart"></div>
  <div id="chart-dist" class="chart"></div>
  <div id="chart-map" class="chart"></div>
</section>

<script>
window.renderFigures = function (figures) {
  if (!figures || !window.Plotly) { return; }
  var targets = { trend: 'chart-trend', top_hs_codes: 'chart-top', distribution: 'chart-dist', countries: 'chart-map' };
  Object.keys(targets).forEach(function (key) {
    var fig = figures[key];
    if (fig && fig.layout) {
      Plotly.react(targets[key], fig.data || [], fig.layout, { displayModeBar: false, responsive: true });
    }
  });
};
</script>
</body>
</html>`
