package presentation

import (
	"maps"

	"trade-dashboard/internal/models"
)

const (
	TitleTopHSCodes   = "Top 10 HS Codes"
	TitleDistribution = "Container Size Distribution"
	TitleCountries    = "By Country of Origin"
	NoDataText        = "No data"
)

// Figure is a Plotly figure: traces plus layout, serialised verbatim to the client.
type Figure struct {
	Data   []map[string]any `json:"data"`
	Layout map[string]any   `json:"layout"`
}

type Figures struct {
	Trend        Figure `json:"trend"`
	TopHSCodes   Figure `json:"top_hs_codes"`
	Distribution Figure `json:"distribution"`
	Countries    Figure `json:"countries"`
}

func buildFigures(s models.Summary, t Theme) Figures {
	p := t.Palette()
	return Figures{
		Trend:        trendFigure(s.Trend, string(s.Measure)+" Trend", t, p),
		TopHSCodes:   topHSFigure(s.TopHSCodes, s.Measure, t, p),
		Distribution: distributionFigure(s.Distribution, s.Measure, t, p),
		Countries:    countriesFigure(s.Countries, s.Measure, t),
	}
}

// baseLayout colours text and axes from the palette. Plotly.js has no named
// templates, so every themed colour is spelled out here.
func baseLayout(title string, t Theme) map[string]any {
	p := t.Palette()
	axis := func() map[string]any {
		return map[string]any{
			"gridcolor":     p.Grid,
			"zerolinecolor": p.Grid,
			"linecolor":     p.Grid,
			"tickfont":      map[string]any{"color": p.Muted},
		}
	}
	layout := map[string]any{
		"paper_bgcolor": "rgba(0,0,0,0)",
		"plot_bgcolor":  "rgba(0,0,0,0)",
		"font":          map[string]any{"color": p.Text},
		"margin":        map[string]any{"l": 40, "r": 20, "t": 60, "b": 40},
		"xaxis":         axis(),
		"yaxis":         axis(),
	}
	if title != "" {
		layout["title"] = map[string]any{"text": title}
	}
	return layout
}

// setAxis merges opts into the themed axis of layout.
func setAxis(layout map[string]any, name string, opts map[string]any) {
	ax, _ := layout[name].(map[string]any)
	if ax == nil {
		ax = map[string]any{}
		layout[name] = ax
	}
	maps.Copy(ax, opts)
}

// noDataFigure is an empty plot carrying a centred "No data" annotation.
func noDataFigure(title string, t Theme) Figure {
	layout := baseLayout(title, t)
	setAxis(layout, "xaxis", map[string]any{"visible": false})
	setAxis(layout, "yaxis", map[string]any{"visible": false})
	layout["annotations"] = []map[string]any{{
		"text":      NoDataText,
		"showarrow": false,
		"xref":      "paper",
		"yref":      "paper",
		"x":         0.5,
		"y":         0.5,
		"font":      map[string]any{"size": 16},
	}}
	return Figure{Data: []map[string]any{}, Layout: layout}
}

func columns(points []models.Point) (keys []string, values []float64, labels []string) {
	keys = make([]string, len(points))
	values = make([]float64, len(points))
	labels = make([]string, len(points))
	for i, pt := range points {
		keys[i] = pt.Key
		values[i] = models.Finite(pt.Value)
		labels[i] = pt.Label
	}
	return keys, values, labels
}

func trendFigure(d models.Dataset, title string, t Theme, p Palette) Figure {
	if d.NoData {
		return noDataFigure(title, t)
	}
	keys, values, _ := columns(d.Points)
	layout := baseLayout(title, t)
	setAxis(layout, "xaxis", map[string]any{"type": "category", "title": map[string]any{"text": "YearMonth"}})
	return Figure{
		Data: []map[string]any{{
			"type": "scatter",
			"mode": "lines+markers",
			"x":    keys,
			"y":    values,
			"line": map[string]any{"color": p.Accent, "width": 2},
		}},
		Layout: layout,
	}
}

func topHSFigure(d models.Dataset, m models.Measure, t Theme, p Palette) Figure {
	if d.NoData {
		return noDataFigure(TitleTopHSCodes, t)
	}
	keys, values, labels := columns(d.Points)
	layout := baseLayout(TitleTopHSCodes, t)
	// largest bar on top, HS codes stay categorical
	setAxis(layout, "yaxis", map[string]any{"type": "category", "autorange": "reversed"})
	setAxis(layout, "xaxis", map[string]any{"title": map[string]any{"text": m.Label()}})
	return Figure{
		Data: []map[string]any{{
			"type":        "bar",
			"orientation": "h",
			"x":           values,
			"y":           keys,
			"hovertext":   labels,
			"marker":      map[string]any{"color": p.Accent},
		}},
		Layout: layout,
	}
}

func distributionFigure(d models.Dataset, m models.Measure, t Theme, p Palette) Figure {
	if d.NoData {
		return noDataFigure(TitleDistribution, t)
	}
	keys, values, _ := columns(d.Points)
	layout := baseLayout(TitleDistribution, t)
	setAxis(layout, "xaxis", map[string]any{"type": "category"})
	setAxis(layout, "yaxis", map[string]any{"title": map[string]any{"text": m.Label()}})
	return Figure{
		Data: []map[string]any{{
			"type":   "bar",
			"x":      keys,
			"y":      values,
			"marker": map[string]any{"color": p.Accent},
		}},
		Layout: layout,
	}
}

func countriesFigure(d models.Dataset, m models.Measure, t Theme) Figure {
	if d.NoData {
		return noDataFigure(TitleCountries, t)
	}
	keys, values, _ := columns(d.Points)
	layout := baseLayout(TitleCountries, t)
	p := t.Palette()
	layout["geo"] = map[string]any{
		"bgcolor":        "rgba(0,0,0,0)",
		"showframe":      false,
		"coastlinecolor": p.Grid,
		"landcolor":      p.Card,
	}
	return Figure{
		Data: []map[string]any{{
			"type":         "choropleth",
			"locationmode": "ISO-3",
			"locations":    keys,
			"z":            values,
			"colorscale":   "Blues",
			"colorbar":     map[string]any{"title": map[string]any{"text": m.Label()}},
		}},
		Layout: layout,
	}
}
