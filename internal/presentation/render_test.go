package presentation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-dashboard/internal/models"
)

func sampleSummary() models.Summary {
	return models.Summary{
		Measure:   models.MeasureCIF,
		Available: true,
		RowCount:  3,
		KPIs: []models.KPI{
			{Kind: models.KPITotal, Title: "Total CIF", Value: 1500, DeltaPct: 12.5, DeltaLabel: "YoY%", Monetary: true, Sparkline: []float64{1, 3, 2}},
			{Kind: models.KPIShipments, Title: "Total Shipments", Value: 3, DeltaPct: -4, DeltaLabel: "YoY%", Sparkline: []float64{}},
		},
		Trend: models.Dataset{Name: models.DatasetTrend, Points: []models.Point{
			{Key: "2022-01", Value: 130},
			{Key: "2022-02", Value: 50},
		}},
		TopHSCodes: models.Dataset{Name: models.DatasetTopHSCodes, Points: []models.Point{
			{Key: "010101", Label: "Live animals", Value: 150},
		}},
		Distribution: models.NoDataset(models.DatasetDistribution),
		Countries: models.Dataset{Name: models.DatasetCountries, Points: []models.Point{
			{Key: "CHN", Value: 150},
		}},
	}
}

func TestParseTheme(t *testing.T) {
	th, err := ParseTheme("DARK")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, th)

	th, err = ParseTheme("")
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, th)

	_, err = ParseTheme("solarized")
	assert.Error(t, err)

	assert.Equal(t, ThemeDark, ThemeOf(true))
	assert.Equal(t, "#111418", ThemeDark.Palette().Background)
	assert.Equal(t, "#F7F9FC", ThemeLight.Palette().Background)
}

func TestRender_Cards(t *testing.T) {
	out := Render(sampleSummary(), ThemeLight, "$")

	require.Len(t, out.Cards, 2)
	total := out.Cards[0]
	assert.Equal(t, "$1.50K", total.Value)
	assert.Equal(t, "YoY%: 12.50%", total.DeltaText)
	assert.Equal(t, lightPalette.Positive, total.DeltaColor)
	assert.Equal(t, lightPalette.Accent, total.ValueColor)
	assert.Equal(t, "0.0,32.0 60.0,0.0 120.0,16.0", total.SparkPoints)

	shipments := out.Cards[1]
	assert.Equal(t, "3", shipments.Value)
	assert.Equal(t, "YoY%: -4.00%", shipments.DeltaText)
	assert.Equal(t, lightPalette.Negative, shipments.DeltaColor)
	assert.Empty(t, shipments.SparkPoints)
}

func TestRender_Figures(t *testing.T) {
	out := Render(sampleSummary(), ThemeDark, "$")

	trend := out.Figures.Trend
	require.Len(t, trend.Data, 1)
	assert.Equal(t, []string{"2022-01", "2022-02"}, trend.Data[0]["x"])
	assert.Equal(t, []float64{130, 50}, trend.Data[0]["y"])
	assert.NotContains(t, trend.Layout, "template")
	xaxis := trend.Layout["xaxis"].(map[string]any)
	assert.Equal(t, darkPalette.Grid, xaxis["gridcolor"])
	assert.Equal(t, darkPalette.Grid, xaxis["zerolinecolor"])
	assert.Equal(t, "category", xaxis["type"], "figure options merge into the themed axis")
	assert.Equal(t, map[string]any{"text": "CIF Trend"}, trend.Layout["title"])

	top := out.Figures.TopHSCodes
	assert.Equal(t, "h", top.Data[0]["orientation"])
	assert.Equal(t, []string{"Live animals"}, top.Data[0]["hovertext"])

	countries := out.Figures.Countries
	assert.Equal(t, "choropleth", countries.Data[0]["type"])
	assert.Equal(t, "Blues", countries.Data[0]["colorscale"])
	assert.Equal(t, []string{"CHN"}, countries.Data[0]["locations"])

	dist := out.Figures.Distribution
	assert.Empty(t, dist.Data)
	annotations, ok := dist.Layout["annotations"].([]map[string]any)
	require.True(t, ok)
	assert.Equal(t, NoDataText, annotations[0]["text"])
}

func TestRender_EmptySummaryIsJSONSafe(t *testing.T) {
	s := models.Summary{
		Measure: models.MeasureTax,
		KPIs: []models.KPI{
			{Kind: models.KPIAvgValue, Title: "Avg Transaction Value", Value: math.NaN(), DeltaPct: math.Inf(1), DeltaLabel: "MoM%", Monetary: true},
		},
		Trend:        models.NoDataset(models.DatasetTrend),
		TopHSCodes:   models.NoDataset(models.DatasetTopHSCodes),
		Distribution: models.NoDataset(models.DatasetDistribution),
		Countries:    models.NoDataset(models.DatasetCountries),
	}

	out := Render(s, ThemeLight, "€")
	assert.Equal(t, "€0", out.Cards[0].Value)
	assert.Equal(t, "MoM%: 0.00%", out.Cards[0].DeltaText)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(string(data), `"No data"`))
}

func TestSparkPoints_Flat(t *testing.T) {
	assert.Equal(t, "0.0,16.0 120.0,16.0", sparkPoints([]float64{5, 5}))
}

func TestRender_FigureAxesFollowTheme(t *testing.T) {
	for _, theme := range []Theme{ThemeDark, ThemeLight} {
		t.Run(string(theme), func(t *testing.T) {
			figs := Render(sampleSummary(), theme, "$").Figures
			for name, fig := range map[string]Figure{
				"trend":        figs.Trend,
				"top":          figs.TopHSCodes,
				"distribution": figs.Distribution,
			} {
				for _, axis := range []string{"xaxis", "yaxis"} {
					ax, ok := fig.Layout[axis].(map[string]any)
					require.True(t, ok, "%s %s", name, axis)
					assert.Equal(t, theme.Palette().Grid, ax["gridcolor"], "%s %s", name, axis)
				}
			}
		})
	}
	assert.NotEqual(t, darkPalette.Grid, lightPalette.Grid)
}

