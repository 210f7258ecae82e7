package presentation

import (
	"math"
	"strconv"
	"strings"

	"trade-dashboard/internal/format"
	"trade-dashboard/internal/models"
)

const (
	sparkWidth  = 120.0
	sparkHeight = 32.0
)

// Card is a KPI widget ready for templating. SparkPoints is the SVG
// polyline "points" attribute drawing Sparkline.
type Card struct {
	Kind        models.KPIKind `json:"kind"`
	Title       string         `json:"title"`
	Value       string         `json:"value"`
	DeltaLabel  string         `json:"delta_label"`
	DeltaPct    float64        `json:"delta_pct"`
	DeltaText   string         `json:"delta_text"`
	ValueColor  string         `json:"value_color"`
	DeltaColor  string         `json:"delta_color"`
	Sparkline   []float64      `json:"sparkline"`
	SparkPoints string         `json:"spark_points"`
}

func buildCards(kpis []models.KPI, p Palette, currency string) []Card {
	cards := make([]Card, 0, len(kpis))
	for _, k := range kpis {
		cards = append(cards, buildCard(k, p, currency))
	}
	return cards
}

func buildCard(k models.KPI, p Palette, currency string) Card {
	value := format.FormatInteger(k.Value)
	if k.Monetary {
		value = format.FormatMoney(k.Value, currency)
	}

	delta := models.Finite(k.DeltaPct)
	deltaColor := p.Positive
	if delta < 0 {
		deltaColor = p.Negative
	}

	return Card{
		Kind:        k.Kind,
		Title:       k.Title,
		Value:       value,
		DeltaLabel:  k.DeltaLabel,
		DeltaPct:    delta,
		DeltaText:   k.DeltaLabel + ": " + format.Percent(delta),
		ValueColor:  p.Accent,
		DeltaColor:  deltaColor,
		Sparkline:   k.Sparkline,
		SparkPoints: sparkPoints(k.Sparkline),
	}
}

// sparkPoints scales values into the sparkline viewBox, top = max.
// Fewer than two points draw nothing.
func sparkPoints(values []float64) string {
	if len(values) < 2 {
		return ""
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo

	var b strings.Builder
	step := sparkWidth / float64(len(values)-1)
	for i, v := range values {
		y := sparkHeight / 2
		if span > 0 {
			y = sparkHeight - (v-lo)/span*sparkHeight
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(float64(i)*step, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
	}
	return b.String()
}
