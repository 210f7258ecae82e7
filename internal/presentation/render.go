package presentation

import (
	"trade-dashboard/internal/models"
)

// Output is everything the UI needs to draw one dashboard state.
type Output struct {
	Theme     Theme          `json:"theme"`
	Measure   models.Measure `json:"measure"`
	Available bool           `json:"measure_available"`
	RowCount  int            `json:"row_count"`
	Palette   Palette        `json:"palette"`
	Cards     []Card         `json:"cards"`
	Figures   Figures        `json:"figures"`
}

// Render styles an aggregation result. It does no computation of its own
// beyond formatting, so identical summaries render identically.
func Render(s models.Summary, t Theme, currency string) Output {
	p := t.Palette()
	return Output{
		Theme:     t,
		Measure:   s.Measure,
		Available: s.Available,
		RowCount:  s.RowCount,
		Palette:   p,
		Cards:     buildCards(s.KPIs, p, currency),
		Figures:   buildFigures(s, t),
	}
}
