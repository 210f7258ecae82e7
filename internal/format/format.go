// Package format turns dashboard numbers into short display strings.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Abbreviate scales n by magnitude into B, M or K with two decimals.
// Values below one thousand are printed as integers.
func Abbreviate(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// AbbreviateValue abbreviates any numeric value or numeric string. Anything
// else is returned in its string form unchanged.
func AbbreviateValue(v any) string {
	switch n := v.(type) {
	case float64:
		return Abbreviate(n)
	case float32:
		return Abbreviate(float64(n))
	case int:
		return Abbreviate(float64(n))
	case int32:
		return Abbreviate(float64(n))
	case int64:
		return Abbreviate(float64(n))
	case uint:
		return Abbreviate(float64(n))
	case uint32:
		return Abbreviate(float64(n))
	case uint64:
		return Abbreviate(float64(n))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return Abbreviate(f)
		}
		return n
	case nil:
		return "<nil>"
	default:
		return fmt.Sprint(v)
	}
}

// FormatMoney prefixes the abbreviated value with symbol. NaN means absent.
func FormatMoney(v float64, symbol string) string {
	if math.IsNaN(v) {
		return symbol + "0"
	}
	return symbol + Abbreviate(v)
}

// FormatInteger prints v with no decimals; NaN prints as zero.
func FormatInteger(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return fmt.Sprintf("%.0f", v)
}

// SafeGrowthPct returns the percentage change from prev to curr, or 0 when
// prev is zero or not a number.
func SafeGrowthPct(curr, prev float64) float64 {
	if prev == 0 || math.IsNaN(prev) || math.IsInf(prev, 0) {
		return 0
	}
	g := (curr - prev) / prev * 100
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0
	}
	return g
}

// Percent renders a delta the way KPI cards show it, e.g. "12.50%".
func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", p)
}
