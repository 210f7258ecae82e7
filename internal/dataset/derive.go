package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const hsCodeWidth = 6

// placeholderDate is used when the source has no date information at all.
var placeholderDate = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"2006-01",
}

// padHSCode left-pads an HS code with zeros to six characters. Codes that
// were exported as floats ("10101.0") lose the fraction first.
func padHSCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	if len(s) >= hsCodeWidth {
		return s
	}
	return strings.Repeat("0", hsCodeWidth-len(s)) + s
}

// parseDate accepts the common layouts of exported customs data. An
// unparseable value yields the zero time, never an error.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// dateFromParts builds the first day of year/month; invalid parts yield the zero time.
func dateFromParts(year, month string) time.Time {
	y, okY := parseInt(year)
	m, okM := parseInt(month)
	if !okY || !okM || y <= 0 || m < 1 || m > 12 {
		return time.Time{}
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func parseInt(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// parseNumber reads a measure cell. Thousands separators and a leading
// currency symbol are tolerated; anything else becomes NaN.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
