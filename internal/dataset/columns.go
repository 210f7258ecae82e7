package dataset

import (
	"strings"

	"trade-dashboard/internal/models"
)

// headerAliases lists accepted header spellings per canonical column, most
// preferred first. Measure columns come with or without a currency suffix.
var headerAliases = map[models.Column][]string{
	models.ColCountry:   {"Country_of_origin"},
	models.ColImporter:  {"Importer"},
	models.ColHSCode:    {"HS_code"},
	models.ColSection:   {"section_name"},
	models.ColContainer: {"Container_size"},
	models.ColReceipt:   {"Receipt_number"},
	models.ColMass:      {"Mass_(kg)", "Mass_kg"},
	models.ColDate:      {"Receipt_date"},
	models.ColYear:      {"Year"},
	models.ColMonth:     {"Month"},
	models.ColCIF:       {"CIF_value($)", "CIF_value"},
	models.ColFOB:       {"FOB_value($)", "FOB_value"},
	models.ColTax:       {"Total_Tax($)", "Total_Tax"},
}

// layout maps canonical columns to their index in a source record.
type layout map[models.Column]int

// resolveHeader picks, for every canonical column, the best matching header.
// Headers are compared case-insensitively; "Unnamed" index columns are ignored.
func resolveHeader(header []string) layout {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" || strings.HasPrefix(h, "Unnamed") {
			continue
		}
		key := strings.ToLower(h)
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	l := make(layout, len(headerAliases))
	for col, names := range headerAliases {
		for _, name := range names {
			if i, ok := positions[strings.ToLower(name)]; ok {
				l[col] = i
				break
			}
		}
	}
	return l
}

func (l layout) columns() []models.Column {
	cols := make([]models.Column, 0, len(l))
	for c := range l {
		cols = append(cols, c)
	}
	return cols
}

// cell returns the trimmed value of col in record, or "" when the column is
// absent or the record is short.
func (l layout) cell(record []string, col models.Column) string {
	i, ok := l[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
