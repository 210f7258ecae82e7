package pipeline

import (
	"slices"

	"trade-dashboard/internal/models"
)

// FilterOptions lists the distinct values each filter control can offer,
// sorted ascending. Months are always 1 through 12.
func FilterOptions(table *models.Table) models.FilterOptions {
	countries := make(map[string]struct{})
	importers := make(map[string]struct{})
	years := make(map[int]struct{})

	if table != nil {
		for _, r := range table.Rows {
			if r.CountryOfOrigin != "" {
				countries[r.CountryOfOrigin] = struct{}{}
			}
			if r.Importer != "" {
				importers[r.Importer] = struct{}{}
			}
			if r.Year != 0 {
				years[r.Year] = struct{}{}
			}
		}
	}

	months := make([]int, 12)
	for i := range months {
		months[i] = i + 1
	}

	return models.FilterOptions{
		Countries: sortedKeys(countries),
		Years:     sortedKeys(years),
		Months:    months,
		Importers: sortedKeys(importers),
		Measures:  slices.Clone(models.Measures),
	}
}

func sortedKeys[K string | int](set map[K]struct{}) []K {
	keys := make([]K, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
