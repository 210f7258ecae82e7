package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"trade-dashboard/internal/format"
	"trade-dashboard/internal/models"
)

func newSummaryCommand(o *rootOptions) *cobra.Command {
	var (
		filters filterOptions
		asJSON  bool
		top     int
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print KPIs and the top HS codes for a filter",
		Long: `Print the four dashboard KPIs with their change against the comparator,
followed by the highest valued HS codes.

Examples:
  tradectl summary -f data/shipments.csv
  tradectl summary -m TAX -c China --month 1 --month 2
  tradectl summary --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filters.query()
			if err != nil {
				return err
			}
			analytics, err := o.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			summary, err := analytics.Summary(cmd.Context(), q)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return printSummary(o.printer(cmd), summary, analytics.Currency(), top)
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the aggregation result as JSON")
	cmd.Flags().IntVar(&top, "top", 5, "number of HS codes to list")
	return cmd
}

func printSummary(p *printer, s models.Summary, currency string, top int) error {
	p.header(fmt.Sprintf("%s over %d shipments", s.Measure.Label(), s.RowCount))
	if !s.Available {
		p.warn("%s is not present in the dataset", s.Measure.Label())
	}

	money := func(k models.KPI, v float64) string {
		if k.Monetary {
			return format.FormatMoney(v, currency)
		}
		return format.FormatInteger(v)
	}

	rows := make([][]string, 0, len(s.KPIs))
	for _, k := range s.KPIs {
		rows = append(rows, []string{
			k.Title,
			money(k, k.Value),
			money(k, k.Current),
			money(k, k.Prior),
			p.delta(k.DeltaPct),
			k.DeltaLabel,
		})
	}
	if err := p.table([]string{"KPI", "Value", "Current", "Prior", "Change", "Compared"}, rows); err != nil {
		return err
	}

	if s.TopHSCodes.NoData {
		return nil
	}
	fmt.Fprintln(p.out)
	p.header("Top HS codes")

	points := s.TopHSCodes.Points
	if top > 0 && len(points) > top {
		points = points[:top]
	}
	rows = rows[:0]
	for i, pt := range points {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			pt.Key,
			pt.Label,
			format.FormatMoney(pt.Value, currency),
		})
	}
	return p.table([]string{"Rank", "HS Code", "Section", "Value"}, rows)
}

func newCountriesCommand(o *rootOptions) *cobra.Command {
	var filters filterOptions

	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Print the measure total per country of origin",
		Long: `Print the measure total per resolved ISO-3 country code with its share
of the filtered total. Rows whose country could not be resolved are left out,
as on the dashboard map.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filters.query()
			if err != nil {
				return err
			}
			analytics, err := o.load(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			summary, err := analytics.Summary(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printCountries(o.printer(cmd), summary, analytics.Currency())
		},
	}

	filters.register(cmd)
	return cmd
}

func printCountries(p *printer, s models.Summary, currency string) error {
	p.header(fmt.Sprintf("%s by country of origin", s.Measure.Label()))
	if s.Countries.NoData {
		p.warn("No data")
		return nil
	}

	var total float64
	for _, pt := range s.Countries.Points {
		total += pt.Value
	}

	rows := make([][]string, 0, len(s.Countries.Points))
	for _, pt := range s.Countries.Points {
		share := 0.0
		if total != 0 {
			share = pt.Value / total * 100
		}
		rows = append(rows, []string{
			pt.Key,
			format.FormatMoney(pt.Value, currency),
			format.Percent(share),
		})
	}
	return p.table([]string{"ISO3", "Value", "Share"}, rows)
}
