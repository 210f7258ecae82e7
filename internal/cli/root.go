// Package cli implements tradectl, a terminal front end to the same load,
// filter and aggregate pipeline the dashboard serves.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"trade-dashboard/internal/config"
	"trade-dashboard/internal/dataset"
	"trade-dashboard/internal/errors"
	"trade-dashboard/internal/models"
	"trade-dashboard/internal/pipeline"
	"trade-dashboard/internal/services"
)

var validate = validator.New()

type rootOptions struct {
	file       string
	sheet      string
	currency   string
	comparator string
	aliases    string
	color      string
	verbose    bool

	data config.DataConfig
}

type filterOptions struct {
	measure   string
	countries []string
	years     []int
	months    []int
	importer  string
}

func (f *filterOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.measure, "measure", "m", "CIF", "measure to aggregate (CIF, FOB, TAX)")
	cmd.Flags().StringSliceVarP(&f.countries, "country", "c", nil, "country of origin filter (repeatable)")
	cmd.Flags().IntSliceVarP(&f.years, "year", "y", nil, "year filter (repeatable)")
	cmd.Flags().IntSliceVar(&f.months, "month", nil, "month filter, 1-12 (repeatable)")
	cmd.Flags().StringVarP(&f.importer, "importer", "i", "", "importer filter")
}

func (f *filterOptions) query() (services.Query, error) {
	measure, err := models.ParseMeasure(f.measure)
	if err != nil {
		return services.Query{}, err
	}
	q := services.Query{
		Countries: f.countries,
		Years:     f.years,
		Months:    f.months,
		Importer:  f.importer,
		Measure:   measure,
	}
	if err := validate.Struct(q); err != nil {
		appErr := errors.Validation(err)
		return services.Query{}, fmt.Errorf("%s: %v", appErr.Message, appErr.Details)
	}
	return q, nil
}

// NewRootCommand builds the tradectl command tree. Flags override the
// DATA_* environment settings the dashboard server reads.
func NewRootCommand(version string) *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "tradectl",
		Short: "Query the trade and customs dataset from the terminal",
		Long: `tradectl loads the shipment dataset the dashboard serves and prints
its KPIs and breakdowns as tables.

Example usage:
  tradectl summary                         # CIF KPIs over the whole dataset
  tradectl summary -m FOB -y 2023          # FOB KPIs for 2023
  tradectl countries -c China -c Kenya     # per-country totals
  tradectl summary --json                  # raw aggregation result`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.file, "file", "f", "", "dataset path, .csv or .xlsx (default $DATA_FILE)")
	flags.StringVar(&o.sheet, "sheet", "", "worksheet name for .xlsx files")
	flags.StringVar(&o.currency, "currency", "", "currency symbol for money values (default $DATA_CURRENCY_SYMBOL)")
	flags.StringVar(&o.comparator, "comparator", "", "KPI comparator: prior or scaled (default $DATA_COMPARATOR)")
	flags.StringVar(&o.aliases, "aliases", "", "YAML file of extra country name aliases")
	flags.StringVar(&o.color, "color", "auto", "color output: auto, always or never")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log loader progress to stderr")

	root.AddCommand(newSummaryCommand(o), newCountriesCommand(o))
	return root
}

func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	o.data = cfg.Data

	flags := cmd.Flags()
	if flags.Changed("file") {
		o.data.File = o.file
	}
	if flags.Changed("sheet") {
		o.data.Sheet = o.sheet
	}
	if flags.Changed("currency") {
		o.data.CurrencySymbol = o.currency
	}
	if flags.Changed("comparator") {
		o.data.Comparator = o.comparator
	}
	if flags.Changed("aliases") {
		o.data.AliasFile = o.aliases
	}
	if _, err := parseColorMode(o.color); err != nil {
		return err
	}
	return nil
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load reads the dataset into a fresh Analytics.
func (o *rootOptions) load(ctx context.Context, stderr io.Writer) (*services.Analytics, error) {
	logger := o.logger(stderr)

	comparator, err := pipeline.ParseComparator(o.data.Comparator)
	if err != nil {
		return nil, err
	}
	loader, err := dataset.NewLoaderFromConfig(o.data, logger)
	if err != nil {
		return nil, err
	}

	analytics := services.NewAnalytics(services.Options{
		Currency:   o.data.CurrencySymbol,
		Comparator: comparator,
		TopN:       o.data.TopN,
		Logger:     logger,
	})

	if o.data.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.data.LoadTimeout)
		defer cancel()
	}
	if err := analytics.LoadFromFile(ctx, loader, o.data.File); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (o *rootOptions) printer(cmd *cobra.Command) *printer {
	mode, _ := parseColorMode(o.color)
	return newPrinter(cmd.OutOrStdout(), resolveColors(mode, os.Getenv))
}
