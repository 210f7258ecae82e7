package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"trade-dashboard/internal/format"
)

type colorMode int

const (
	colorAuto colorMode = iota
	colorAlways
	colorNever
)

func parseColorMode(s string) (colorMode, error) {
	switch s {
	case "", "auto":
		return colorAuto, nil
	case "always":
		return colorAlways, nil
	case "never":
		return colorNever, nil
	default:
		return colorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// resolveColors honours NO_COLOR and dumb terminals in auto mode, then
// falls back to color's own terminal detection.
func resolveColors(mode colorMode, getenv func(string) string) bool {
	switch mode {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		if getenv("NO_COLOR") != "" || getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

type printer struct {
	out       io.Writer
	useColors bool
}

func newPrinter(out io.Writer, useColors bool) *printer {
	return &printer{out: out, useColors: useColors}
}

func (p *printer) paint(attrs []color.Attribute, s string) string {
	c := color.New(attrs...)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func (p *printer) header(title string) {
	fmt.Fprintln(p.out, p.paint([]color.Attribute{color.Bold, color.FgCyan}, title))
}

func (p *printer) warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.paint([]color.Attribute{color.FgYellow}, fmt.Sprintf(format, args...)))
}

// delta renders a growth percentage, green when non-negative.
func (p *printer) delta(pct float64) string {
	text := format.Percent(pct)
	if pct >= 0 {
		return p.paint([]color.Attribute{color.FgGreen}, "+"+text)
	}
	return p.paint([]color.Attribute{color.FgRed}, text)
}

func (p *printer) table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)

	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("fill table: %w", err)
	}
	return table.Render()
}
